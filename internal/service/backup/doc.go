// Package backup exports a learner's curricula, results and history as one
// JSON document and restores such documents.
//
// Restoring is additive for history (entries are appended by ID, so an
// import can be repeated safely) and replacing for results and curricula.
package backup
