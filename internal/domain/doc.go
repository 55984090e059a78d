// Package domain contains the core learning entities: schedule records,
// attempt log entries, curricula and users, together with the mastery
// classification shared by analytics and curriculum gating.
//
// Nothing in this package performs I/O. Scheduling math lives in the srs
// subpackage and module gating in the curriculum subpackage.
package domain
