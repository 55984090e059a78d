// Package assessment records learner attempts and answers every read the API
// makes about a learner's progress: latest results, the due queue, the attempt
// history, curriculum learning paths and analytics.
//
// RecordAttempt is the only write path for results. It normalizes the raw
// score, advances the schedule, replaces the stored record and appends to the
// history log, in that order. Attempts on the same (user, concept) pair are
// serialized within the process.
package assessment
