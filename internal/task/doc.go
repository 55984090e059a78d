// Package task runs in-process background work on a bounded queue drained by
// a worker pool. Its main job is retrying history appends that failed while an
// attempt was being recorded: each failure becomes a HistoryAppendTask that is
// retried with backoff and, when it runs out of attempts, reported at ERROR
// level with the full entry so nothing disappears silently.
package task
