// Package events decouples services from the background machinery that acts
// on their requests. A service emits a TaskRequestEvent; handlers registered
// on the emitter (the task package's factory handler in production) turn it
// into work.
package events
