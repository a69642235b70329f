// Package transcribe contains the transcription job orchestrator: the
// logic that decides when a job exists, tracks its state across the
// dispatch/settlement transition, chooses the reply target under
// uncertain permissions, and shapes output for display.
//
// The chat platform, the worker queue, and the transient store are
// collaborators behind small interfaces; package discord, package
// celery, and package redis provide the production implementations.
package transcribe
