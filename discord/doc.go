// Package discord is scribe's chat platform adapter.
//
// It contains the REST client used for replies, channel posts, edits,
// interaction responses, and command registration, plus a minimal
// gateway consumer that feeds inbound events to the orchestrator.
// Everything above this package works with the neutral types in
// package transcribe; Discord wire shapes stay in here.
package discord
