package transcribe

import "time"

// State is a job's lifecycle state. It is monotonic along
// pending -> dispatched -> {done, error}; dispatch_error is reachable
// directly from pending when submission throws before confirmation.
type State string

const (
	StatePending       State = "pending"
	StateDispatched    State = "dispatched"
	StateDone          State = "done"
	StateError         State = "error"
	StateDispatchError State = "dispatch_error"
)

// DefaultRecordTTL is how long job records live in the store. Expiry is
// advisory bookkeeping, not a durability guarantee.
const DefaultRecordTTL = 12 * time.Hour

// recordKeyPrefix derives the store key from the source message id, so a
// duplicate inbound event for the same message overwrites rather than
// forking a second record.
const recordKeyPrefix = "transcribe."

// RecordKey returns the store key for a source message id.
func RecordKey(messageID string) string {
	return recordKeyPrefix + messageID
}

// Hash field names of a job record.
const (
	fieldMessageID = "message_id"
	fieldChannelID = "channel_id"
	fieldGuildID   = "guild_id"
	fieldURL       = "url"
	fieldState     = "state"
	fieldStarted   = "started"
	fieldResult    = "result"
)

// JobRecord is the persistent bookkeeping entity, one per source message.
type JobRecord struct {
	MessageID string
	ChannelID string
	GuildID   string
	URL       string
	State     State
	Started   time.Time
	Result    string
}
