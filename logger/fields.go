package logger

// Standard field key constants for structured logging.
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldDuration  = "duration_ms"

	FieldMessageID = "message_id"
	FieldChannelID = "channel_id"
	FieldGuildID   = "guild_id"
	FieldTaskID    = "task_id"
	FieldJobState  = "job_state"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	log.Info("job done", logger.Fields("message_id", id, "job_state", "done"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// JobFields creates the standard field set identifying a transcription job.
func JobFields(messageID, channelID string) map[string]interface{} {
	return map[string]interface{}{
		FieldMessageID: messageID,
		FieldChannelID: channelID,
	}
}
