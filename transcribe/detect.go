package transcribe

// voiceFilename is the platform's fixed filename for voice recordings,
// used as a fallback heuristic when the explicit flag is absent.
const voiceFilename = "voice-message.ogg"

// DetectVoiceURL inspects a message's attachments and returns the
// fetchable URL of its eligible voice attachment. When several are
// eligible the first wins; the rest are ignored (accepted limitation).
// A false return means not applicable: no job, no side effects.
func DetectVoiceURL(msg Message) (string, bool) {
	if len(msg.Attachments) == 0 {
		return "", false
	}
	if msg.VoiceFlagged {
		return msg.Attachments[0].URL, true
	}
	for _, a := range msg.Attachments {
		if a.Filename == voiceFilename {
			return a.URL, true
		}
	}
	return "", false
}
