package transcribe

import "unicode/utf8"

// DefaultInlineLimit is the transcription length below which results
// render inline. Chosen to stay within the platform's message-size limit
// after code-fence and back-link overhead.
const DefaultInlineLimit = 3800

// transcriptFilename is the attachment name for oversized results.
const transcriptFilename = "transcription.txt"

// Presenter shapes finished and failed jobs for display.
type Presenter struct {
	inlineLimit int
}

// NewPresenter creates a Presenter. A non-positive limit means
// DefaultInlineLimit.
func NewPresenter(inlineLimit int) *Presenter {
	if inlineLimit <= 0 {
		inlineLimit = DefaultInlineLimit
	}
	return &Presenter{inlineLimit: inlineLimit}
}

// RenderResult formats a transcription. Text strictly shorter than the
// inline limit is wrapped in a code block; anything longer is attached
// as a UTF-8 text file with a short notice. The prefix (back-link, or
// empty on the direct-reply path) always leads the content.
func (p *Presenter) RenderResult(text, prefix string) DisplayPayload {
	if utf8.RuneCountInString(text) < p.inlineLimit {
		return DisplayPayload{
			Content: prefix + "```\n" + text + "\n```\n",
		}
	}
	return DisplayPayload{
		Content: prefix + "Transcription attached as file",
		File: &FilePayload{
			Name: transcriptFilename,
			Data: []byte(text),
		},
	}
}

// RenderError formats a worker-side failure. Errors are assumed short
// and always render inline.
func (p *Presenter) RenderError(errText, prefix string) DisplayPayload {
	return DisplayPayload{
		Content: prefix + ":warning: Error transcribing: `" + errText + "`",
	}
}

// RenderDispatchError formats a submission failure, distinguishing it
// from a worker-side one.
func (p *Presenter) RenderDispatchError(errText, prefix string) DisplayPayload {
	return DisplayPayload{
		Content: prefix + ":warning: Error submitting transcription: `" + errText + "`",
	}
}
