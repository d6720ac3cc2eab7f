// Package playground provides a conversational session against a
// deployed graph on the run plane, keeping the transcript in the
// llms.MessageContent shape the surrounding agent tooling speaks.
package playground

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
)

// ErrEmptyTranscript is returned when validating a transcript with no
// messages.
var ErrEmptyTranscript = errors.New("transcript has no messages")

// Transcript is the ordered message history of one playground
// conversation.
type Transcript struct {
	Messages []llms.MessageContent `json:"messages"`
}

// Validate checks the transcript is non-empty.
func (t Transcript) Validate() error {
	if len(t.Messages) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}

// Merge appends another transcript's messages after this one's.
func (t Transcript) Merge(other Transcript) Transcript {
	return Transcript{
		Messages: append(append([]llms.MessageContent{}, t.Messages...), other.Messages...),
	}
}

// Clone returns a copy with its own message slice.
func (t Transcript) Clone() Transcript {
	return Transcript{
		Messages: append([]llms.MessageContent{}, t.Messages...),
	}
}

// Dump serializes the transcript for persistence.
func (t Transcript) Dump() ([]byte, error) {
	return json.Marshal(t)
}

// Load restores a transcript produced by Dump.
func Load(data []byte) (Transcript, error) {
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return Transcript{}, errors.Wrap(err, "decoding transcript")
	}
	return t, nil
}

// appendHuman records one user turn.
func (t Transcript) appendHuman(text string) Transcript {
	t.Messages = append(t.Messages, llms.TextParts(llms.ChatMessageTypeHuman, text))
	return t
}

// appendAI records one graph reply.
func (t Transcript) appendAI(text string) Transcript {
	t.Messages = append(t.Messages, llms.TextParts(llms.ChatMessageTypeAI, text))
	return t
}
