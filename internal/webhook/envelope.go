package webhook

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the provider's event wrapper: {id, type, data: {object}}.
// Decoding is validated at the boundary so handlers never touch
// half-formed payloads.
type Envelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// DecodeEnvelope parses and validates a raw webhook body.
func DecodeEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to parse envelope: %w", err)
	}
	if env.ID == "" {
		return Envelope{}, fmt.Errorf("envelope missing event id")
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("envelope missing event type")
	}
	return env, nil
}

// Participant is a single address in a from/to/cc list.
type Participant struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MessageObject is the data.object payload for message.* events.
type MessageObject struct {
	ID       string        `json:"id"`
	GrantID  string        `json:"grant_id"`
	ThreadID string        `json:"thread_id"`
	Subject  string        `json:"subject"`
	Snippet  string        `json:"snippet"`
	From     []Participant `json:"from"`
	To       []Participant `json:"to"`
	Date     int64         `json:"date"`
	Unread   bool          `json:"unread"`
	Starred  bool          `json:"starred"`
	Folders  []string      `json:"folders"`
}

// DecodeMessageObject parses the object of a message.* event.
// Deletion events may arrive without a grant id, so only the message id
// is mandatory.
func DecodeMessageObject(raw json.RawMessage) (MessageObject, error) {
	var obj MessageObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return MessageObject{}, fmt.Errorf("failed to parse message object: %w", err)
	}
	if obj.ID == "" {
		return MessageObject{}, fmt.Errorf("message object missing id")
	}
	return obj, nil
}

// ReceivedAt converts the provider's unix timestamp, defaulting to now
// when absent.
func (o MessageObject) ReceivedAt() time.Time {
	if o.Date == 0 {
		return time.Now().UTC()
	}
	return time.Unix(o.Date, 0).UTC()
}

// SenderEmail returns the first from address, or "".
func (o MessageObject) SenderEmail() string {
	if len(o.From) == 0 {
		return ""
	}
	return o.From[0].Email
}

// RecipientEmails flattens the to list into bare addresses.
func (o MessageObject) RecipientEmails() []string {
	if len(o.To) == 0 {
		return nil
	}
	out := make([]string, 0, len(o.To))
	for _, p := range o.To {
		out = append(out, p.Email)
	}
	return out
}

// FolderObject is the data.object payload for folder.* events.
type FolderObject struct {
	ID      string `json:"id"`
	GrantID string `json:"grant_id"`
	Name    string `json:"name"`
}

func DecodeFolderObject(raw json.RawMessage) (FolderObject, error) {
	var obj FolderObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return FolderObject{}, fmt.Errorf("failed to parse folder object: %w", err)
	}
	if obj.ID == "" {
		return FolderObject{}, fmt.Errorf("folder object missing id")
	}
	if obj.GrantID == "" {
		return FolderObject{}, fmt.Errorf("folder object missing grant id")
	}
	return obj, nil
}
