package domain

import "time"

// Message is one sealed record in a conversation. Immutable once appended,
// except ReadBy which only grows.
type Message struct {
	ID             MessageID      `json:"id" bson:"_id"`
	ConversationID ConversationID `json:"convId" bson:"convId"`
	Sender         UID            `json:"sender" bson:"sender"`
	CipherText     ArmoredMessage `json:"cipherText" bson:"cipherText"`
	// Timestamp is assigned by the store on insert; display order follows it,
	// with Seq breaking ties in arrival order.
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Seq       int64     `json:"seq" bson:"seq"`
	ReadBy    []UID     `json:"readBy" bson:"readBy"`
}

// SeenBy reports whether uid appears in the read set.
func (m Message) SeenBy(uid UID) bool {
	for _, r := range m.ReadBy {
		if r == uid {
			return true
		}
	}
	return false
}

// DecryptedMessage is a display record produced by the message stream after
// opening a sealed envelope.
type DecryptedMessage struct {
	ID        MessageID `json:"id"`
	Sender    UID       `json:"sender"`
	Text      string    `json:"text"`
	IsMine    bool      `json:"isMine"`
	Timestamp time.Time `json:"timestamp"`
	// Unreadable marks a record whose envelope could not be opened with the
	// subscriber's key; Text carries the placeholder in that case.
	Unreadable bool `json:"unreadable,omitempty"`
	// Unverified marks a record whose sender signature did not check out
	// against the sender's current directory key.
	Unverified bool `json:"unverified,omitempty"`
	ReadBy     []UID `json:"readBy"`
}

// UnreadablePlaceholder is rendered for a message that failed to decrypt.
// The failure is isolated to that record; the rest of the stream continues.
const UnreadablePlaceholder = "[Unable to decrypt]"
