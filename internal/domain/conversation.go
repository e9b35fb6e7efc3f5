package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"
)

// Conversation is the two-party approval record. Exactly one exists per
// unordered participant pair; its id is derived from the pair, so duplicate
// requests converge on the same document.
type Conversation struct {
	ID           ConversationID `json:"convId" bson:"_id"`
	Participants []UID          `json:"participants" bson:"participants"`
	Approved     map[UID]bool   `json:"approved" bson:"approved"`
	CreatedAt    time.Time      `json:"createdAt" bson:"createdAt"`
}

// PairID derives the canonical conversation id for two participants:
// a hex SHA-256 over the sorted uid pair. Both orders yield the same id,
// which makes conversation creation naturally idempotent.
func PairID(a, b UID) ConversationID {
	pair := []string{a.String(), b.String()}
	sort.Strings(pair)
	sum := sha256.Sum256([]byte(pair[0] + "\x00" + pair[1]))
	return ConversationID(hex.EncodeToString(sum[:]))
}

// HasParticipant reports whether uid is one of the two participants.
func (c Conversation) HasParticipant(uid UID) bool {
	for _, p := range c.Participants {
		if p == uid {
			return true
		}
	}
	return false
}

// Peer returns the other participant. The second result is false when uid is
// not a participant.
func (c Conversation) Peer(uid UID) (UID, bool) {
	if !c.HasParticipant(uid) {
		return "", false
	}
	for _, p := range c.Participants {
		if p != uid {
			return p, true
		}
	}
	return "", false
}

// FullyApproved reports whether every participant has set their own flag.
func (c Conversation) FullyApproved() bool {
	if len(c.Approved) != len(c.Participants) {
		return false
	}
	for _, ok := range c.Approved {
		if !ok {
			return false
		}
	}
	return true
}

// ApprovalState describes a pending conversation from one participant's
// point of view.
type ApprovalState string

const (
	// AwaitingMe: the viewer has not approved yet; the request needs their action.
	AwaitingMe ApprovalState = "awaiting_me"
	// AwaitingPeer: the viewer approved (typically the requester) and is
	// waiting on the counterparty.
	AwaitingPeer ApprovalState = "awaiting_peer"
	// Ready: every flag is set; messages may flow.
	Ready ApprovalState = "ready"
)

// StateFor returns the approval state as seen by uid.
func (c Conversation) StateFor(uid UID) ApprovalState {
	if c.FullyApproved() {
		return Ready
	}
	if c.Approved[uid] {
		return AwaitingPeer
	}
	return AwaitingMe
}
