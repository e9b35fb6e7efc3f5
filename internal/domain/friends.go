package domain

import "time"

// Friend is a per-user copy of a counterparty's directory snapshot. It lives
// in the owner's friends list and is refreshed on add/accept, not kept in
// sync with later profile edits.
type Friend struct {
	Owner       UID        `json:"-" bson:"owner"`
	UID         UID        `json:"uid" bson:"uid"`
	DisplayName string     `json:"displayName" bson:"displayName"`
	PhotoURL    string     `json:"photoURL,omitempty" bson:"photoURL,omitempty"`
	PublicKey   ArmoredKey `json:"publicKeyArmored" bson:"publicKeyArmored"`
	AddedAt     time.Time  `json:"addedAt" bson:"addedAt"`
}

// FriendRequest is a pending friend invitation. Accepting writes reciprocal
// Friend entries on both sides and deletes the request; declining just
// deletes it.
type FriendRequest struct {
	From      UID       `json:"from" bson:"from"`
	To        UID       `json:"to" bson:"to"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
