package domain

import "time"

// Account is a server-side login record. The password is stored as a bcrypt
// hash; the account never carries key material.
type Account struct {
	UID          UID       `json:"uid" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash []byte    `json:"-" bson:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}
