package domain

// UID is a stable, opaque user identifier. It is assigned at account creation
// and used as the join key everywhere.
type UID string

// String returns the string form of the identifier.
func (u UID) String() string { return string(u) }

// ConversationID identifies a two-party conversation. It is derived
// deterministically from the sorted participant pair, so the same two users
// always map to the same id.
type ConversationID string

// String returns the string form of the conversation identifier.
func (id ConversationID) String() string { return string(id) }

// MessageID uniquely identifies a message within a conversation.
type MessageID string

// String returns the string form of the message identifier.
func (id MessageID) String() string { return string(id) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// ArmoredKey is ASCII-armored OpenPGP key material, public or private.
// Private material is only ever carried in its passphrase-locked form.
type ArmoredKey string

// ArmoredMessage is an ASCII-armored OpenPGP message: the sealed envelope
// stored and relayed for every chat message.
type ArmoredMessage string

// KeyType selects the asymmetric algorithm for key generation.
type KeyType string

const (
	// KeyTypeRSA generates an RSA key pair; strength 2048 or 4096 bits.
	KeyTypeRSA KeyType = "rsa"
	// KeyTypeECC generates a Curve25519 key pair; strength is ignored.
	KeyTypeECC KeyType = "ecc"
)

// DirectoryEntry is the public, non-secret per-user record: the armored
// public key plus minimal profile metadata.
type DirectoryEntry struct {
	UID         UID        `json:"uid" bson:"_id"`
	PublicKey   ArmoredKey `json:"publicKeyArmored" bson:"publicKeyArmored"`
	DisplayName string     `json:"displayName" bson:"displayName"`
	PhotoURL    string     `json:"photoURL,omitempty" bson:"photoURL,omitempty"`
	// Placeholder is true when the entry was synthesised for a uid with no
	// directory record, so batch lookups never fail as a whole.
	Placeholder bool `json:"placeholder,omitempty" bson:"-"`
}
