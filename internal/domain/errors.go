package domain

import "errors"

var (
	// ErrWrongPassphrase is returned when unlocking key material with an
	// incorrect passphrase. Recoverable: the caller may re-prompt and retry.
	ErrWrongPassphrase = errors.New("wrong passphrase")

	// ErrKeyGen is returned for invalid key-generation parameters. No partial
	// key is persisted when generation fails.
	ErrKeyGen = errors.New("key generation failed")

	// ErrDecryptionFailure is returned when a sealed envelope cannot be opened
	// with the supplied private key. Isolated per message.
	ErrDecryptionFailure = errors.New("decryption failed")

	// ErrBadSignature is returned when an envelope decrypts but its sender
	// signature does not verify against the expected key. The plaintext is
	// still returned alongside this error.
	ErrBadSignature = errors.New("signature verification failed")

	// ErrKeyLocked is returned when an operation needs a usable private key
	// but the session is still locked.
	ErrKeyLocked = errors.New("private key is locked")

	// ErrNoKey is returned when no local key blob exists; the user must
	// generate or import one.
	ErrNoKey = errors.New("no local key material")

	// ErrNotFound is returned for a missing directory entry, conversation
	// or message.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when creating a record that is already
	// present, e.g. an account for a taken email address.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotParticipant is returned when the caller is not a member of the
	// conversation it is acting on.
	ErrNotParticipant = errors.New("not a conversation participant")

	// ErrNotApproved is returned when sending into a conversation that is not
	// yet fully approved.
	ErrNotApproved = errors.New("conversation not fully approved")

	// ErrSelfConversation is returned for a conversation request where both
	// participants are the same identity.
	ErrSelfConversation = errors.New("cannot start a conversation with yourself")

	// ErrInvalidUID is returned when an identifier fails format validation.
	ErrInvalidUID = errors.New("invalid uid")
)
