package domain

import "context"

// MessageEvent is one item on a live message feed. Err is set at most once,
// immediately before the feed terminates; callers are expected to resubscribe.
type MessageEvent struct {
	Message Message
	Err     error
}

// ConversationStore persists conversation approval records.
type ConversationStore interface {
	// CreateIfAbsent inserts conv keyed by its pair-derived id. When a record
	// for the pair already exists it is returned unchanged with created=false,
	// so concurrent duplicate requests converge on one conversation.
	CreateIfAbsent(ctx context.Context, conv Conversation) (out Conversation, created bool, err error)
	GetConversation(ctx context.Context, id ConversationID) (Conversation, error)
	ListByParticipant(ctx context.Context, uid UID) ([]Conversation, error)
	// SetApproved atomically sets approved.<uid> = true. It never touches any
	// other participant's flag and is a no-op when the flag is already set.
	SetApproved(ctx context.Context, id ConversationID, uid UID) error
}

// DirectoryStore persists the public identity -> key/profile mapping.
type DirectoryStore interface {
	PutEntry(ctx context.Context, entry DirectoryEntry) error
	GetEntry(ctx context.Context, uid UID) (DirectoryEntry, error)
	// GetEntries returns the entries that exist; absent uids are simply
	// missing from the result map.
	GetEntries(ctx context.Context, uids []UID) (map[UID]DirectoryEntry, error)
}

// MessageStore persists sealed message records in timestamp order.
type MessageStore interface {
	// Append stores msg, assigning Timestamp and Seq, and returns the stored
	// record.
	Append(ctx context.Context, msg Message) (Message, error)
	ListMessages(ctx context.Context, id ConversationID) ([]Message, error)
	// Watch replays the full history in order, then streams live appends and
	// read-set updates until ctx is cancelled or the store fails.
	Watch(ctx context.Context, id ConversationID) (<-chan MessageEvent, error)
	// MarkRead adds uid to the message's read set. Set union: concurrent
	// markers never remove entries.
	MarkRead(ctx context.Context, id ConversationID, msg MessageID, uid UID) error
}

// AccountStore persists login records.
type AccountStore interface {
	CreateAccount(ctx context.Context, acct Account) error
	GetAccount(ctx context.Context, uid UID) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
}

// FriendStore persists per-user friends lists and pending friend requests.
type FriendStore interface {
	UpsertFriend(ctx context.Context, f Friend) error
	ListFriends(ctx context.Context, owner UID) ([]Friend, error)
	PutRequest(ctx context.Context, r FriendRequest) error
	GetRequest(ctx context.Context, from, to UID) (FriendRequest, error)
	DeleteRequest(ctx context.Context, from, to UID) error
	ListRequests(ctx context.Context, to UID) ([]FriendRequest, error)
}

// Codec seals and opens chat messages. Implemented by the client key session
// once it holds a usable private key.
type Codec interface {
	// Seal encrypts plaintext to every recipient key (sender's own included,
	// so sent messages stay readable) and signs with the session key.
	Seal(plaintext string, recipients []ArmoredKey) (ArmoredMessage, error)
	// Open decrypts a sealed envelope with the session key and, when senderKey
	// is non-empty, verifies the embedded signature against it.
	Open(cipher ArmoredMessage, senderKey ArmoredKey) (string, error)
}

// RelayClient is how the CLI talks to the whisperd server.
type RelayClient interface {
	Signup(ctx context.Context, email, password, challengeToken string) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)

	PublishKey(ctx context.Context, entry DirectoryEntry) error
	Lookup(ctx context.Context, uid UID) (DirectoryEntry, error)
	BatchLookup(ctx context.Context, uids []UID) (map[UID]DirectoryEntry, error)
	Invite(ctx context.Context, uid UID) (DirectoryEntry, error)

	RequestConversation(ctx context.Context, peer UID) (id ConversationID, created bool, err error)
	ApproveConversation(ctx context.Context, id ConversationID) error
	Conversation(ctx context.Context, id ConversationID) (Conversation, error)
	Conversations(ctx context.Context, mode string) ([]Conversation, error)

	SendMessage(ctx context.Context, id ConversationID, cipher ArmoredMessage) (Message, error)
	History(ctx context.Context, id ConversationID) ([]Message, error)
	WatchMessages(ctx context.Context, id ConversationID) (<-chan MessageEvent, error)
	MarkRead(ctx context.Context, id ConversationID, msg MessageID) error

	AddFriend(ctx context.Context, uid UID) error
	SendFriendRequest(ctx context.Context, to UID) error
	RespondFriendRequest(ctx context.Context, from UID, accept bool) error
	ListFriends(ctx context.Context) ([]Friend, error)
}

// Session is an authenticated client identity: the caller's uid plus the
// bearer token whisperd issued for it.
type Session struct {
	UID   UID    `json:"uid"`
	Token string `json:"token"`
}
