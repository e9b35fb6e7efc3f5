// Package mongo backs the whisperd store contracts with MongoDB.
// Conversations are keyed by the pair-derived id, approval flags are
// single-field updates, read sets grow through $addToSet, and the live
// message feed rides change streams.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"whisperchat/internal/domain"
)

// Store holds the collection handles. One Store serves all five store
// contracts, mirroring the memory implementation.
type Store struct {
	db            *mongo.Database
	conversations *mongo.Collection
	directory     *mongo.Collection
	messages      *mongo.Collection
	counters      *mongo.Collection
	accounts      *mongo.Collection
	friends       *mongo.Collection
	requests      *mongo.Collection
}

// Connect dials uri, pings the deployment and returns a Store over the named
// database with its indexes ensured.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := New(client.Database(dbName))
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle. Callers are responsible for
// indexes; Connect is the usual entry point.
func New(db *mongo.Database) *Store {
	return &Store{
		db:            db,
		conversations: db.Collection("conversations"),
		directory:     db.Collection("directory"),
		messages:      db.Collection("messages"),
		counters:      db.Collection("counters"),
		accounts:      db.Collection("accounts"),
		friends:       db.Collection("friends"),
		requests:      db.Collection("friendRequests"),
	}
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	_, err := s.accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return fmt.Errorf("ensure account indexes: %w", err)
	}

	_, err = s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "convId", Value: 1}, {Key: "timestamp", Value: 1}, {Key: "seq", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("ensure message indexes: %w", err)
	}

	_, err = s.friends.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "uid", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return fmt.Errorf("ensure friend indexes: %w", err)
	}

	_, err = s.requests.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "from", Value: 1}, {Key: "to", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return fmt.Errorf("ensure request indexes: %w", err)
	}
	return nil
}

// ---------- ConversationStore ----------

func (s *Store) CreateIfAbsent(ctx context.Context, conv domain.Conversation) (domain.Conversation, bool, error) {
	conv.CreatedAt = time.Now().UTC()
	_, err := s.conversations.InsertOne(ctx, conv)
	if err == nil {
		return conv, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return domain.Conversation{}, false, fmt.Errorf("insert conversation: %w", err)
	}
	// Lost the race (or a repeat request): the pair id already has a document.
	existing, err := s.GetConversation(ctx, conv.ID)
	if err != nil {
		return domain.Conversation{}, false, err
	}
	return existing, false, nil
}

func (s *Store) GetConversation(ctx context.Context, id domain.ConversationID) (domain.Conversation, error) {
	var conv domain.Conversation
	err := s.conversations.FindOne(ctx, bson.M{"_id": id}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Conversation{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

func (s *Store) ListByParticipant(ctx context.Context, uid domain.UID) ([]domain.Conversation, error) {
	cur, err := s.conversations.Find(ctx,
		bson.M{"participants": uid},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	var out []domain.Conversation
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return out, nil
}

func (s *Store) SetApproved(ctx context.Context, id domain.ConversationID, uid domain.UID) error {
	// Single-field update: other participants' flags are never touched.
	res, err := s.conversations.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"approved." + uid.String(): true},
	})
	if err != nil {
		return fmt.Errorf("set approved: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ---------- DirectoryStore ----------

func (s *Store) PutEntry(ctx context.Context, entry domain.DirectoryEntry) error {
	_, err := s.directory.ReplaceOne(ctx,
		bson.M{"_id": entry.UID},
		entry,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("put directory entry: %w", err)
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, uid domain.UID) (domain.DirectoryEntry, error) {
	var entry domain.DirectoryEntry
	err := s.directory.FindOne(ctx, bson.M{"_id": uid}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.DirectoryEntry{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.DirectoryEntry{}, fmt.Errorf("get directory entry: %w", err)
	}
	return entry, nil
}

func (s *Store) GetEntries(ctx context.Context, uids []domain.UID) (map[domain.UID]domain.DirectoryEntry, error) {
	cur, err := s.directory.Find(ctx, bson.M{"_id": bson.M{"$in": uids}})
	if err != nil {
		return nil, fmt.Errorf("get directory entries: %w", err)
	}
	var entries []domain.DirectoryEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("get directory entries: %w", err)
	}
	out := make(map[domain.UID]domain.DirectoryEntry, len(entries))
	for _, e := range entries {
		out[e.UID] = e
	}
	return out, nil
}

// ---------- MessageStore ----------

func (s *Store) Append(ctx context.Context, msg domain.Message) (domain.Message, error) {
	seq, err := s.nextSeq(ctx)
	if err != nil {
		return domain.Message{}, err
	}
	msg.Seq = seq
	msg.Timestamp = time.Now().UTC()

	if _, err := s.messages.InsertOne(ctx, msg); err != nil {
		return domain.Message{}, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

// nextSeq hands out a monotonically increasing arrival number through an
// atomic counter document.
func (s *Store) nextSeq(ctx context.Context) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "messages"},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	return doc.Seq, nil
}

func (s *Store) ListMessages(ctx context.Context, id domain.ConversationID) ([]domain.Message, error) {
	cur, err := s.messages.Find(ctx,
		bson.M{"convId": id},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "seq", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	var out []domain.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}

func (s *Store) MarkRead(ctx context.Context, id domain.ConversationID, msg domain.MessageID, uid domain.UID) error {
	// $addToSet keeps the read set a union under concurrent markers.
	res, err := s.messages.UpdateOne(ctx,
		bson.M{"_id": msg, "convId": id},
		bson.M{"$addToSet": bson.M{"readBy": uid}},
	)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Watch replays history ordered by (timestamp, seq), then follows the
// conversation's change stream. Updates (read-set growth) re-emit the full
// document. The change stream is opened before the replay so nothing lands
// in the gap; duplicates are filtered by seq and read-set size.
func (s *Store) Watch(ctx context.Context, id domain.ConversationID) (<-chan domain.MessageEvent, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType":       bson.M{"$in": bson.A{"insert", "update", "replace"}},
			"fullDocument.convId": id,
		}}},
	}
	stream, err := s.messages.Watch(ctx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup),
	)
	if err != nil {
		return nil, fmt.Errorf("watch messages: %w", err)
	}

	out := make(chan domain.MessageEvent)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		emitted := make(map[domain.MessageID]int) // message id -> readBy size last sent

		emit := func(m domain.Message) bool {
			if last, ok := emitted[m.ID]; ok && len(m.ReadBy) <= last {
				return true
			}
			select {
			case out <- domain.MessageEvent{Message: m}:
				emitted[m.ID] = len(m.ReadBy)
				return true
			case <-ctx.Done():
				return false
			}
		}

		history, err := s.ListMessages(ctx, id)
		if err != nil {
			select {
			case out <- domain.MessageEvent{Err: err}:
			case <-ctx.Done():
			}
			return
		}
		for _, m := range history {
			if !emit(m) {
				return
			}
		}

		for stream.Next(ctx) {
			var change struct {
				FullDocument domain.Message `bson:"fullDocument"`
			}
			if err := stream.Decode(&change); err != nil {
				select {
				case out <- domain.MessageEvent{Err: fmt.Errorf("decode change: %w", err)}:
				case <-ctx.Done():
				}
				return
			}
			if !emit(change.FullDocument) {
				return
			}
		}
		if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
			select {
			case out <- domain.MessageEvent{Err: fmt.Errorf("change stream: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

// ---------- AccountStore ----------

func (s *Store) CreateAccount(ctx context.Context, acct domain.Account) error {
	_, err := s.accounts.InsertOne(ctx, acct)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, uid domain.UID) (domain.Account, error) {
	var acct domain.Account
	err := s.accounts.FindOne(ctx, bson.M{"_id": uid}).Decode(&acct)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Account{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("get account: %w", err)
	}
	return acct, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	var acct domain.Account
	err := s.accounts.FindOne(ctx, bson.M{"email": email}).Decode(&acct)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Account{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("get account by email: %w", err)
	}
	return acct, nil
}

// ---------- FriendStore ----------

func (s *Store) UpsertFriend(ctx context.Context, f domain.Friend) error {
	_, err := s.friends.ReplaceOne(ctx,
		bson.M{"owner": f.Owner, "uid": f.UID},
		f,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert friend: %w", err)
	}
	return nil
}

func (s *Store) ListFriends(ctx context.Context, owner domain.UID) ([]domain.Friend, error) {
	cur, err := s.friends.Find(ctx,
		bson.M{"owner": owner},
		options.Find().SetSort(bson.D{{Key: "addedAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	var out []domain.Friend
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return out, nil
}

func (s *Store) PutRequest(ctx context.Context, r domain.FriendRequest) error {
	_, err := s.requests.ReplaceOne(ctx,
		bson.M{"from": r.From, "to": r.To},
		r,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("put friend request: %w", err)
	}
	return nil
}

func (s *Store) GetRequest(ctx context.Context, from, to domain.UID) (domain.FriendRequest, error) {
	var r domain.FriendRequest
	err := s.requests.FindOne(ctx, bson.M{"from": from, "to": to}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.FriendRequest{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.FriendRequest{}, fmt.Errorf("get friend request: %w", err)
	}
	return r, nil
}

func (s *Store) DeleteRequest(ctx context.Context, from, to domain.UID) error {
	_, err := s.requests.DeleteOne(ctx, bson.M{"from": from, "to": to})
	if err != nil {
		return fmt.Errorf("delete friend request: %w", err)
	}
	return nil
}

func (s *Store) ListRequests(ctx context.Context, to domain.UID) ([]domain.FriendRequest, error) {
	cur, err := s.requests.Find(ctx,
		bson.M{"to": to},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	var out []domain.FriendRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list friend requests: %w", err)
	}
	return out, nil
}

var (
	_ domain.ConversationStore = (*Store)(nil)
	_ domain.DirectoryStore    = (*Store)(nil)
	_ domain.MessageStore      = (*Store)(nil)
	_ domain.AccountStore      = (*Store)(nil)
	_ domain.FriendStore       = (*Store)(nil)
)
