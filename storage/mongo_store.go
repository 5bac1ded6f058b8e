package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"messages-service/domain"
	msgerrors "messages-service/errors"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const messageCounterID = "messages"

// MongoStore keeps messages in a "messages" collection and draws ids from a "counters" collection.
// Transactions need a replica set.
type MongoStore struct {
	client   *mongo.Client
	messages *mongo.Collection
	counters *mongo.Collection
	log      *slog.Logger
}

type counterDocument struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

func NewMongoStore(ctx context.Context, uri, database string, log *slog.Logger) (*MongoStore, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err = client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	store := &MongoStore{
		client:   client,
		messages: db.Collection("messages"),
		counters: db.Collection("counters"),
		log:      log,
	}
	if err = store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	log.Info("Connected to MongoDB", "database", database)
	return store, nil
}

func (m *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := m.messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author", Value: 1}}},
		{Keys: bson.D{{Key: "recipient", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}
	return nil
}

// Atomically runs fn inside a multi-document transaction.
// The driver replays fn on transient transaction errors.
func (m *MongoStore) Atomically(ctx context.Context, fn func(tx ITx) error) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(&mongoTx{ctx: sessCtx, store: m})
	})
	return err
}

func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

type mongoTx struct {
	ctx   context.Context
	store *MongoStore
}

func (t *mongoTx) nextID() (domain.MessageID, error) {
	var counter counterDocument
	err := t.store.counters.FindOneAndUpdate(
		t.ctx,
		bson.M{"_id": messageCounterID},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to increment message counter: %w", err)
	}
	return domain.MessageID(counter.Seq), nil
}

func (t *mongoTx) Insert(message domain.Message) (domain.Message, error) {
	id, err := t.nextID()
	if err != nil {
		return domain.Message{}, err
	}
	message.ID = id
	doc := fromMessage(message)
	if _, err = t.store.messages.InsertOne(t.ctx, doc); err != nil {
		return domain.Message{}, fmt.Errorf("failed to save message: %w", err)
	}
	return toMessage(doc), nil
}

func (t *mongoTx) Get(id domain.MessageID) (domain.Message, error) {
	var doc messageDocument
	err := t.store.messages.FindOne(t.ctx, bson.M{"_id": int64(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Message{}, fmt.Errorf("%w: %d", msgerrors.ErrMessageNotFound, id)
	}
	if err != nil {
		return domain.Message{}, fmt.Errorf("failed to get message: %w", err)
	}
	return toMessage(doc), nil
}

func (t *mongoTx) FindByParticipant(email string) ([]domain.Message, error) {
	return t.find(participantFilter(email))
}

func (t *mongoTx) FindByIDs(ids []domain.MessageID) ([]domain.Message, error) {
	return t.find(idsFilter(ids))
}

func (t *mongoTx) find(filter bson.M) ([]domain.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := t.store.messages.Find(t.ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	var docs []messageDocument
	if err = cursor.All(t.ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return lo.Map(docs, func(doc messageDocument, _ int) domain.Message {
		return toMessage(doc)
	}), nil
}

func (t *mongoTx) Save(message domain.Message) error {
	result, err := t.store.messages.ReplaceOne(t.ctx, bson.M{"_id": int64(message.ID)}, fromMessage(message))
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %d", msgerrors.ErrMessageNotFound, message.ID)
	}
	return nil
}

func (t *mongoTx) Delete(id domain.MessageID) error {
	result, err := t.store.messages.DeleteOne(t.ctx, bson.M{"_id": int64(id)})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %d", msgerrors.ErrMessageNotFound, id)
	}
	return nil
}

func (t *mongoTx) Count() (int64, error) {
	count, err := t.store.messages.CountDocuments(t.ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

func participantFilter(email string) bson.M {
	return bson.M{
		"$or": []bson.M{
			{"author": email},
			{"recipient": email},
		},
	}
}

func idsFilter(ids []domain.MessageID) bson.M {
	return bson.M{
		"_id": bson.M{"$in": lo.Map(lo.Uniq(ids), func(id domain.MessageID, _ int) int64 {
			return int64(id)
		})},
	}
}
