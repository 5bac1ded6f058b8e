package storage

import (
	"context"
	"log/slog"
	"messages-service/domain"
	msgerrors "messages-service/errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type mongoTestConfig struct {
	// MONGO_TEST_URI must point to a replica set, transactions are refused by standalone servers.
	URI string `envconfig:"MONGO_TEST_URI"`
}

func Test_Filters(t *testing.T) {
	req := require.New(t)

	req.Equal(bson.M{"$or": []bson.M{
		{"author": "alice@example.com"},
		{"recipient": "alice@example.com"},
	}}, participantFilter("alice@example.com"))

	req.Equal(bson.M{"_id": bson.M{"$in": []int64{3, 1}}}, idsFilter([]domain.MessageID{3, 1, 3}))
}

func Test_MongoStore_Round_Trip(t *testing.T) {
	var cfg mongoTestConfig
	require.NoError(t, envconfig.Process("", &cfg))
	if cfg.URI == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	req := require.New(t)
	ctx := context.Background()
	database := "messages_test_" + uuid.NewString()[:8]

	store, err := NewMongoStore(ctx, cfg.URI, database, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)
	t.Cleanup(func() {
		_ = store.client.Database(database).Drop(context.Background())
		_ = store.Close()
	})

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var first, second domain.Message
	err = store.Atomically(ctx, func(tx ITx) error {
		var err error
		if first, err = tx.Insert(domain.Message{Author: "alice@example.com", Recipient: "bob@example.com", CreateDate: at}); err != nil {
			return err
		}
		second, err = tx.Insert(domain.Message{Author: "bob@example.com", Recipient: "clara@example.com", CreateDate: at})
		return err
	})
	req.NoError(err)
	req.Greater(second.ID, first.ID)

	err = store.Atomically(ctx, func(tx ITx) error {
		messages, err := tx.FindByParticipant("bob@example.com")
		req.NoError(err)
		req.Equal([]domain.Message{first, second}, messages)

		found, err := tx.FindByIDs([]domain.MessageID{second.ID, 9999})
		req.NoError(err)
		req.Equal([]domain.Message{second}, found)

		count, err := tx.Count()
		req.NoError(err)
		req.Equal(int64(2), count)
		return tx.Delete(first.ID)
	})
	req.NoError(err)

	err = store.Atomically(ctx, func(tx ITx) error {
		_, err := tx.Get(first.ID)
		return err
	})
	req.ErrorIs(err, msgerrors.ErrMessageNotFound)
}
