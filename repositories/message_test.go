package repositories

import (
	"context"
	"log/slog"
	"messages-service/domain"
	"messages-service/storage"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

type clock struct {
	at time.Time
}

func (c *clock) now() time.Time {
	return c.at
}

func newBadgerRepository(t *testing.T, c *clock) *MessageRepository {
	t.Helper()
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store, err := storage.NewBadgerStore(db, log, 10, 3)
	req.NoError(err)
	t.Cleanup(func() {
		_ = store.Close()
		_ = db.Close()
	})
	return NewMessageRepository(store, log, WithClock(c.now))
}

func create(t *testing.T, repository *MessageRepository, author, recipient string, at time.Time) domain.Message {
	t.Helper()
	created, ok, err := repository.Create(context.Background(), &domain.Message{
		Author:     author,
		Recipient:  recipient,
		Content:    author + " to " + recipient,
		CreateDate: at,
	})
	require.NoError(t, err)
	require.True(t, ok)
	return created
}

func Test_Create_Then_Read_Returns_Same_Message(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	c := &clock{at: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	repository := newBadgerRepository(t, c)

	created := create(t, repository, "alice@example.com", "bob@example.com", c.at)
	req.NotZero(created.ID)
	req.False(created.Read)
	req.Nil(created.ReadDate)

	fetched, ok, err := repository.Read(ctx, created.ID)
	req.NoError(err)
	req.True(ok)
	req.Equal(created, fetched)
}

func Test_Create_Rejects_Nil(t *testing.T) {
	req := require.New(t)
	repository := newBadgerRepository(t, &clock{at: time.Now().UTC()})

	_, ok, err := repository.Create(context.Background(), nil)
	req.NoError(err)
	req.False(ok)

	count, err := repository.Count(context.Background())
	req.NoError(err)
	req.Zero(count)
}

func Test_Create_Ignores_Caller_Read_State_And_Defaults_Create_Date(t *testing.T) {
	req := require.New(t)
	c := &clock{at: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	repository := newBadgerRepository(t, c)

	created, ok, err := repository.Create(context.Background(), &domain.Message{
		ID:        1000,
		Author:    "alice@example.com",
		Recipient: "bob@example.com",
		Content:   "hi",
		Read:      true,
		ReadDate:  lo.ToPtr(c.at),
		Edited:    true,
	})
	req.NoError(err)
	req.True(ok)
	req.Equal(domain.MessageID(1), created.ID)
	req.Equal(c.at, created.CreateDate)
	req.False(created.Read)
	req.Nil(created.ReadDate)
	req.False(created.Edited)
}

func Test_Create_Rejects_Create_Date_Out_Of_Storable_Range(t *testing.T) {
	req := require.New(t)
	repository := newBadgerRepository(t, &clock{at: time.Now().UTC()})

	for _, at := range []time.Time{
		time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC),
	} {
		_, ok, err := repository.Create(context.Background(), &domain.Message{
			Author:     "alice@example.com",
			Recipient:  "bob@example.com",
			Content:    "from far away",
			CreateDate: at,
		})
		req.NoError(err)
		req.False(ok)
	}

	count, err := repository.Count(context.Background())
	req.NoError(err)
	req.Zero(count)

	edge := storage.MaxDate.Add(-time.Second)
	created := create(t, repository, "alice@example.com", "bob@example.com", edge)
	read, ok, err := repository.Read(context.Background(), created.ID)
	req.NoError(err)
	req.True(ok)
	req.Equal(edge, read.CreateDate)
}

func Test_Read_Unknown_ID(t *testing.T) {
	req := require.New(t)
	repository := newBadgerRepository(t, &clock{at: time.Now().UTC()})

	_, ok, err := repository.Read(context.Background(), 404)
	req.NoError(err)
	req.False(ok)
}

func Test_Update_Only_Changes_Content(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	c := &clock{at: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	repository := newBadgerRepository(t, c)
	created := create(t, repository, "alice@example.com", "bob@example.com", c.at)
	ok, err := repository.MarkAsRead(ctx, []domain.MessageID{created.ID})
	req.NoError(err)
	req.True(ok)
	before, _, err := repository.Read(ctx, created.ID)
	req.NoError(err)

	c.at = c.at.Add(time.Hour)
	ok, err = repository.Update(ctx, &domain.MessageUpdate{ID: created.ID, Content: "edited"})
	req.NoError(err)
	req.True(ok)

	after, _, err := repository.Read(ctx, created.ID)
	req.NoError(err)
	req.Equal("edited", after.Content)
	req.True(after.Edited)
	req.Equal(c.at, *after.EditDate)
	req.Equal(before.Author, after.Author)
	req.Equal(before.Recipient, after.Recipient)
	req.Equal(before.CreateDate, after.CreateDate)
	req.Equal(before.Read, after.Read)
	req.Equal(before.ReadDate, after.ReadDate)
}

func Test_Update_Rejects_Nil_And_Unknown(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := newBadgerRepository(t, &clock{at: time.Now().UTC()})

	ok, err := repository.Update(ctx, nil)
	req.NoError(err)
	req.False(ok)

	ok, err = repository.Update(ctx, &domain.MessageUpdate{ID: 12, Content: "ghost"})
	req.NoError(err)
	req.False(ok)
}

func Test_Delete(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	c := &clock{at: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	repository := newBadgerRepository(t, c)
	created := create(t, repository, "alice@example.com", "bob@example.com", c.at)

	ok, err := repository.Delete(ctx, created.ID)
	req.NoError(err)
	req.True(ok)

	ok, err = repository.Delete(ctx, created.ID)
	req.NoError(err)
	req.False(ok)

	_, found, err := repository.Read(ctx, created.ID)
	req.NoError(err)
	req.False(found)
}

func Test_Count(t *testing.T) {
	req := require.New(t)
	c := &clock{at: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	repository := newBadgerRepository(t, c)
	create(t, repository, "alice@example.com", "bob@example.com", c.at)
	create(t, repository, "bob@example.com", "alice@example.com", c.at)

	count, err := repository.Count(context.Background())
	req.NoError(err)
	req.Equal(int64(2), count)
}
