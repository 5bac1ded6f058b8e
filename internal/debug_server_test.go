package internal

import (
	"context"
	"log/slog"
	"messages-service/domain"
	"messages-service/storage"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestMessageMapper(t *testing.T) {
	req := require.New(t)
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	val, err := storage.EncodeMessage(domain.Message{
		ID:         5,
		Author:     "a@example.com",
		Recipient:  "b@example.com",
		Content:    "hello",
		CreateDate: at,
	})
	req.NoError(err)

	row := MessageMapper("msg:00000000000000000005", val)

	req.Equal("MESSAGE", row.Type)
	req.Equal("5", row.ID)
	req.Equal("a@example.com", row.Author)
	req.Equal("2024-05-01T09:00:00Z", row.Created)
	req.Equal("-", row.Read)
	req.Equal("hello", row.Detail)
}

func TestDefaultMapper_Index_Entry(t *testing.T) {
	req := require.New(t)

	row := DefaultMapper("idx:participant:a@example.com:00000000000000000012", nil)

	req.Equal("INDEX", row.Type)
	req.Equal("a@example.com", row.Author)
	req.Equal("12", row.ID)
}

func TestInspectHandler_Lists_Messages(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()
	store, err := storage.NewBadgerStore(db, logs.GetLoggerFromLevel(slog.LevelDebug), 10, 0)
	req.NoError(err)
	defer store.Close()
	err = store.Atomically(context.Background(), func(tx storage.ITx) error {
		_, err := tx.Insert(domain.Message{Author: "a@example.com", Recipient: "b@example.com", Content: "ping"})
		return err
	})
	req.NoError(err)

	recorder := httptest.NewRecorder()
	NewInspectHandler(db, nil).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/inspect", nil))

	req.Equal(http.StatusOK, recorder.Code)
	req.Contains(recorder.Body.String(), "1 key(s)")
	req.Contains(recorder.Body.String(), "ping")
	req.Contains(recorder.Body.String(), "b@example.com")
}
