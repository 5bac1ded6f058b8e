package internal

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"messages-service/storage"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

const maxDetailLength = 60

type InspectRow struct {
	Key       string
	Type      string
	ID        string
	Author    string
	Recipient string
	Created   string
	Read      string
	Detail    string
}

type RowMapper func(key string, val []byte) InspectRow

type PageData struct {
	Prefix string
	Items  []InspectRow
	Count  int
}

// NewInspectHandler lists every key under the "prefix" query parameter (messages by default).
func NewInspectHandler(db *badger.DB, mapper RowMapper) http.Handler {
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))
	if mapper == nil {
		mapper = MessageMapper
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = storage.MessagePrefix
		}
		data := PageData{Prefix: prefix}

		err := db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				key := string(item.KeyCopy(nil))
				if err := item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(key, val))
					return nil
				}); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		data.Count = len(data.Items)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})
}

// StartDebugServer serves the inspect page in the background. The caller shuts the returned server down.
func StartDebugServer(db *badger.DB, port int, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/inspect", NewInspectHandler(db, nil))
	server := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Debug server started", "url", fmt.Sprintf("http://localhost:%d/inspect", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Debug server stopped", "error", err)
		}
	}()
	return server
}

// MessageMapper decodes message documents. Index entries and undecodable values fall back to DefaultMapper.
func MessageMapper(key string, val []byte) InspectRow {
	if !strings.HasPrefix(key, storage.MessagePrefix) {
		return DefaultMapper(key, val)
	}
	message, err := storage.DecodeMessage(val)
	if err != nil {
		return DefaultMapper(key, val)
	}
	row := InspectRow{
		Key:       key,
		Type:      "MESSAGE",
		ID:        strconv.FormatUint(uint64(message.ID), 10),
		Author:    message.Author,
		Recipient: message.Recipient,
		Created:   message.CreateDate.Format(time.RFC3339),
		Read:      "-",
		Detail:    truncate(message.Content),
	}
	if message.ReadDate != nil {
		row.Read = message.ReadDate.Format(time.RFC3339)
	}
	return row
}

func DefaultMapper(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:    key,
		Type:   "RAW",
		ID:     "-",
		Read:   "-",
		Detail: "Size: " + strconv.Itoa(len(val)) + " bytes",
	}
	// idx:participant:{email}:{id}
	if strings.HasPrefix(key, storage.ParticipantPrefix) {
		rest := strings.TrimPrefix(key, storage.ParticipantPrefix)
		if i := strings.LastIndex(rest, ":"); i > 0 {
			row.Type = "INDEX"
			row.Author = rest[:i]
			row.ID = strings.TrimLeft(rest[i+1:], "0")
		}
	}
	return row
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxDetailLength {
		return s
	}
	return string(r[:maxDetailLength]) + "…"
}
