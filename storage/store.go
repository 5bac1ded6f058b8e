//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_message_store.go -package=mocks
package storage

import (
	"context"
	"messages-service/domain"
)

// IMessageStore runs units of work against the durable message storage.
// Every mutation done through the ITx passed to fn is applied entirely or not at all.
type IMessageStore interface {
	Atomically(ctx context.Context, fn func(tx ITx) error) error
	Close() error
}

// ITx exposes the storage primitives available inside a unit of work.
type ITx interface {
	// Insert assigns a fresh ID and persists the message.
	Insert(message domain.Message) (domain.Message, error)
	// Get returns ErrMessageNotFound when the id is unknown.
	Get(id domain.MessageID) (domain.Message, error)
	// FindByParticipant returns every message authored by or sent to email, by ascending id.
	FindByParticipant(email string) ([]domain.Message, error)
	// FindByIDs returns the existing messages among ids, by ascending id. Unknown ids are skipped.
	FindByIDs(ids []domain.MessageID) ([]domain.Message, error)
	// Save overwrites an existing message.
	Save(message domain.Message) error
	Delete(id domain.MessageID) error
	Count() (int64, error)
}
