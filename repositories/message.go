//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"messages-service/domain"
	msgerrors "messages-service/errors"
	"messages-service/storage"
	"time"
)

// IMessageRepository is the set of operations offered on direct messages.
// Expected failures (nil input, unknown id, invalid email, nothing to do)
// are reported through the bool or an empty result; the error is kept for storage faults.
type IMessageRepository interface {
	Create(ctx context.Context, message *domain.Message) (domain.Message, bool, error)
	Read(ctx context.Context, id domain.MessageID) (domain.Message, bool, error)
	Update(ctx context.Context, update *domain.MessageUpdate) (bool, error)
	Delete(ctx context.Context, id domain.MessageID) (bool, error)
	Count(ctx context.Context) (int64, error)
	GetAllMessagesForUser(ctx context.Context, email string) (map[string][]domain.Message, error)
	DeleteAllMessagesForUser(ctx context.Context, email string) (bool, error)
	MarkAsRead(ctx context.Context, ids []domain.MessageID) (bool, error)
}

// MessageRepository holds no state between calls. Each operation is a single unit of work on the store.
type MessageRepository struct {
	store storage.IMessageStore
	log   *slog.Logger
	now   func() time.Time
}

type Option func(*MessageRepository)

// WithClock replaces time.Now for read and edit dates.
func WithClock(now func() time.Time) Option {
	return func(r *MessageRepository) {
		r.now = now
	}
}

func NewMessageRepository(store storage.IMessageStore, log *slog.Logger, opts ...Option) *MessageRepository {
	r := &MessageRepository{store: store, log: log, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create persists a copy of message with a fresh id.
// The creation date is kept when provided, otherwise it is set to now.
// A date the store cannot represent rejects the message.
// Read and edit state always start empty.
func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) (domain.Message, bool, error) {
	if message == nil {
		r.log.Debug("Rejected nil message")
		return domain.Message{}, false, nil
	}
	toInsert := domain.Message{
		Author:     message.Author,
		Recipient:  message.Recipient,
		Content:    message.Content,
		CreateDate: message.CreateDate.UTC(),
	}
	if toInsert.CreateDate.IsZero() {
		toInsert.CreateDate = r.now().UTC()
	}
	if !storage.IsStorableDate(toInsert.CreateDate) {
		r.log.Debug("Rejected message with out of range create date", "createDate", toInsert.CreateDate)
		return domain.Message{}, false, nil
	}

	var created domain.Message
	err := r.store.Atomically(ctx, func(tx storage.ITx) error {
		var err error
		created, err = tx.Insert(toInsert)
		return err
	})
	if err != nil {
		return domain.Message{}, false, fmt.Errorf("create message: %w", err)
	}
	return created, true, nil
}

func (r *MessageRepository) Read(ctx context.Context, id domain.MessageID) (domain.Message, bool, error) {
	var message domain.Message
	err := r.store.Atomically(ctx, func(tx storage.ITx) error {
		var err error
		message, err = tx.Get(id)
		return err
	})
	if errors.Is(err, msgerrors.ErrMessageNotFound) {
		return domain.Message{}, false, nil
	}
	if err != nil {
		return domain.Message{}, false, fmt.Errorf("read message %d: %w", id, err)
	}
	return message, true, nil
}

// Update changes the content of an existing message and marks it as edited.
func (r *MessageRepository) Update(ctx context.Context, update *domain.MessageUpdate) (bool, error) {
	if update == nil {
		r.log.Debug("Rejected nil message update")
		return false, nil
	}
	err := r.store.Atomically(ctx, func(tx storage.ITx) error {
		message, err := tx.Get(update.ID)
		if err != nil {
			return err
		}
		message.Apply(*update, r.now())
		return tx.Save(message)
	})
	if errors.Is(err, msgerrors.ErrMessageNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("update message %d: %w", update.ID, err)
	}
	return true, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id domain.MessageID) (bool, error) {
	err := r.store.Atomically(ctx, func(tx storage.ITx) error {
		return tx.Delete(id)
	})
	if errors.Is(err, msgerrors.ErrMessageNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete message %d: %w", id, err)
	}
	return true, nil
}

func (r *MessageRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.store.Atomically(ctx, func(tx storage.ITx) error {
		var err error
		count, err = tx.Count()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}
