package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"messages-service/domain"
	msgerrors "messages-service/errors"
	"slices"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

const (
	MessagePrefix     = "msg:"
	ParticipantPrefix = "idx:participant:"
	sequenceKey       = "seq:message"
	idWidth           = 20
)

// BadgerStore keeps messages under "msg:{id}" and indexes both parties under
// "idx:participant:{email}:{id}". The id is zero padded so keys sort by id.
type BadgerStore struct {
	db      *badger.DB
	seq     *badger.Sequence
	log     *slog.Logger
	retries int
}

// NewBadgerStore leases ids from a badger sequence by blocks of bandwidth.
// A leased block is never handed out twice, even after a crash, so ids are never reused.
func NewBadgerStore(db *badger.DB, log *slog.Logger, bandwidth uint64, retries int) (*BadgerStore, error) {
	seq, err := db.GetSequence([]byte(sequenceKey), bandwidth)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq, log: log, retries: retries}, nil
}

// Atomically runs fn in a read-write transaction.
// Badger detects conflicting concurrent transactions at commit, in which case fn is replayed.
func (b *BadgerStore) Atomically(ctx context.Context, fn func(tx ITx) error) error {
	for attempt := 0; attempt <= b.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := b.db.Update(func(txn *badger.Txn) error {
			return fn(&badgerTx{txn: txn, seq: b.seq})
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		b.log.Debug("Transaction conflict", "attempt", attempt+1)
	}
	return msgerrors.ErrTooManyConflicts
}

// Close releases the unused part of the leased sequence. The db stays open, it is owned by the caller.
func (b *BadgerStore) Close() error {
	return b.seq.Release()
}

type badgerTx struct {
	txn *badger.Txn
	seq *badger.Sequence
}

func (t *badgerTx) Insert(message domain.Message) (domain.Message, error) {
	// Sequences start at 0, ids start at 1.
	n, err := t.seq.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("next message id: %w", err)
	}
	message.ID = domain.MessageID(n + 1)
	if err = t.write(message); err != nil {
		return domain.Message{}, err
	}
	for _, email := range participants(message) {
		if err = t.txn.Set(participantKey(email, message.ID), []byte{}); err != nil {
			return domain.Message{}, err
		}
	}
	return toMessage(fromMessage(message)), nil
}

func (t *badgerTx) Get(id domain.MessageID) (domain.Message, error) {
	item, err := t.txn.Get(messageKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, fmt.Errorf("%w: %d", msgerrors.ErrMessageNotFound, id)
	}
	if err != nil {
		return domain.Message{}, err
	}
	var message domain.Message
	err = item.Value(func(val []byte) error {
		message, err = DecodeMessage(val)
		return err
	})
	return message, err
}

// FindByParticipant scans the participant index then loads each message.
func (t *badgerTx) FindByParticipant(email string) ([]domain.Message, error) {
	prefix := []byte(ParticipantPrefix + email + ":")
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	it := t.txn.NewIterator(options)

	var ids []domain.MessageID
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		suffix := it.Item().KeyCopy(nil)[len(prefix):]
		// Longer suffixes belong to an email that extends this one past a ':'.
		if len(suffix) != idWidth {
			continue
		}
		id, err := parseID(suffix)
		if err != nil {
			it.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	it.Close()

	messages := make([]domain.Message, 0, len(ids))
	for _, id := range ids {
		message, err := t.Get(id)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func (t *badgerTx) FindByIDs(ids []domain.MessageID) ([]domain.Message, error) {
	var messages []domain.Message
	for _, id := range sortedIDs(ids) {
		message, err := t.Get(id)
		if errors.Is(err, msgerrors.ErrMessageNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// Save rewrites the document. Author and recipient never change so the index is left alone.
func (t *badgerTx) Save(message domain.Message) error {
	if _, err := t.txn.Get(messageKey(message.ID)); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %d", msgerrors.ErrMessageNotFound, message.ID)
		}
		return err
	}
	return t.write(message)
}

func (t *badgerTx) Delete(id domain.MessageID) error {
	message, err := t.Get(id)
	if err != nil {
		return err
	}
	if err = t.txn.Delete(messageKey(id)); err != nil {
		return err
	}
	for _, email := range participants(message) {
		if err = t.txn.Delete(participantKey(email, id)); err != nil {
			return err
		}
	}
	return nil
}

func (t *badgerTx) Count() (int64, error) {
	prefix := []byte(MessagePrefix)
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	it := t.txn.NewIterator(options)
	defer it.Close()

	var count int64
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		count++
	}
	return count, nil
}

func (t *badgerTx) write(message domain.Message) error {
	bytes, err := EncodeMessage(message)
	if err != nil {
		return err
	}
	return t.txn.Set(messageKey(message.ID), bytes)
}

func messageKey(id domain.MessageID) []byte {
	return []byte(fmt.Sprintf("%s%0*d", MessagePrefix, idWidth, id))
}

func participantKey(email string, id domain.MessageID) []byte {
	return []byte(fmt.Sprintf("%s%s:%0*d", ParticipantPrefix, email, idWidth, id))
}

func parseID(raw []byte) (domain.MessageID, error) {
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed message key %q: %w", raw, err)
	}
	return domain.MessageID(n), nil
}

// participants is deduplicated so a message sent to oneself gets a single index entry.
func participants(message domain.Message) []string {
	return lo.Uniq([]string{message.Author, message.Recipient})
}

func sortedIDs(ids []domain.MessageID) []domain.MessageID {
	unique := lo.Uniq(ids)
	slices.Sort(unique)
	return unique
}
