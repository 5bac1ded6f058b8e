package repositories

import (
	"context"
	"fmt"
	"messages-service/domain"
	"messages-service/storage"
	"slices"

	"github.com/samber/lo"
)

// GetAllMessagesForUser groups every message sent or received by email under
// the other party's address. Each conversation is ordered by creation date,
// equal dates keep the store order.
// An invalid email yields an empty map, the same as a user without messages.
func (r *MessageRepository) GetAllMessagesForUser(ctx context.Context, email string) (map[string][]domain.Message, error) {
	if !domain.IsValidEmail(email) {
		r.log.Debug("Invalid email, no conversation returned", "email", email)
		return map[string][]domain.Message{}, nil
	}

	var messages []domain.Message
	err := r.store.Atomically(ctx, func(tx storage.ITx) error {
		var err error
		messages, err = tx.FindByParticipant(email)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("messages for %s: %w", email, err)
	}
	return groupByCorrespondent(email, messages), nil
}

func groupByCorrespondent(email string, messages []domain.Message) map[string][]domain.Message {
	conversations := lo.GroupBy(lo.Filter(messages, func(m domain.Message, _ int) bool {
		return m.Involves(email)
	}), func(m domain.Message) string {
		return m.Correspondent(email)
	})
	for _, conversation := range conversations {
		slices.SortStableFunc(conversation, func(a, b domain.Message) int {
			return a.CreateDate.Compare(b.CreateDate)
		})
	}
	return conversations
}

// DeleteAllMessagesForUser removes every message sent or received by email in one unit of work.
// It reports false when the email is invalid or there was nothing to delete.
func (r *MessageRepository) DeleteAllMessagesForUser(ctx context.Context, email string) (bool, error) {
	if !domain.IsValidEmail(email) {
		r.log.Debug("Invalid email, nothing deleted", "email", email)
		return false, nil
	}

	deleted := 0
	err := r.store.Atomically(ctx, func(tx storage.ITx) error {
		deleted = 0
		messages, err := tx.FindByParticipant(email)
		if err != nil {
			return err
		}
		for _, message := range messages {
			if err = tx.Delete(message.ID); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete messages for %s: %w", email, err)
	}
	if deleted == 0 {
		return false, nil
	}
	r.log.Info("Deleted all messages of user", "email", email, "count", deleted)
	return true, nil
}

// MarkAsRead flags the found messages as read in one unit of work. Unknown ids are ignored.
// Messages already read keep their read date but are saved again.
// It reports true as soon as one message was found, whether or not anything changed.
func (r *MessageRepository) MarkAsRead(ctx context.Context, ids []domain.MessageID) (bool, error) {
	if len(ids) == 0 {
		return false, nil
	}

	found := 0
	err := r.store.Atomically(ctx, func(tx storage.ITx) error {
		messages, err := tx.FindByIDs(lo.Uniq(ids))
		if err != nil {
			return err
		}
		found = len(messages)
		now := r.now()
		for _, message := range messages {
			message.MarkRead(now)
			if err = tx.Save(message); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("mark messages as read: %w", err)
	}
	return found > 0, nil
}
