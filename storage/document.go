package storage

import (
	"fmt"
	"math"
	"messages-service/domain"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
)

// Bounds of a date held as int64 unix nanoseconds.
var (
	MinDate = time.Unix(0, math.MinInt64).UTC()
	MaxDate = time.Unix(0, math.MaxInt64).UTC()
)

// IsStorableDate reports whether t survives the nanosecond encoding unchanged.
func IsStorableDate(t time.Time) bool {
	return !t.Before(MinDate) && !t.After(MaxDate)
}

// messageDocument is the persisted shape of a message, shared by every backend.
// Dates are UTC unix nanoseconds.
type messageDocument struct {
	ID         int64  `bson:"_id"`
	Author     string `bson:"author"`
	Recipient  string `bson:"recipient"`
	Content    string `bson:"content"`
	CreateDate int64  `bson:"createDate"`
	EditDate   *int64 `bson:"editDate,omitempty"`
	Edited     bool   `bson:"edited"`
	ReadDate   *int64 `bson:"readDate,omitempty"`
	Read       bool   `bson:"read"`
}

func fromMessage(message domain.Message) messageDocument {
	return messageDocument{
		ID:         int64(message.ID),
		Author:     message.Author,
		Recipient:  message.Recipient,
		Content:    message.Content,
		CreateDate: message.CreateDate.UnixNano(),
		EditDate:   toNanos(message.EditDate),
		Edited:     message.Edited,
		ReadDate:   toNanos(message.ReadDate),
		Read:       message.Read,
	}
}

func toMessage(doc messageDocument) domain.Message {
	return domain.Message{
		ID:         domain.MessageID(doc.ID),
		Author:     doc.Author,
		Recipient:  doc.Recipient,
		Content:    doc.Content,
		CreateDate: time.Unix(0, doc.CreateDate).UTC(),
		EditDate:   fromNanos(doc.EditDate),
		Edited:     doc.Edited,
		ReadDate:   fromNanos(doc.ReadDate),
		Read:       doc.Read,
	}
}

// EncodeMessage serializes a message the way it is written on disk.
func EncodeMessage(message domain.Message) ([]byte, error) {
	bytes, err := bson.Marshal(fromMessage(message))
	if err != nil {
		return nil, fmt.Errorf("marshal message %d: %w", message.ID, err)
	}
	return bytes, nil
}

// DecodeMessage is the inverse of EncodeMessage.
func DecodeMessage(bytes []byte) (domain.Message, error) {
	var doc messageDocument
	if err := bson.Unmarshal(bytes, &doc); err != nil {
		return domain.Message{}, fmt.Errorf("unmarshal message: %w", err)
	}
	return toMessage(doc), nil
}

func toNanos(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	return lo.ToPtr(t.UnixNano())
}

func fromNanos(n *int64) *time.Time {
	if n == nil {
		return nil
	}
	return lo.ToPtr(time.Unix(0, *n).UTC())
}
