package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"messages-service/domain"
	"time"
)

// createRequest is the body of a create call. Read and edit state are not accepted.
type createRequest struct {
	Author     string   `json:"author"`
	Recipient  string   `json:"recipient"`
	Content    string   `json:"content"`
	CreateDate jsonDate `json:"createDate"`
}

func (r createRequest) toMessage() *domain.Message {
	return &domain.Message{
		Author:     r.Author,
		Recipient:  r.Recipient,
		Content:    r.Content,
		CreateDate: time.Time(r.CreateDate),
	}
}

// jsonDate reads either an RFC 3339 string or epoch milliseconds.
type jsonDate time.Time

func (d *jsonDate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var millis int64
	if err := json.Unmarshal(data, &millis); err == nil {
		*d = jsonDate(time.UnixMilli(millis).UTC())
		return nil
	}
	var t time.Time
	if err := t.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("createDate must be RFC 3339 or epoch milliseconds: %w", err)
	}
	*d = jsonDate(t)
	return nil
}
