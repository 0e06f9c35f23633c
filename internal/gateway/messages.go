package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"PharmaBot/internal/models"
)

// AppendMessage добавляет запись в журнал переписки пациента.
func (c *Client) AppendMessage(ctx context.Context, m models.ChatMessage) error {
	return c.do(ctx, request{
		op:     "messages.create",
		method: http.MethodPost,
		path:   "/messages/",
		body:   m,
	})
}

func (c *Client) Transcript(ctx context.Context, patientID int64) ([]models.ChatMessage, error) {
	q := url.Values{}
	q.Set("patient_id", strconv.FormatInt(patientID, 10))
	var out []models.ChatMessage
	err := c.do(ctx, request{
		op:     "messages.list",
		method: http.MethodGet,
		path:   "/messages/",
		query:  q,
		out:    &out,
	})
	return out, err
}
