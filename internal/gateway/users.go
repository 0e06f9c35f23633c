package gateway

import (
	"context"
	"net/http"
	"strconv"

	"PharmaBot/internal/models"
)

// GetUserByTelegramID - GET /users/by-telegram-id/{tid}. 404 означает пациента.
func (c *Client) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var u models.User
	err := c.do(ctx, request{
		op:     "users.by_telegram_id",
		method: http.MethodGet,
		path:   "/users/by-telegram-id/" + strconv.FormatInt(telegramID, 10),
		out:    &u,
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser - GET /users/{id}.
func (c *Client) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var u models.User
	err := c.do(ctx, request{
		op:     "users.get",
		method: http.MethodGet,
		path:   "/users/" + strconv.FormatInt(userID, 10),
		out:    &u,
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}
