package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"PharmaBot/internal/models"
)

// CreatePayment - POST /payments/ с ключом идемпотентности из сессии пациента.
func (c *Client) CreatePayment(ctx context.Context, p models.PaymentCreate, key string) (*models.Payment, error) {
	var out models.Payment
	err := c.do(ctx, request{
		op:      "payments.create",
		method:  http.MethodPost,
		path:    "/payments/",
		body:    p,
		idemKey: key,
		out:     &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ReviewPayment - решение кассира (ACCEPTED / REJECTED).
func (c *Client) ReviewPayment(ctx context.Context, paymentID int64, review models.PaymentReview) (*models.Payment, error) {
	var out models.Payment
	err := c.do(ctx, request{
		op:     "payments.review",
		method: http.MethodPatch,
		path:   "/payments/" + strconv.FormatInt(paymentID, 10),
		body:   review,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	c.metrics.PaymentReviewed(review.Status)
	return &out, nil
}

func (c *Client) GetPayment(ctx context.Context, paymentID int64) (*models.Payment, error) {
	var out models.Payment
	err := c.do(ctx, request{
		op:     "payments.get",
		method: http.MethodGet,
		path:   "/payments/" + strconv.FormatInt(paymentID, 10),
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PendingPaymentDates(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, request{
		op:     "payments.pending_dates",
		method: http.MethodGet,
		path:   "/payments/pending-dates",
		out:    &out,
	})
	return out, err
}

func (c *Client) PendingPayments(ctx context.Context, date string) ([]models.Payment, error) {
	q := url.Values{}
	q.Set("date", date)
	var out []models.Payment
	err := c.do(ctx, request{
		op:     "payments.pending",
		method: http.MethodGet,
		path:   "/payments/pending",
		query:  q,
		out:    &out,
	})
	return out, err
}
