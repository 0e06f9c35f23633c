package gateway

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"PharmaBot/internal/models"
)

// CreateOrder - POST /orders/. Позиции должны быть отсортированы по drug_id.
func (c *Client) CreateOrder(ctx context.Context, o models.OrderCreate, key string) (*models.Order, error) {
	var out models.Order
	err := c.do(ctx, request{
		op:      "orders.create",
		method:  http.MethodPost,
		path:    "/orders/",
		body:    o,
		idemKey: key,
		out:     &out,
	})
	if err != nil {
		return nil, err
	}
	c.metrics.OrderCreated()
	return &out, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var out models.Order
	err := c.do(ctx, request{
		op:     "orders.get",
		method: http.MethodGet,
		path:   "/orders/" + strconv.FormatInt(orderID, 10),
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PatchOrder меняет позиции и/или статус заказа.
func (c *Client) PatchOrder(ctx context.Context, orderID int64, patch models.OrderPatch) (*models.Order, error) {
	var out models.Order
	err := c.do(ctx, request{
		op:     "orders.patch",
		method: http.MethodPatch,
		path:   "/orders/" + strconv.FormatInt(orderID, 10),
		body:   patch,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListOrders(ctx context.Context, patientID int64, status string) ([]models.Order, error) {
	q := url.Values{}
	q.Set("patient_id", strconv.FormatInt(patientID, 10))
	if status != "" {
		q.Set("status", status)
	}
	var out []models.Order
	err := c.do(ctx, request{
		op:     "orders.list",
		method: http.MethodGet,
		path:   "/orders/",
		query:  q,
		out:    &out,
	})
	return out, err
}

// LatestOrder возвращает самый новый заказ пациента с данным статусом.
// Если заказов нет, возвращается ошибка, для которой IsNotFound == true.
func (c *Client) LatestOrder(ctx context.Context, patientID int64, status string) (*models.Order, error) {
	orders, err := c.ListOrders(ctx, patientID, status)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, &Error{Op: "orders.latest", StatusCode: http.StatusNotFound, Body: "no orders"}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].OrderID > orders[j].OrderID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return &orders[0], nil
}
