package backend

import (
	"context"
	"net/http"
	"net/url"
)

// DailyOrderForPerson returns today's order of the person encoded in a scanned QR code.
func (c *Client) DailyOrderForPerson(ctx context.Context, creds Credentials, personID string) (DailyOrder, error) {
	var order DailyOrder
	_, err := c.do(ctx, call{
		endpoint: "daily_order_person",
		method:   http.MethodGet,
		path:     "/api/daily-orders/person/" + url.PathEscape(personID),
		creds:    creds,
		out:      &order,
	})
	return order, err
}

// MarkHandedOut flags a daily order as handed out.
func (c *Client) MarkHandedOut(ctx context.Context, creds Credentials, orderID string) (DailyOrder, error) {
	body, err := jsonBody(map[string]bool{"handed_out": true})
	if err != nil {
		return DailyOrder{}, err
	}
	var order DailyOrder
	_, err = c.do(ctx, call{
		endpoint:    "daily_order_update",
		method:      http.MethodPut,
		path:        "/api/daily-orders/" + url.PathEscape(orderID),
		creds:       creds,
		body:        body,
		contentType: "application/json",
		out:         &order,
	})
	return order, err
}

// CreateOrders submits a group leader's orders.
func (c *Client) CreateOrders(ctx context.Context, creds Credentials, orders []OrderRequest) error {
	body, err := jsonBody(orders)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, call{
		endpoint:    "orders_create",
		method:      http.MethodPost,
		path:        "/api/orders",
		creds:       creds,
		body:        body,
		contentType: "application/json",
	})
	return err
}

// TriggerOrderRollover moves pre-orders to daily orders and archives the
// previous day's orders. The endpoint needs no credentials.
func (c *Client) TriggerOrderRollover(ctx context.Context) (Message, error) {
	var msg Message
	_, err := c.do(ctx, call{
		endpoint: "orders_rollover",
		method:   http.MethodGet,
		path:     "/api/batch/pre-to-daily-to-old-order",
		out:      &msg,
	})
	return msg, err
}
