package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// SubscriptionRecord is one subscription as the provider reports it.
type SubscriptionRecord struct {
	Id                string     `json:"id"`
	PayerEmail        string     `json:"payer_email"`
	PlanCode          string     `json:"plan_code"`
	Status            string     `json:"status"`
	ChargedQuantity   int        `json:"charged_quantity"`
	NextPaymentDate   *time.Time `json:"next_payment_date"`
	LastTransactionId string     `json:"last_transaction_id"`
}

type SubscriptionPage struct {
	Results []SubscriptionRecord `json:"results"`
	Total   int                  `json:"total"`
	Offset  int                  `json:"offset"`
	Limit   int                  `json:"limit"`
}

type ListFilter struct {
	Status     string
	PayerEmail string
	Offset     int
	Limit      int
}

// Client lists the provider's subscriptions.
type Client interface {
	ListSubscriptions(ctx context.Context, filter ListFilter) (*SubscriptionPage, error)
}

type HTTPClient struct {
	baseURL   string
	serverKey string
	timeout   time.Duration
}

func NewHTTPClient(baseURL, serverKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		serverKey: serverKey,
		timeout:   timeout,
	}
}

func (c *HTTPClient) ListSubscriptions(ctx context.Context, filter ListFilter) (*SubscriptionPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}
	if filter.PayerEmail != "" {
		query.Set("payer_email", filter.PayerEmail)
	}
	query.Set("offset", strconv.Itoa(filter.Offset))
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Get(c.baseURL + "/v1/subscriptions")
	agent.BasicAuth(c.serverKey, "")
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.QueryString(query.Encode())
	agent.Timeout(timeout)

	var page SubscriptionPage
	code, body, errs := agent.Struct(&page)
	if len(errs) > 0 {
		return nil, fmt.Errorf("list provider subscriptions: %w", errs[0])
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("list provider subscriptions: status %d: %s", code, truncate(body, 256))
	}
	return &page, nil
}

func truncate(body []byte, n int) string {
	if len(body) > n {
		return string(body[:n]) + "..."
	}
	return string(body)
}
