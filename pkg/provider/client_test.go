package provider

import (
	"context"
	"encoding/base64"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startProvider(t *testing.T, handler fiber.Handler) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/v1/subscriptions", handler)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go app.Listener(ln)
	t.Cleanup(func() { _ = app.Shutdown() })
	return "http://" + ln.Addr().String()
}

func TestHTTPClient_ListSubscriptions(t *testing.T) {
	var gotAuth, gotStatus, gotOffset string
	baseURL := startProvider(t, func(c *fiber.Ctx) error {
		gotAuth = c.Get(fiber.HeaderAuthorization)
		gotStatus = c.Query("status")
		gotOffset = c.Query("offset")
		return c.JSON(fiber.Map{
			"results": []fiber.Map{{
				"id":                  "sub-1",
				"payer_email":         "a@example.com",
				"plan_code":           "pro",
				"status":              "active",
				"charged_quantity":    3,
				"next_payment_date":   "2024-02-01T00:00:00Z",
				"last_transaction_id": "tx-9",
			}},
			"total":  1,
			"offset": 0,
			"limit":  50,
		})
	})

	client := NewHTTPClient(baseURL, "server-key", 5*time.Second)
	page, err := client.ListSubscriptions(context.Background(), ListFilter{Status: "active", Offset: 50, Limit: 50})
	require.NoError(t, err)

	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("server-key:")), gotAuth)
	assert.Equal(t, "active", gotStatus)
	assert.Equal(t, "50", gotOffset)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "sub-1", page.Results[0].Id)
	assert.Equal(t, 3, page.Results[0].ChargedQuantity)
	require.NotNil(t, page.Results[0].NextPaymentDate)
	assert.Equal(t, 2024, page.Results[0].NextPaymentDate.Year())
}

func TestHTTPClient_ErrorStatus(t *testing.T) {
	baseURL := startProvider(t, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusUnauthorized).SendString("bad key")
	})

	client := NewHTTPClient(baseURL, "wrong", 5*time.Second)
	_, err := client.ListSubscriptions(context.Background(), ListFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestHTTPClient_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewHTTPClient("http://127.0.0.1:1", "key", time.Second)
	_, err := client.ListSubscriptions(ctx, ListFilter{})
	assert.ErrorIs(t, err, context.Canceled)
}
