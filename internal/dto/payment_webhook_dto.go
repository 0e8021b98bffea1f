package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"leadflow-be/pkg/billing"
)

// FlexibleString accepts a JSON string or number. Providers are inconsistent about
// amounts and status codes.
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleString(s)
		return nil
	}
	*f = FlexibleString(string(data))
	return nil
}

func (f FlexibleString) String() string {
	return string(f)
}

func (f FlexibleString) Int() int {
	n, _ := strconv.Atoi(strings.TrimSpace(string(f)))
	return n
}

type WebhookCustomerDetails struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type WebhookItemDetail struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// PaymentWebhookRequest is the provider notification body. Every field is optional;
// the authenticator decides what a usable event is.
type PaymentWebhookRequest struct {
	TransactionId      string                 `json:"transaction_id"`
	OrderId            string                 `json:"order_id"`
	TransactionStatus  string                 `json:"transaction_status"`
	FraudStatus        string                 `json:"fraud_status"`
	StatusCode         FlexibleString         `json:"status_code"`
	GrossAmount        FlexibleString         `json:"gross_amount"`
	SignatureKey       string                 `json:"signature_key"`
	PaymentType        string                 `json:"payment_type"`
	CustomField1       string                 `json:"custom_field1"`
	CustomField2       string                 `json:"custom_field2"`
	CustomField3       string                 `json:"custom_field3"`
	SubscriptionId     string                 `json:"subscription_id"`
	SubscriptionStatus string                 `json:"subscription_status"`
	ChargeCount        FlexibleString         `json:"charge_count"`
	PayerEmail         string                 `json:"payer_email"`
	CustomerDetails    WebhookCustomerDetails `json:"customer_details"`
	ItemDetails        []WebhookItemDetail    `json:"item_details"`
	IsTest             bool                   `json:"is_test"`
	LiveMode           *bool                  `json:"live_mode"`
	CancellationReason string                 `json:"cancellation_reason"`
}

// ToNotification maps the body onto the transport-independent notification.
// custom_field1 carries the correlation token and custom_field2 the plan code.
func (r *PaymentWebhookRequest) ToNotification(raw []byte) billing.Notification {
	email := r.PayerEmail
	if email == "" {
		email = r.CustomerDetails.Email
	}

	itemIds := make([]string, 0, len(r.ItemDetails))
	for _, item := range r.ItemDetails {
		if item.Id != "" {
			itemIds = append(itemIds, item.Id)
		}
	}

	return billing.Notification{
		TransactionId:      r.TransactionId,
		OrderId:            r.OrderId,
		StatusCode:         r.StatusCode.String(),
		TransactionStatus:  r.TransactionStatus,
		FraudStatus:        r.FraudStatus,
		GrossAmount:        r.GrossAmount.String(),
		SignatureKey:       r.SignatureKey,
		PaymentType:        r.PaymentType,
		Correlation:        r.CustomField1,
		PlanCode:           r.CustomField2,
		ItemIds:            itemIds,
		SubscriptionId:     r.SubscriptionId,
		SubscriptionStatus: r.SubscriptionStatus,
		PayerEmail:         email,
		ChargeCount:        r.ChargeCount.Int(),
		Test:               r.IsTest,
		LiveMode:           r.LiveMode,
		CancellationReason: r.CancellationReason,
		Raw:                raw,
	}
}

// WebhookResult is returned to the provider inside the envelope.
type WebhookResult struct {
	EventId    string `json:"event_id,omitempty"`
	Operation  string `json:"operation,omitempty"`
	Duplicate  bool   `json:"duplicate,omitempty"`
	Note       string `json:"note,omitempty"`
	LeadsDelta int    `json:"leads_delta,omitempty"`
}

// WebhookResponse is always sent with HTTP 200.
type WebhookResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Result  *WebhookResult `json:"result,omitempty"`
}
