package dto

import (
	"time"

	"github.com/google/uuid"
)

type CheckoutRequest struct {
	PlanId    uuid.UUID `json:"plan_id" validate:"required"`
	FirstName string    `json:"first_name" validate:"omitempty,max=100"`
	LastName  string    `json:"last_name" validate:"omitempty,max=100"`
	Phone     string    `json:"phone" validate:"omitempty,max=20"`
}

type LeadCheckoutRequest struct {
	PackageId uuid.UUID `json:"package_id" validate:"required"`
}

type CheckoutResponse struct {
	OrderId         string `json:"order_id"`
	Operation       string `json:"operation"`
	Reference       string `json:"reference"`
	SnapToken       string `json:"snap_token"`
	SnapRedirectUrl string `json:"snap_redirect_url"`
}

type SubscriptionStatusResponse struct {
	SubscriptionId *uuid.UUID `json:"subscription_id,omitempty"`
	Status         string     `json:"status"`
	PlanId         *uuid.UUID `json:"plan_id,omitempty"`
	PlanName       string     `json:"plan_name,omitempty"`
	LeadsBalance   int        `json:"leads_balance"`
	AccessUntil    *time.Time `json:"access_until,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
}

type CancelSubscriptionRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type CancelSubscriptionResponse struct {
	SubscriptionId uuid.UUID `json:"subscription_id"`
	Status         string    `json:"status"`
	AccessUntil    time.Time `json:"access_until"`
	TicketId       uuid.UUID `json:"ticket_id"`
}

type PlanResponse struct {
	Id            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	LeadsIncluded int       `json:"leads_included"`
}
