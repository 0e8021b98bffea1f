package dto

import (
	"leadflow-be/internal/entity"

	"github.com/google/uuid"
)

// ExtensionPatchMessage is published after a ledger commit to fill in the extended
// columns of the row.
type ExtensionPatchMessage struct {
	SubscriptionId uuid.UUID                    `json:"subscription_id"`
	Extension      entity.SubscriptionExtension `json:"extension"`
}
