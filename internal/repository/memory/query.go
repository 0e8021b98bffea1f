package memory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"leadflow-be/internal/entity"
	"leadflow-be/internal/repository/specification"

	"github.com/google/uuid"
)

// columns exposes a row by its relational column names so specifications can be
// evaluated without a database.
func columns(row interface{}) map[string]interface{} {
	switch r := row.(type) {
	case *entity.User:
		return map[string]interface{}{
			"id":         r.Id,
			"email":      r.Email,
			"full_name":  r.FullName,
			"role":       string(r.Role),
			"created_at": r.CreatedAt,
		}
	case *entity.Plan:
		return map[string]interface{}{
			"id":                 r.Id,
			"name":               r.Name,
			"price":              r.Price,
			"leads_included":     r.LeadsIncluded,
			"provider_plan_code": deref(r.ProviderPlanCode),
			"is_active":          r.IsActive,
			"sort_order":         r.SortOrder,
		}
	case *entity.LeadPackage:
		return map[string]interface{}{
			"id":        r.Id,
			"name":      r.Name,
			"price":     r.Price,
			"leads":     r.Leads,
			"is_active": r.IsActive,
		}
	case *entity.Subscription:
		return map[string]interface{}{
			"id":                       r.Id,
			"user_id":                  r.UserId,
			"plan_id":                  r.PlanId,
			"status":                   string(r.Status),
			"leads_balance":            r.LeadsBalance,
			"current_period_start":     r.CurrentPeriodStart,
			"current_period_end":       r.CurrentPeriodEnd,
			"provider_subscription_id": deref(r.ProviderSubscriptionId),
			"provider_transaction_id":  deref(r.ProviderTransactionId),
			"created_at":               r.CreatedAt,
			"updated_at":               r.UpdatedAt,
		}
	case *entity.WebhookEvent:
		return map[string]interface{}{
			"id":                r.Id,
			"provider_event_id": r.ProviderEventId,
			"action":            r.Action,
			"status":            r.Status,
			"processed":         r.Processed,
			"operation":         r.Operation,
			"error_message":     r.ErrorMessage,
			"created_at":        r.CreatedAt,
			"updated_at":        r.UpdatedAt,
		}
	case *entity.SupportTicket:
		return map[string]interface{}{
			"id":                       r.Id,
			"user_id":                  r.UserId,
			"subscription_id":          r.SubscriptionId,
			"type":                     string(r.Type),
			"priority":                 string(r.Priority),
			"status":                   string(r.Status),
			"provider_subscription_id": deref(r.ProviderSubscriptionId),
			"created_at":               r.CreatedAt,
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func matches(row interface{}, specs []specification.Specification) (bool, error) {
	cols := columns(row)
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if cols["id"] != s.ID {
				return false, nil
			}
		case specification.ByIDs:
			found := false
			for _, id := range s.IDs {
				if cols["id"] == id {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		case specification.ByEmail:
			email, _ := cols["email"].(string)
			if !strings.EqualFold(email, strings.TrimSpace(s.Email)) {
				return false, nil
			}
		case specification.UserOwnedBy:
			if cols["user_id"] != s.UserID {
				return false, nil
			}
		case specification.ByStatus:
			if cols["status"] != s.Status {
				return false, nil
			}
		case specification.ActiveSubscription:
			if cols["status"] != string(entity.SubscriptionStatusActive) {
				return false, nil
			}
		case specification.ByProviderSubscriptionID:
			if cols["provider_subscription_id"] != s.ProviderSubscriptionID {
				return false, nil
			}
		case specification.ByProviderPlanCode:
			if cols["provider_plan_code"] != s.Code {
				return false, nil
			}
		case specification.ActiveCatalogEntry:
			if cols["is_active"] != true {
				return false, nil
			}
		case specification.UnsettledWebhookEvent:
			if cols["processed"] == true && cols["error_message"] == "" {
				return false, nil
			}
		case specification.FilterBy:
			v, ok := cols[s.Field]
			if !ok {
				return false, fmt.Errorf("memory store: unknown column %q", s.Field)
			}
			if fmt.Sprint(v) != fmt.Sprint(s.Value) {
				return false, nil
			}
		case specification.OrderBy, specification.Pagination, specification.ForUpdate:
			// applied by query
		default:
			return false, fmt.Errorf("memory store: unsupported specification %T", spec)
		}
	}
	return true, nil
}

// query filters, orders and paginates rows the way the gorm repositories do.
func query[T any](rows []*T, specs []specification.Specification) ([]*T, error) {
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		ok, err := matches(row, specs)
		if err != nil {
			return nil, err
		}
		if ok {
			c := *row
			out = append(out, &c)
		}
	}

	// deterministic base order
	sort.SliceStable(out, func(i, j int) bool {
		return less(columns(out[i])["id"], columns(out[j])["id"])
	})
	// stable sorts applied last-key-first give SQL ORDER BY semantics
	for i := len(specs) - 1; i >= 0; i-- {
		if o, ok := specs[i].(specification.OrderBy); ok {
			sort.SliceStable(out, func(i, j int) bool {
				a, b := columns(out[i])[o.Field], columns(out[j])[o.Field]
				if o.Desc {
					return less(b, a)
				}
				return less(a, b)
			})
		}
	}
	for _, spec := range specs {
		if p, ok := spec.(specification.Pagination); ok {
			if p.Offset >= len(out) {
				return []*T{}, nil
			}
			out = out[p.Offset:]
			if p.Limit > 0 && p.Limit < len(out) {
				out = out[:p.Limit]
			}
		}
	}
	return out, nil
}

func first[T any](rows []*T, specs []specification.Specification) (*T, error) {
	found, err := query(rows, specs)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func less(a, b interface{}) bool {
	switch x := a.(type) {
	case int:
		return x < b.(int)
	case float64:
		return x < b.(float64)
	case string:
		return x < b.(string)
	case time.Time:
		return x.Before(b.(time.Time))
	case uuid.UUID:
		return x.String() < b.(uuid.UUID).String()
	case bool:
		return !x && b.(bool)
	}
	return false
}

func values[K comparable, V any](m map[K]*V) []*V {
	out := make([]*V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
