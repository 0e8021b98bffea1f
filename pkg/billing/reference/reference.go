package reference

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindNew       Kind = "new"
	KindRenewal   Kind = "renewal"
	KindUpgrade   Kind = "upgrade"
	KindDowngrade Kind = "downgrade"
	KindLeads     Kind = "leads"
)

const (
	separator = "_"

	// CurrentVersion is the layout String emits. Readers accept any token whose
	// leading fields match it and keep the remaining segments in Extra.
	CurrentVersion = 1

	leadItemPrefix = "leads_"
)

var ErrMalformed = errors.New("malformed correlation token")

// Reference is the typed form of the correlation token that binds a provider event
// to the checkout that produced it.
type Reference struct {
	Kind      Kind
	UserId    uuid.UUID
	PlanId    uuid.UUID // zero for KindLeads
	PackageId uuid.UUID // zero unless KindLeads
	IssuedAt  time.Time
	Version   int
	Extra     []string
}

func NewPlanReference(kind Kind, userId, planId uuid.UUID, issuedAt time.Time) Reference {
	return Reference{
		Kind:     kind,
		UserId:   userId,
		PlanId:   planId,
		IssuedAt: issuedAt,
		Version:  CurrentVersion,
	}
}

func NewLeadPackageReference(packageId, userId uuid.UUID, issuedAt time.Time) Reference {
	return Reference{
		Kind:      KindLeads,
		UserId:    userId,
		PackageId: packageId,
		IssuedAt:  issuedAt,
		Version:   CurrentVersion,
	}
}

func (r Reference) IsLeadPackage() bool {
	return r.Kind == KindLeads
}

// String renders {kind}_{userId}_{planId}_{unixMillis}, or
// leads_{packageId}_{userId}_{unixMillis} for lead packages.
func (r Reference) String() string {
	millis := strconv.FormatInt(r.IssuedAt.UnixMilli(), 10)
	var parts []string
	if r.IsLeadPackage() {
		parts = []string{string(KindLeads), r.PackageId.String(), r.UserId.String(), millis}
	} else {
		parts = []string{string(r.Kind), r.UserId.String(), r.PlanId.String(), millis}
	}
	parts = append(parts, r.Extra...)
	return strings.Join(parts, separator)
}

// Parse validates each field individually. Segments past the timestamp are kept
// in Extra.
func Parse(token string) (*Reference, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty", ErrMalformed)
	}
	parts := strings.Split(token, separator)
	if len(parts) < 4 {
		return nil, fmt.Errorf("%w: expected at least 4 segments, got %d", ErrMalformed, len(parts))
	}

	kind := Kind(strings.ToLower(parts[0]))
	ref := &Reference{Kind: kind, Version: CurrentVersion}

	var first, second uuid.UUID
	var err error
	if first, err = uuid.Parse(parts[1]); err != nil {
		return nil, fmt.Errorf("%w: segment 2: %v", ErrMalformed, err)
	}
	if second, err = uuid.Parse(parts[2]); err != nil {
		return nil, fmt.Errorf("%w: segment 3: %v", ErrMalformed, err)
	}

	switch kind {
	case KindLeads:
		ref.PackageId, ref.UserId = first, second
	case KindNew, KindRenewal, KindUpgrade, KindDowngrade:
		ref.UserId, ref.PlanId = first, second
	default:
		return nil, fmt.Errorf("%w: unknown operation type %q", ErrMalformed, parts[0])
	}

	millis, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil || millis <= 0 {
		return nil, fmt.Errorf("%w: timestamp %q", ErrMalformed, parts[3])
	}
	ref.IssuedAt = time.UnixMilli(millis).UTC()

	if len(parts) > 4 {
		ref.Extra = append([]string(nil), parts[4:]...)
	}
	return ref, nil
}

// LeadPackageItemId is the checkout item id of a lead package.
func LeadPackageItemId(packageId uuid.UUID) string {
	return leadItemPrefix + packageId.String()
}

// LeadPackageItem extracts the package id from a lead-package item id.
func LeadPackageItem(itemId string) (uuid.UUID, bool) {
	if !strings.HasPrefix(itemId, leadItemPrefix) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimPrefix(itemId, leadItemPrefix))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
