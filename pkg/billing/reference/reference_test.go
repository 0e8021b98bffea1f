package reference

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceRoundTrip(t *testing.T) {
	userId := uuid.New()
	planId := uuid.New()
	packageId := uuid.New()
	issued := time.UnixMilli(1718000000123).UTC()

	t.Run("plan token", func(t *testing.T) {
		ref := NewPlanReference(KindUpgrade, userId, planId, issued)
		token := ref.String()
		assert.Equal(t, "upgrade_"+userId.String()+"_"+planId.String()+"_1718000000123", token)

		parsed, err := Parse(token)
		require.NoError(t, err)
		assert.Equal(t, KindUpgrade, parsed.Kind)
		assert.Equal(t, userId, parsed.UserId)
		assert.Equal(t, planId, parsed.PlanId)
		assert.Equal(t, uuid.Nil, parsed.PackageId)
		assert.True(t, issued.Equal(parsed.IssuedAt))
		assert.False(t, parsed.IsLeadPackage())
	})

	t.Run("lead package token puts the package first", func(t *testing.T) {
		ref := NewLeadPackageReference(packageId, userId, issued)
		token := ref.String()
		assert.Equal(t, "leads_"+packageId.String()+"_"+userId.String()+"_1718000000123", token)

		parsed, err := Parse(token)
		require.NoError(t, err)
		assert.True(t, parsed.IsLeadPackage())
		assert.Equal(t, packageId, parsed.PackageId)
		assert.Equal(t, userId, parsed.UserId)
		assert.Equal(t, uuid.Nil, parsed.PlanId)
	})
}

func TestParse(t *testing.T) {
	userId := uuid.New().String()
	planId := uuid.New().String()
	millis := strconv.FormatInt(time.Now().UnixMilli(), 10)

	tests := []struct {
		name      string
		token     string
		wantErr   bool
		wantKind  Kind
		wantExtra []string
	}{
		{name: "new", token: "new_" + userId + "_" + planId + "_" + millis, wantKind: KindNew},
		{name: "renewal", token: "renewal_" + userId + "_" + planId + "_" + millis, wantKind: KindRenewal},
		{name: "downgrade upper case kind", token: "DOWNGRADE_" + userId + "_" + planId + "_" + millis, wantKind: KindDowngrade},
		{name: "trailing segments are kept", token: "new_" + userId + "_" + planId + "_" + millis + "_v2_promo", wantKind: KindNew, wantExtra: []string{"v2", "promo"}},
		{name: "surrounding whitespace", token: "  new_" + userId + "_" + planId + "_" + millis + " ", wantKind: KindNew},
		{name: "empty", token: "", wantErr: true},
		{name: "too few segments", token: "new_" + userId + "_" + planId, wantErr: true},
		{name: "unknown kind", token: "refund_" + userId + "_" + planId + "_" + millis, wantErr: true},
		{name: "bad user id", token: "new_nope_" + planId + "_" + millis, wantErr: true},
		{name: "bad plan id", token: "new_" + userId + "_nope_" + millis, wantErr: true},
		{name: "bad timestamp", token: "new_" + userId + "_" + planId + "_yesterday", wantErr: true},
		{name: "zero timestamp", token: "new_" + userId + "_" + planId + "_0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := Parse(tt.token)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformed))
				assert.Nil(t, ref)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, ref.Kind)
			assert.Equal(t, tt.wantExtra, ref.Extra)
		})
	}
}

func TestLeadPackageItem(t *testing.T) {
	packageId := uuid.New()

	id, ok := LeadPackageItem(LeadPackageItemId(packageId))
	require.True(t, ok)
	assert.Equal(t, packageId, id)

	_, ok = LeadPackageItem(packageId.String())
	assert.False(t, ok)

	_, ok = LeadPackageItem("leads_not-a-uuid")
	assert.False(t, ok)
}
