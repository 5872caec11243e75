package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(day int) time.Time {
	return time.Date(2022, time.April, day, 0, 0, 0, 0, time.UTC)
}

func testCampaign() Campaign {
	return Campaign{
		Amount:         Amount{Value: 10, Currency: EUR},
		Brand:          "Wayne Enterprises",
		VoucherExpires: date(20),
		CampaignBegins: date(1),
		CampaignEnds:   date(10),
		MaxIssued:      10,
		NumIssued:      0,
	}
}

func TestNewVoucherFromCampaign_Window(t *testing.T) {
	campaign := testCampaign()

	tests := []struct {
		name        string
		when        time.Time
		expectedErr error
	}{
		{
			name:        "Month before window",
			when:        time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
			expectedErr: ErrCampaignNotOpen,
		},
		{
			name:        "One second before window",
			when:        date(1).Add(-time.Second),
			expectedErr: ErrCampaignNotOpen,
		},
		{
			name: "Window begins inclusive",
			when: date(1),
		},
		{
			name: "Inside window",
			when: date(5),
		},
		{
			name: "Window ends inclusive",
			when: date(10),
		},
		{
			name:        "One second after window",
			when:        date(10).Add(time.Second),
			expectedErr: ErrCampaignNotOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			voucher, err := NewVoucherFromCampaign(campaign, "Bruce Wayne", tt.when)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.ErrorIs(t, err, ErrExpiredCampaign)
				assert.Empty(t, voucher.Code)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, voucher.Code)
			assert.Equal(t, tt.when, voucher.Issued)
		})
	}
}

func TestNewVoucherFromCampaign_Exhausted(t *testing.T) {
	tests := []struct {
		name      string
		numIssued int
		expectErr bool
	}{
		{name: "One slot left", numIssued: 9, expectErr: false},
		{name: "Cap reached", numIssued: 10, expectErr: true},
		{name: "Cap exceeded", numIssued: 11, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			campaign := testCampaign().WithNumIssued(tt.numIssued)

			_, err := NewVoucherFromCampaign(campaign, "Bruce Wayne", date(2))

			if tt.expectErr {
				assert.ErrorIs(t, err, ErrCampaignExhausted)
				assert.ErrorIs(t, err, ErrExpiredCampaign)
				assert.False(t, errors.Is(err, ErrCampaignNotOpen))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewVoucherFromCampaign_EmptyClaimant(t *testing.T) {
	campaigns := map[string]Campaign{
		"open":      testCampaign(),
		"exhausted": testCampaign().WithNumIssued(10),
	}

	for name, campaign := range campaigns {
		t.Run(name, func(t *testing.T) {
			for _, when := range []time.Time{date(2), date(30)} {
				_, err := NewVoucherFromCampaign(campaign, "", when)
				assert.ErrorIs(t, err, ErrInvalidClaimant)
			}
		})
	}
}

func TestNewVoucherFromCampaign_CopiesTerms(t *testing.T) {
	campaign := testCampaign()
	when := date(3)

	voucher, err := NewVoucherFromCampaign(campaign, "Bruce Wayne", when)
	require.NoError(t, err)

	assert.Equal(t, campaign.Amount, voucher.Amount)
	assert.Equal(t, campaign.Brand, voucher.Brand)
	assert.Equal(t, campaign.VoucherExpires, voucher.VoucherExpires)
	assert.Equal(t, "Bruce Wayne", voucher.Claimant)
	assert.Equal(t, when, voucher.Issued)
	assert.False(t, voucher.Consumed)

	// Minting leaves the counter alone.
	assert.Equal(t, 0, campaign.NumIssued)
}

func TestNewVoucherFromCampaign_UniqueCodes(t *testing.T) {
	campaign := testCampaign()
	seen := make(map[string]struct{})

	for i := 0; i < 1000; i++ {
		voucher, err := NewVoucherFromCampaign(campaign, "Bruce Wayne", date(2))
		require.NoError(t, err)
		_, dup := seen[voucher.Code]
		require.False(t, dup, "duplicate code %s", voucher.Code)
		seen[voucher.Code] = struct{}{}
	}
}
