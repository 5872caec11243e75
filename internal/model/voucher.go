package model

import (
	"time"

	"github.com/google/uuid"
)

// Voucher is a single-use credential minted against a campaign snapshot.
// It carries a copy of the campaign's commercial terms.
type Voucher struct {
	Amount         Amount    `json:"amount"`
	Brand          string    `json:"brand"`
	VoucherExpires time.Time `json:"voucher_expires"`
	Claimant       string    `json:"claimant"`
	Code           string    `json:"code"`
	Issued         time.Time `json:"issued"`
	Consumed       bool      `json:"consumed"`
}

// NewVoucherFromCampaign mints a voucher for claimant at the given time.
//
// It does not touch campaign.NumIssued; reserving the slot is the
// caller's job.
func NewVoucherFromCampaign(campaign Campaign, claimant string, when time.Time) (Voucher, error) {
	if claimant == "" {
		return Voucher{}, ErrInvalidClaimant
	}
	if !campaign.InWindow(when) {
		return Voucher{}, ErrCampaignNotOpen
	}
	if campaign.NumIssued >= campaign.MaxIssued {
		return Voucher{}, ErrCampaignExhausted
	}

	return Voucher{
		Amount:         campaign.Amount,
		Brand:          campaign.Brand,
		VoucherExpires: campaign.VoucherExpires,
		Claimant:       claimant,
		Code:           uuid.NewString(),
		Issued:         when,
		Consumed:       false,
	}, nil
}
