package service

import (
	"context"
	"time"

	"discounter/internal/model"
)

// DiscountService registers campaigns and issues vouchers against them.
type DiscountService interface {
	// RegisterCampaign stores a new campaign and returns its identifier.
	RegisterCampaign(ctx context.Context, campaign model.Campaign) (string, error)

	// View returns the campaign stored under identifier.
	View(ctx context.Context, identifier string) (model.Campaign, error)

	// IssueVoucher mints a voucher for whom against the campaign at the given
	// time, reserving one slot of the campaign's cap.
	IssueVoucher(ctx context.Context, identifier, whom string, when time.Time) (model.Voucher, error)
}
