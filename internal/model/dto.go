package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RFC3339Micro is the timestamp layout used in API replies.
const RFC3339Micro = "2006-01-02T15:04:05.000000Z07:00"

// CampaignRequest is the payload for registering a campaign.
type CampaignRequest struct {
	Amount         int64     `json:"amount" validate:"gt=0"`
	Currency       string    `json:"currency" validate:"required,oneof=USD EUR GBP SEK"`
	VoucherExpires time.Time `json:"voucher_expires" validate:"required,gtfield=CampaignEnds"`
	CampaignBegins time.Time `json:"campaign_begins" validate:"required"`
	CampaignEnds   time.Time `json:"campaign_ends" validate:"required,gtfield=CampaignBegins"`
	MaxIssued      int       `json:"max_issued" validate:"gt=0"`
}

// Campaign builds an unissued Campaign for brand from the request.
func (r *CampaignRequest) Campaign(brand string) Campaign {
	return Campaign{
		Amount:         Amount{Value: r.Amount, Currency: Currency(r.Currency)},
		Brand:          brand,
		VoucherExpires: r.VoucherExpires,
		CampaignBegins: r.CampaignBegins,
		CampaignEnds:   r.CampaignEnds,
		MaxIssued:      r.MaxIssued,
		NumIssued:      0,
	}
}

// CampaignReply is returned after registration.
type CampaignReply struct {
	Identifier string `json:"identifier"`
}

// CampaignView describes a registered campaign.
type CampaignView struct {
	Identifier     string         `json:"identifier"`
	Amount         int64          `json:"amount"`
	Currency       Currency       `json:"currency"`
	Brand          string         `json:"brand"`
	VoucherExpires string         `json:"voucher_expires"`
	CampaignBegins string         `json:"campaign_begins"`
	CampaignEnds   string         `json:"campaign_ends"`
	MaxIssued      int            `json:"max_issued"`
	NumIssued      int            `json:"num_issued"`
	Status         CampaignStatus `json:"status"`
}

// NewCampaignView renders c as seen at the given time.
func NewCampaignView(identifier string, c Campaign, at time.Time) CampaignView {
	return CampaignView{
		Identifier:     identifier,
		Amount:         c.Amount.Value,
		Currency:       c.Amount.Currency,
		Brand:          c.Brand,
		VoucherExpires: FormatTime(c.VoucherExpires),
		CampaignBegins: FormatTime(c.CampaignBegins),
		CampaignEnds:   FormatTime(c.CampaignEnds),
		MaxIssued:      c.MaxIssued,
		NumIssued:      c.NumIssued,
		Status:         c.Status(at),
	}
}

// VoucherReply is returned after a successful issuance.
type VoucherReply struct {
	Code           string          `json:"code"`
	Amount         int64           `json:"amount"`
	Currency       Currency        `json:"currency"`
	DisplayAmount  decimal.Decimal `json:"display_amount"`
	Brand          string          `json:"brand"`
	VoucherExpires string          `json:"voucher_expires"`
}

// NewVoucherReply renders v for API consumers.
func NewVoucherReply(v Voucher) VoucherReply {
	return VoucherReply{
		Code:           v.Code,
		Amount:         v.Amount.Value,
		Currency:       v.Amount.Currency,
		DisplayAmount:  v.Amount.Decimal(),
		Brand:          v.Brand,
		VoucherExpires: FormatTime(v.VoucherExpires),
	}
}

// HealthReply is returned by the health endpoint.
type HealthReply struct {
	When   string `json:"when"`
	Status string `json:"status"`
}

// FormatTime renders t in UTC with microsecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format(RFC3339Micro)
}
