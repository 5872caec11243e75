package model

import (
	"time"
)

// Campaign is a time- and quantity-bounded offer from a brand.
// Values are treated as immutable; use WithNumIssued to derive an updated copy.
type Campaign struct {
	Amount         Amount    `json:"amount"`
	Brand          string    `json:"brand"`
	VoucherExpires time.Time `json:"voucher_expires"`
	CampaignBegins time.Time `json:"campaign_begins"`
	CampaignEnds   time.Time `json:"campaign_ends"`
	MaxIssued      int       `json:"max_issued"`
	NumIssued      int       `json:"num_issued"`
}

// CampaignStatus is the issuance state of a campaign at a point in time.
type CampaignStatus string

const (
	CampaignOpen      CampaignStatus = "OPEN"
	CampaignExhausted CampaignStatus = "EXHAUSTED"
	CampaignClosed    CampaignStatus = "CLOSED"
)

// WithNumIssued returns a copy of c with NumIssued replaced.
func (c Campaign) WithNumIssued(n int) Campaign {
	c.NumIssued = n
	return c
}

// InWindow reports whether at lies within [CampaignBegins, CampaignEnds].
func (c Campaign) InWindow(at time.Time) bool {
	return !at.Before(c.CampaignBegins) && !at.After(c.CampaignEnds)
}

// Remaining is the number of vouchers that may still be issued.
func (c Campaign) Remaining() int {
	if c.NumIssued >= c.MaxIssued {
		return 0
	}
	return c.MaxIssued - c.NumIssued
}

// Status reports the campaign's issuance state at the given time.
// Exhaustion takes precedence over the window.
func (c Campaign) Status(at time.Time) CampaignStatus {
	if c.Remaining() == 0 {
		return CampaignExhausted
	}
	if !c.InWindow(at) {
		return CampaignClosed
	}
	return CampaignOpen
}

// Validate checks the invariants a registered campaign must satisfy.
func (c Campaign) Validate() error {
	if err := c.Amount.Validate(); err != nil {
		return err
	}
	if c.Brand == "" {
		return ErrInvalidBrand
	}
	if c.MaxIssued <= 0 {
		return ErrInvalidMaxIssued
	}
	if c.NumIssued < 0 || c.NumIssued > c.MaxIssued {
		return ErrInvalidNumIssued
	}
	if !c.CampaignBegins.Before(c.CampaignEnds) || !c.CampaignEnds.Before(c.VoucherExpires) {
		return ErrInvalidCampaignWindow
	}
	return nil
}
