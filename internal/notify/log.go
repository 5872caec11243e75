package notify

import (
	"context"

	"discounter/internal/model"

	"github.com/rs/zerolog"
)

type logNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier returns a Notifier that records each voucher in the log.
// It never fails.
func NewLogNotifier(logger zerolog.Logger) Notifier {
	return &logNotifier{
		logger: logger.With().Str("component", "log-notifier").Logger(),
	}
}

func (n *logNotifier) Notify(ctx context.Context, voucher model.Voucher) error {
	n.logger.Info().
		Str("code", voucher.Code).
		Str("brand", voucher.Brand).
		Str("claimant", voucher.Claimant).
		Str("amount", voucher.Amount.String()).
		Time("voucher_expires", voucher.VoucherExpires).
		Time("issued", voucher.Issued).
		Msg("voucher issued")
	return nil
}
