package notify

import (
	"context"

	"discounter/internal/model"

	"github.com/rs/zerolog"
)

type fallbackNotifier struct {
	primary   Notifier
	secondary Notifier
	logger    zerolog.Logger
}

// NewFallbackNotifier tries primary first and falls back to secondary when it
// fails. A nil primary sends everything to secondary.
func NewFallbackNotifier(primary, secondary Notifier, logger zerolog.Logger) Notifier {
	return &fallbackNotifier{
		primary:   primary,
		secondary: secondary,
		logger:    logger.With().Str("component", "fallback-notifier").Logger(),
	}
}

func (n *fallbackNotifier) Notify(ctx context.Context, voucher model.Voucher) error {
	if n.primary != nil {
		err := n.primary.Notify(ctx, voucher)
		if err == nil {
			return nil
		}

		n.logger.Warn().
			Err(err).
			Str("code", voucher.Code).
			Msg("primary notifier failed, falling back")
	}

	return n.secondary.Notify(ctx, voucher)
}
