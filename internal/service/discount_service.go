package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"discounter/internal/keylock"
	"discounter/internal/metrics"
	"discounter/internal/model"
	"discounter/internal/notify"
	"discounter/internal/repository"

	"github.com/rs/zerolog"
)

// discountService implements DiscountService.
type discountService struct {
	campaigns repository.Repository[model.Campaign]
	vouchers  repository.Repository[model.Voucher]
	notifier  notify.Notifier
	locks     keylock.Mutex
	logger    zerolog.Logger
}

// NewDiscountService creates a new discount service.
//
// When campaigns implements repository.Updater, slots are reserved through
// it. Otherwise issuance is serialized per campaign inside this process only.
func NewDiscountService(
	campaigns repository.Repository[model.Campaign],
	vouchers repository.Repository[model.Voucher],
	notifier notify.Notifier,
	logger zerolog.Logger,
) DiscountService {
	return &discountService{
		campaigns: campaigns,
		vouchers:  vouchers,
		notifier:  notifier,
		logger:    logger.With().Str("service", "discount").Logger(),
	}
}

// RegisterCampaign stores a new campaign and returns its identifier.
func (s *discountService) RegisterCampaign(ctx context.Context, campaign model.Campaign) (string, error) {
	if err := campaign.Validate(); err != nil {
		s.logger.Warn().Err(err).Str("brand", campaign.Brand).Msg("invalid campaign")
		return "", err
	}
	if campaign.NumIssued != 0 {
		return "", model.ErrInvalidNumIssued
	}

	id, err := s.campaigns.Persist(ctx, campaign, "")
	if err != nil {
		s.logger.Error().Err(err).Str("brand", campaign.Brand).Msg("failed to persist campaign")
		return "", fmt.Errorf("failed to register campaign: %w", err)
	}

	metrics.RecordCampaignRegistered()

	s.logger.Info().
		Str("campaign_id", id).
		Str("brand", campaign.Brand).
		Int("max_issued", campaign.MaxIssued).
		Msg("campaign registered")

	return id, nil
}

// View returns the campaign stored under identifier.
func (s *discountService) View(ctx context.Context, identifier string) (model.Campaign, error) {
	campaign, err := s.campaigns.Get(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug().Str("campaign_id", identifier).Msg("campaign not found")
			return model.Campaign{}, model.ErrInvalidCampaign
		}
		s.logger.Error().Err(err).Str("campaign_id", identifier).Msg("failed to get campaign")
		return model.Campaign{}, fmt.Errorf("failed to get campaign: %w", err)
	}
	return campaign, nil
}

// IssueVoucher mints a voucher and reserves one slot of the campaign's cap.
// The voucher is stored before the campaign counter; the notifier runs last.
func (s *discountService) IssueVoucher(ctx context.Context, identifier, whom string, when time.Time) (_ model.Voucher, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordIssueVoucher(issueStatus(err), time.Since(start).Seconds())
	}()

	var issued model.Voucher
	reserve := func(ctx context.Context, campaign model.Campaign) (model.Campaign, error) {
		voucher, err := model.NewVoucherFromCampaign(campaign, whom, when)
		if err != nil {
			return campaign, err
		}

		if _, err := s.vouchers.Persist(ctx, voucher, voucher.Code); err != nil {
			return campaign, fmt.Errorf("failed to persist voucher: %w", err)
		}

		issued = voucher
		return campaign.WithNumIssued(campaign.NumIssued + 1), nil
	}

	if updater, ok := s.campaigns.(repository.Updater[model.Campaign]); ok {
		_, err = updater.Update(ctx, identifier, reserve)
	} else {
		err = s.reserveLocked(ctx, identifier, reserve)
	}
	if err != nil {
		return model.Voucher{}, s.issueError(identifier, whom, err)
	}

	if err := s.notifier.Notify(ctx, issued); err != nil {
		s.logger.Error().
			Err(err).
			Str("campaign_id", identifier).
			Str("code", issued.Code).
			Msg("failed to notify issued voucher")
		return model.Voucher{}, fmt.Errorf("failed to notify voucher %s: %w", issued.Code, err)
	}

	s.logger.Debug().
		Str("campaign_id", identifier).
		Str("code", issued.Code).
		Msg("voucher issued")

	return issued, nil
}

// reserveLocked runs the fetch, reserve and store sequence while holding the
// in-process lock for identifier.
func (s *discountService) reserveLocked(
	ctx context.Context,
	identifier string,
	reserve func(context.Context, model.Campaign) (model.Campaign, error),
) error {
	unlock, err := s.locks.Lock(ctx, identifier)
	if err != nil {
		return err
	}
	defer unlock()

	campaign, err := s.campaigns.Get(ctx, identifier)
	if err != nil {
		return err
	}

	updated, err := reserve(ctx, campaign)
	if err != nil {
		return err
	}

	if _, err := s.campaigns.Persist(ctx, updated, identifier); err != nil {
		return fmt.Errorf("failed to persist campaign: %w", err)
	}
	return nil
}

func (s *discountService) issueError(identifier, whom string, err error) error {
	var domainErr *model.DomainError

	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.logger.Warn().Str("campaign_id", identifier).Msg("issue against unknown campaign")
		return model.ErrInvalidCampaign
	case errors.As(err, &domainErr):
		s.logger.Warn().
			Str("campaign_id", identifier).
			Str("claimant", whom).
			Str("reason", domainErr.Code).
			Msg("voucher refused")
		return err
	default:
		s.logger.Error().Err(err).Str("campaign_id", identifier).Msg("failed to issue voucher")
		return fmt.Errorf("failed to issue voucher: %w", err)
	}
}

func issueStatus(err error) string {
	switch {
	case err == nil:
		return metrics.StatusSuccess
	case errors.Is(err, model.ErrInvalidCampaign):
		return metrics.StatusInvalidCampaign
	case errors.Is(err, model.ErrCampaignNotOpen):
		return metrics.StatusNotOpen
	case errors.Is(err, model.ErrCampaignExhausted):
		return metrics.StatusExhausted
	case errors.Is(err, model.ErrInvalidClaimant):
		return metrics.StatusInvalidClaimant
	default:
		return metrics.StatusFailed
	}
}
