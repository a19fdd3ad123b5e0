package commands

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"adboard/contexts/marketplace/ad-service/domain/entities"
	"adboard/contexts/marketplace/ad-service/ports"
	"adboard/contexts/marketplace/ad-service/texts"
)

// ModerateAdUseCase applies admin decisions. A decision only lands on a
// pending ad; anything else (already decided, sold, missing) surfaces as
// ErrAdNotFound so a double-tap on the moderation keyboard is a no-op.
type ModerateAdUseCase struct {
	Repository ports.Repository
	Publisher  ports.AdPublisher
	Notifier   ports.Notifier
	Clock      ports.Clock
	Logger     zerolog.Logger
}

var pendingOnly = []entities.AdStatus{entities.AdStatusPending}

func (uc ModerateAdUseCase) Approve(ctx context.Context, kind entities.AdKind, adID int64) (entities.Ad, error) {
	ad, err := uc.Repository.TransitionStatus(ctx, kind, adID, pendingOnly, entities.AdStatusApproved, "")
	if err != nil {
		return nil, err
	}

	// Approval restarts the listing lifetime.
	expires := uc.Clock.Now().UTC().Add(entities.AdExpiry)
	if err := uc.Repository.SetExpiresAt(ctx, kind, adID, expires); err != nil {
		uc.Logger.Warn().Err(err).Int64("ad_id", adID).Msg("expiry refresh failed")
	} else {
		ad.Common().ExpiresAt = &expires
	}

	uc.Logger.Info().
		Str("event", "ad_approved").
		Str("module", "marketplace/ad-service").
		Str("layer", "application").
		Str("kind", string(kind)).
		Int64("ad_id", adID).
		Msg("ad approved")

	// Decision is committed; notification and publish are best effort.
	uc.notifyOwner(ctx, ad, texts.OwnerAdApproved)
	if uc.Publisher != nil {
		if err := uc.Publisher.Publish(ctx, ad); err != nil {
			uc.Logger.Warn().Err(err).Int64("ad_id", adID).Msg("channel publish failed")
		}
	}
	return ad, nil
}

func (uc ModerateAdUseCase) Reject(ctx context.Context, kind entities.AdKind, adID int64, reason string) (entities.Ad, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = entities.DefaultRejectionReason
	}
	ad, err := uc.Repository.TransitionStatus(ctx, kind, adID, pendingOnly, entities.AdStatusRejected, reason)
	if err != nil {
		return nil, err
	}

	uc.Logger.Info().
		Str("event", "ad_rejected").
		Str("module", "marketplace/ad-service").
		Str("layer", "application").
		Str("kind", string(kind)).
		Int64("ad_id", adID).
		Str("reason", reason).
		Msg("ad rejected")

	uc.notifyOwner(ctx, ad, texts.OwnerAdRejected+"\nПричина: "+reason)
	return ad, nil
}

func (uc ModerateAdUseCase) notifyOwner(ctx context.Context, ad entities.Ad, text string) {
	if uc.Notifier == nil {
		return
	}
	owner, err := uc.Repository.GetUserByID(ctx, ad.Common().UserID)
	if err != nil {
		uc.Logger.Warn().Err(err).Int64("user_id", ad.Common().UserID).Msg("owner lookup failed")
		return
	}
	if err := uc.Notifier.NotifyOwner(ctx, owner.TelegramID, text); err != nil {
		uc.Logger.Warn().Err(err).Int64("telegram_id", owner.TelegramID).Msg("owner notification failed")
	}
}
