package commands

import (
	"context"

	"github.com/rs/zerolog"

	"adboard/contexts/marketplace/ad-service/domain/entities"
	domainerrors "adboard/contexts/marketplace/ad-service/domain/errors"
	"adboard/contexts/marketplace/ad-service/ports"
)

// OwnerOpsUseCase covers the owner-initiated lifecycle moves that need
// no field validation: taking a listing down and marking it sold.
type OwnerOpsUseCase struct {
	Repository ports.Repository
	Logger     zerolog.Logger
}

// SoftDelete retires the ad by moving it to rejected with an
// owner-removal reason. The row stays for dedup history and stats.
func (uc OwnerOpsUseCase) SoftDelete(ctx context.Context, telegramID int64, kind entities.AdKind, adID int64) error {
	if err := uc.checkOwner(ctx, telegramID, kind, adID); err != nil {
		return err
	}
	from := []entities.AdStatus{entities.AdStatusPending, entities.AdStatusApproved}
	_, err := uc.Repository.TransitionStatus(ctx, kind, adID, from, entities.AdStatusRejected, entities.OwnerDeletedReason)
	if err != nil {
		return err
	}
	uc.Logger.Info().
		Str("event", "ad_deleted").
		Str("module", "marketplace/ad-service").
		Str("layer", "application").
		Str("kind", string(kind)).
		Int64("ad_id", adID).
		Msg("ad removed by owner")
	return nil
}

func (uc OwnerOpsUseCase) MarkSold(ctx context.Context, telegramID int64, kind entities.AdKind, adID int64) error {
	if err := uc.checkOwner(ctx, telegramID, kind, adID); err != nil {
		return err
	}
	from := []entities.AdStatus{entities.AdStatusPending, entities.AdStatusApproved}
	_, err := uc.Repository.TransitionStatus(ctx, kind, adID, from, entities.AdStatusSold, "")
	if err != nil {
		return err
	}
	uc.Logger.Info().
		Str("event", "ad_sold").
		Str("module", "marketplace/ad-service").
		Str("layer", "application").
		Str("kind", string(kind)).
		Int64("ad_id", adID).
		Msg("ad marked sold")
	return nil
}

func (uc OwnerOpsUseCase) checkOwner(ctx context.Context, telegramID int64, kind entities.AdKind, adID int64) error {
	ad, err := uc.Repository.GetAd(ctx, kind, adID)
	if err != nil {
		return err
	}
	owner, err := uc.Repository.GetUserByID(ctx, ad.Common().UserID)
	if err != nil {
		return err
	}
	if owner.TelegramID != telegramID {
		return domainerrors.ErrForbidden
	}
	return nil
}
