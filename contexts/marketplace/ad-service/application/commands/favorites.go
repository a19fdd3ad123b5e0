package commands

import (
	"context"

	"github.com/rs/zerolog"

	"adboard/contexts/marketplace/ad-service/domain/entities"
	"adboard/contexts/marketplace/ad-service/ports"
)

type FavoritesUseCase struct {
	Repository ports.Repository
	Logger     zerolog.Logger
}

func (uc FavoritesUseCase) Add(ctx context.Context, telegramID int64, kind entities.AdKind, adID int64) error {
	user, err := uc.Repository.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}
	if _, err := uc.Repository.GetAd(ctx, kind, adID); err != nil {
		return err
	}
	if err := uc.Repository.AddFavorite(ctx, user.ID, kind, adID); err != nil {
		return err
	}
	uc.Logger.Debug().
		Str("event", "favorite_added").
		Str("module", "marketplace/ad-service").
		Str("kind", string(kind)).
		Int64("ad_id", adID).
		Int64("user_id", user.ID).
		Msg("favorite added")
	return nil
}

func (uc FavoritesUseCase) Remove(ctx context.Context, telegramID int64, kind entities.AdKind, adID int64) error {
	user, err := uc.Repository.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}
	return uc.Repository.RemoveFavorite(ctx, user.ID, kind, adID)
}
