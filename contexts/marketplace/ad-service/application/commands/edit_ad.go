package commands

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"adboard/contexts/marketplace/ad-service/domain/entities"
	domainerrors "adboard/contexts/marketplace/ad-service/domain/errors"
	"adboard/contexts/marketplace/ad-service/domain/validate"
	"adboard/contexts/marketplace/ad-service/ports"
)

// EditAdCommand is a partial update. Nil pointers mean "leave as is";
// the merged result is validated as a whole before anything is written.
type EditAdCommand struct {
	TelegramID int64
	Kind       entities.AdKind
	AdID       int64

	Brand        *string
	Model        *string
	Year         *int
	Mileage      *int
	EngineVolume *float64
	FuelType     *string
	Transmission *string
	Color        *string
	HasLPG       *bool

	PlateNumber *string

	Price           *int64
	Description     *string
	Region          *string
	City            *string
	ContactPhone    *string
	ContactTelegram *string
}

type EditAdUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	Logger     zerolog.Logger
}

func (uc EditAdUseCase) Execute(ctx context.Context, cmd EditAdCommand) (entities.Ad, error) {
	ad, err := uc.Repository.GetAd(ctx, cmd.Kind, cmd.AdID)
	if err != nil {
		return nil, err
	}
	common := ad.Common()
	if common.Status.Terminal() {
		return nil, domainerrors.ErrCannotEditTerminal
	}
	owner, err := uc.Repository.GetUserByID(ctx, common.UserID)
	if err != nil {
		return nil, err
	}
	if owner.TelegramID != cmd.TelegramID {
		return nil, domainerrors.ErrForbidden
	}

	prior := common.Status
	applyCommonPatch(common, cmd)

	now := uc.Clock.Now().UTC()
	switch concrete := ad.(type) {
	case *entities.CarAd:
		applyCarPatch(concrete, cmd)
		if err := validate.CarAd(carInput(concrete), now); err != nil {
			return nil, err
		}
	case *entities.PlateAd:
		if cmd.PlateNumber != nil {
			concrete.PlateNumber = strings.TrimSpace(*cmd.PlateNumber)
		}
		if err := validate.PlateAd(plateInput(concrete)); err != nil {
			return nil, err
		}
	default:
		return nil, domainerrors.ErrInvalidAdKind
	}

	// Edits to a live listing go back through moderation.
	if prior == entities.AdStatusApproved {
		common.Status = entities.AdStatusPending
	}
	common.UpdatedAt = now

	if err := uc.Repository.UpdateAd(ctx, ad, prior); err != nil {
		return nil, err
	}

	uc.Logger.Info().
		Str("event", "ad_edited").
		Str("module", "marketplace/ad-service").
		Str("layer", "application").
		Str("kind", string(cmd.Kind)).
		Int64("ad_id", cmd.AdID).
		Str("status", string(common.Status)).
		Msg("ad edited")
	return ad, nil
}

func applyCommonPatch(common *entities.AdCommon, cmd EditAdCommand) {
	if cmd.Price != nil {
		common.Price = *cmd.Price
	}
	if cmd.Description != nil {
		common.Description = strings.TrimSpace(*cmd.Description)
	}
	if cmd.Region != nil {
		common.Region = strings.TrimSpace(*cmd.Region)
	}
	if cmd.City != nil {
		common.City = strings.TrimSpace(*cmd.City)
	}
	if cmd.ContactPhone != nil {
		common.ContactPhone = strings.TrimSpace(*cmd.ContactPhone)
	}
	if cmd.ContactTelegram != nil {
		common.ContactTelegram = strings.TrimSpace(*cmd.ContactTelegram)
	}
}

func applyCarPatch(car *entities.CarAd, cmd EditAdCommand) {
	if cmd.Brand != nil {
		car.Brand = strings.TrimSpace(*cmd.Brand)
	}
	if cmd.Model != nil {
		car.Model = strings.TrimSpace(*cmd.Model)
	}
	if cmd.Year != nil {
		car.Year = *cmd.Year
	}
	if cmd.Mileage != nil {
		car.Mileage = *cmd.Mileage
	}
	if cmd.EngineVolume != nil {
		car.EngineVolume = *cmd.EngineVolume
	}
	if cmd.FuelType != nil {
		car.FuelType = entities.FuelType(strings.TrimSpace(*cmd.FuelType))
	}
	if cmd.Transmission != nil {
		car.Transmission = entities.Transmission(strings.TrimSpace(*cmd.Transmission))
	}
	if cmd.Color != nil {
		car.Color = strings.TrimSpace(*cmd.Color)
	}
	if cmd.HasLPG != nil {
		car.HasLPG = *cmd.HasLPG
	}
}
