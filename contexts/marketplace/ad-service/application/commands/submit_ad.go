package commands

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"adboard/contexts/marketplace/ad-service/domain/entities"
	domainerrors "adboard/contexts/marketplace/ad-service/domain/errors"
	"adboard/contexts/marketplace/ad-service/domain/validate"
	"adboard/contexts/marketplace/ad-service/ports"
	"adboard/contexts/marketplace/ad-service/texts"
)

// SubmitAdCommand carries one new listing. Exactly one of Car or Plate is
// set, matching Kind.
type SubmitAdCommand struct {
	TelegramID int64
	Username   string
	FullName   string
	Phone      string

	Kind  entities.AdKind
	Car   *CarFields
	Plate *PlateFields

	// PhotoRefs are local upload references collected by the mini-app
	// before submission. Unknown or foreign refs are dropped silently.
	PhotoRefs []string

	// Force skips the recent-duplicate check.
	Force bool
}

type CarFields struct {
	Brand        string
	Model        string
	Year         int
	Mileage      int
	EngineVolume float64
	FuelType     string
	Transmission string
	Color        string
	HasLPG       bool
}

type PlateFields struct {
	PlateNumber string
}

// CommonFields apply to both kinds.
type CommonFields struct {
	Price           int64
	Description     string
	Region          string
	City            string
	ContactPhone    string
	ContactTelegram string
}

type SubmitAdUseCase struct {
	Repository ports.Repository
	Limiter    ports.Limiter
	Blobs      ports.PhotoBlobs
	Publisher  ports.AdPublisher
	Notifier   ports.Notifier
	Collector  ports.CollectorStarter
	Clock      ports.Clock
	Logger     zerolog.Logger
}

type SubmitAdResult struct {
	Ad entities.Ad
	// Published reports whether the ad skipped moderation because the
	// submission already carried photos.
	Published bool
	// CollectingPhotos reports that a photo collection session was opened
	// for the owner and the ad is waiting for moderation.
	CollectingPhotos bool
}

func (uc SubmitAdUseCase) Execute(ctx context.Context, cmd SubmitAdCommand, common CommonFields) (SubmitAdResult, error) {
	if denied, message := uc.Limiter.Check(rateLimitKey(cmd.TelegramID)); denied {
		return SubmitAdResult{}, &domainerrors.RateLimitError{Message: message}
	}

	now := uc.Clock.Now().UTC()
	ad, err := buildAd(cmd, common, now)
	if err != nil {
		return SubmitAdResult{}, err
	}

	// The user row is touched only once the payload is known to be valid.
	user, err := uc.Repository.UpsertUserByTelegramID(ctx, entities.User{
		TelegramID: cmd.TelegramID,
		Username:   strings.TrimSpace(cmd.Username),
		FullName:   strings.TrimSpace(cmd.FullName),
		Phone:      strings.TrimSpace(cmd.Phone),
	})
	if err != nil {
		return SubmitAdResult{}, err
	}
	if user.IsBanned {
		return SubmitAdResult{}, domainerrors.ErrUserBanned
	}
	ad.Common().UserID = user.ID

	if !cmd.Force {
		probe := duplicateProbe(ad, now)
		duplicate, err := uc.Repository.HasRecentDuplicate(ctx, probe)
		if err != nil {
			return SubmitAdResult{}, err
		}
		if duplicate {
			return SubmitAdResult{}, domainerrors.ErrDuplicateAd
		}
	}

	refs := uc.usablePhotoRefs(cmd.PhotoRefs, cmd.Kind.MaxPhotos())
	if len(refs) > 0 {
		// Photos attached up front mean the owner finished the flow in the
		// mini-app, so the listing goes straight to the channel.
		ad.Common().Status = entities.AdStatusApproved
	}

	created, err := uc.Repository.CreateAd(ctx, ad, refs)
	if err != nil {
		return SubmitAdResult{}, err
	}

	result := SubmitAdResult{Ad: created, Published: len(refs) > 0}
	uc.Logger.Info().
		Str("event", "ad_submitted").
		Str("module", "marketplace/ad-service").
		Str("layer", "application").
		Str("kind", string(cmd.Kind)).
		Int64("ad_id", created.Common().ID).
		Int64("telegram_id", cmd.TelegramID).
		Bool("published", result.Published).
		Msg("ad submitted")

	// Everything below is best effort. The ad is committed; a failed
	// notification or publish must not fail the submission.
	if result.Published {
		uc.notify(ctx, cmd.TelegramID, createdText(cmd.Kind))
		if err := uc.Publisher.Publish(ctx, created); err != nil {
			uc.Logger.Warn().Err(err).Int64("ad_id", created.Common().ID).Msg("channel publish failed")
		}
		return result, nil
	}

	uc.notify(ctx, cmd.TelegramID, createdText(cmd.Kind))
	if uc.Collector != nil {
		superseded := uc.Collector.Start(ctx, cmd.TelegramID, cmd.Kind, created.Common().ID)
		if superseded {
			uc.notify(ctx, cmd.TelegramID, texts.SessionSuperseded)
		}
		result.CollectingPhotos = true
		if uc.Notifier != nil {
			if err := uc.Notifier.PromptPhotos(ctx, cmd.TelegramID); err != nil {
				uc.Logger.Warn().Err(err).Int64("telegram_id", cmd.TelegramID).Msg("photo prompt failed")
			}
		}
	}
	return result, nil
}

func (uc SubmitAdUseCase) notify(ctx context.Context, telegramID int64, text string) {
	if uc.Notifier == nil {
		return
	}
	if err := uc.Notifier.NotifyOwner(ctx, telegramID, text); err != nil {
		uc.Logger.Warn().Err(err).Int64("telegram_id", telegramID).Msg("owner notification failed")
	}
}

// usablePhotoRefs keeps only refs that point at blobs this service stored,
// capped at the per-kind maximum.
func (uc SubmitAdUseCase) usablePhotoRefs(refs []string, max int) []string {
	var out []string
	for _, ref := range refs {
		if len(out) == max {
			break
		}
		if uc.Blobs == nil || !uc.Blobs.Exists(ref) {
			continue
		}
		out = append(out, ref)
	}
	return out
}

func buildAd(cmd SubmitAdCommand, common CommonFields, now time.Time) (entities.Ad, error) {
	base := entities.AdCommon{
		Price:           common.Price,
		Description:     strings.TrimSpace(common.Description),
		Region:          strings.TrimSpace(common.Region),
		City:            strings.TrimSpace(common.City),
		ContactPhone:    strings.TrimSpace(common.ContactPhone),
		ContactTelegram: strings.TrimSpace(common.ContactTelegram),
		Status:          entities.AdStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	expires := now.Add(entities.AdExpiry)
	base.ExpiresAt = &expires

	switch cmd.Kind {
	case entities.AdKindCar:
		if cmd.Car == nil {
			return nil, domainerrors.ErrInvalidAdKind
		}
		car := &entities.CarAd{
			AdCommon:     base,
			Brand:        strings.TrimSpace(cmd.Car.Brand),
			Model:        strings.TrimSpace(cmd.Car.Model),
			Year:         cmd.Car.Year,
			Mileage:      cmd.Car.Mileage,
			EngineVolume: cmd.Car.EngineVolume,
			FuelType:     entities.FuelType(strings.TrimSpace(cmd.Car.FuelType)),
			Transmission: entities.Transmission(strings.TrimSpace(cmd.Car.Transmission)),
			Color:        strings.TrimSpace(cmd.Car.Color),
			HasLPG:       cmd.Car.HasLPG,
		}
		if err := validate.CarAd(carInput(car), now); err != nil {
			return nil, err
		}
		return car, nil
	case entities.AdKindPlate:
		if cmd.Plate == nil {
			return nil, domainerrors.ErrInvalidAdKind
		}
		plate := &entities.PlateAd{
			AdCommon:    base,
			PlateNumber: strings.TrimSpace(cmd.Plate.PlateNumber),
		}
		if err := validate.PlateAd(plateInput(plate)); err != nil {
			return nil, err
		}
		return plate, nil
	default:
		return nil, domainerrors.ErrInvalidAdKind
	}
}

func duplicateProbe(ad entities.Ad, now time.Time) ports.DuplicateProbe {
	probe := ports.DuplicateProbe{
		UserID: ad.Common().UserID,
		Kind:   ad.Kind(),
		Since:  now.Add(-entities.DuplicateWindow),
	}
	switch concrete := ad.(type) {
	case *entities.CarAd:
		probe.Brand = concrete.Brand
		probe.Model = concrete.Model
		probe.Year = concrete.Year
	case *entities.PlateAd:
		probe.PlateNumber = concrete.PlateNumber
	}
	return probe
}

func carInput(car *entities.CarAd) validate.CarAdInput {
	return validate.CarAdInput{
		Brand:           car.Brand,
		Model:           car.Model,
		Year:            car.Year,
		Mileage:         car.Mileage,
		EngineVolume:    car.EngineVolume,
		FuelType:        string(car.FuelType),
		Transmission:    string(car.Transmission),
		Color:           car.Color,
		Price:           car.Price,
		Description:     car.Description,
		City:            car.City,
		Region:          car.Region,
		ContactPhone:    car.ContactPhone,
		ContactTelegram: car.ContactTelegram,
	}
}

func plateInput(plate *entities.PlateAd) validate.PlateAdInput {
	return validate.PlateAdInput{
		PlateNumber:     plate.PlateNumber,
		Price:           plate.Price,
		Description:     plate.Description,
		City:            plate.City,
		Region:          plate.Region,
		ContactPhone:    plate.ContactPhone,
		ContactTelegram: plate.ContactTelegram,
	}
}

func createdText(kind entities.AdKind) string {
	if kind == entities.AdKindPlate {
		return texts.PlateAdCreated
	}
	return texts.CarAdCreated
}
