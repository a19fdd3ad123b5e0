// Package queries holds the read-side use cases: public catalog
// browsing, owner profile views and the moderation queue.
package queries

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"adboard/contexts/marketplace/ad-service/domain/entities"
	"adboard/contexts/marketplace/ad-service/ports"
)

const defaultPageSize = 20

// AdDetail is a fully hydrated ad for the detail page.
type AdDetail struct {
	Ad       entities.Ad
	Photos   []entities.Photo
	Favorite bool
}

// AdSummary is a list card: the ad plus its cover photo reference.
type AdSummary struct {
	Ad       entities.Ad
	CoverRef string
}

type Stats struct {
	Cars   map[entities.AdStatus]int64
	Plates map[entities.AdStatus]int64
}

type QueriesUseCase struct {
	Repository ports.Repository
	Logger     zerolog.Logger
}

// GetAd loads the detail view and, for an identified viewer, records a
// unique view. The counter bumps at most once per viewer per ad.
func (uc QueriesUseCase) GetAd(ctx context.Context, kind entities.AdKind, adID int64, viewerTelegramID int64) (AdDetail, error) {
	ad, err := uc.Repository.GetAd(ctx, kind, adID)
	if err != nil {
		return AdDetail{}, err
	}
	photos, err := uc.Repository.ListPhotos(ctx, kind, adID)
	if err != nil {
		return AdDetail{}, err
	}
	detail := AdDetail{Ad: ad, Photos: photos}

	if viewerTelegramID == 0 {
		return detail, nil
	}
	viewer, err := uc.Repository.GetUserByTelegramID(ctx, viewerTelegramID)
	if err != nil {
		// Anonymous or unknown viewers still get the page.
		return detail, nil
	}
	if counted, err := uc.Repository.RecordView(ctx, viewer.ID, kind, adID); err != nil {
		uc.Logger.Warn().Err(err).Int64("ad_id", adID).Msg("view tracking failed")
	} else if counted {
		ad.Common().ViewCount++
	}
	for _, fav := range uc.favoriteSet(ctx, viewer.ID) {
		if fav.Kind == kind && fav.AdID == adID {
			detail.Favorite = true
			break
		}
	}
	return detail, nil
}

// ListApproved pages through the public catalog, newest first.
func (uc QueriesUseCase) ListApproved(ctx context.Context, filter ports.AdFilter) ([]AdSummary, error) {
	filter.Status = entities.AdStatusApproved
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	ads, err := uc.Repository.ListAds(ctx, filter)
	if err != nil {
		return nil, err
	}
	return uc.summaries(ctx, ads)
}

// ListUserAds returns everything the owner ever posted, regardless of
// status, newest first.
func (uc QueriesUseCase) ListUserAds(ctx context.Context, telegramID int64) ([]AdSummary, error) {
	user, err := uc.Repository.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	var all []entities.Ad
	for _, kind := range []entities.AdKind{entities.AdKindCar, entities.AdKindPlate} {
		ads, err := uc.Repository.ListAds(ctx, ports.AdFilter{Kind: kind, UserID: user.ID})
		if err != nil {
			return nil, err
		}
		all = append(all, ads...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Common().CreatedAt.After(all[j].Common().CreatedAt)
	})
	return uc.summaries(ctx, all)
}

// ListFavorites resolves the user's saved ads. Ads that disappeared keep
// their favorite rows but are skipped here.
func (uc QueriesUseCase) ListFavorites(ctx context.Context, telegramID int64) ([]AdSummary, error) {
	user, err := uc.Repository.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	favorites := uc.favoriteSet(ctx, user.ID)
	var ads []entities.Ad
	for _, fav := range favorites {
		ad, err := uc.Repository.GetAd(ctx, fav.Kind, fav.AdID)
		if err != nil {
			continue
		}
		ads = append(ads, ad)
	}
	return uc.summaries(ctx, ads)
}

// PendingModeration returns the moderation queue: cars first, then
// plates, oldest submissions first within each kind.
func (uc QueriesUseCase) PendingModeration(ctx context.Context) ([]AdDetail, error) {
	var out []AdDetail
	for _, kind := range []entities.AdKind{entities.AdKindCar, entities.AdKindPlate} {
		ads, err := uc.Repository.ListAds(ctx, ports.AdFilter{Kind: kind, Status: entities.AdStatusPending})
		if err != nil {
			return nil, err
		}
		sort.SliceStable(ads, func(i, j int) bool {
			return ads[i].Common().CreatedAt.Before(ads[j].Common().CreatedAt)
		})
		for _, ad := range ads {
			photos, err := uc.Repository.ListPhotos(ctx, kind, ad.Common().ID)
			if err != nil {
				return nil, err
			}
			out = append(out, AdDetail{Ad: ad, Photos: photos})
		}
	}
	return out, nil
}

func (uc QueriesUseCase) Stats(ctx context.Context) (Stats, error) {
	cars, err := uc.Repository.CountByStatus(ctx, entities.AdKindCar)
	if err != nil {
		return Stats{}, err
	}
	plates, err := uc.Repository.CountByStatus(ctx, entities.AdKindPlate)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Cars: cars, Plates: plates}, nil
}

func (uc QueriesUseCase) Profile(ctx context.Context, telegramID int64) (entities.User, error) {
	return uc.Repository.GetUserByTelegramID(ctx, telegramID)
}

func (uc QueriesUseCase) Brands(ctx context.Context) ([]string, error) {
	return uc.Repository.ApprovedBrands(ctx)
}

func (uc QueriesUseCase) Models(ctx context.Context, brand string) ([]string, error) {
	return uc.Repository.ApprovedModels(ctx, brand)
}

func (uc QueriesUseCase) Cities(ctx context.Context, kind entities.AdKind) ([]string, error) {
	return uc.Repository.ApprovedCities(ctx, kind)
}

func (uc QueriesUseCase) summaries(ctx context.Context, ads []entities.Ad) ([]AdSummary, error) {
	byKind := map[entities.AdKind][]int64{}
	for _, ad := range ads {
		byKind[ad.Kind()] = append(byKind[ad.Kind()], ad.Common().ID)
	}
	covers := map[entities.AdKind]map[int64]string{}
	for kind, ids := range byKind {
		refs, err := uc.Repository.CoverPhotoRefs(ctx, kind, ids)
		if err != nil {
			return nil, err
		}
		covers[kind] = refs
	}
	out := make([]AdSummary, 0, len(ads))
	for _, ad := range ads {
		out = append(out, AdSummary{Ad: ad, CoverRef: covers[ad.Kind()][ad.Common().ID]})
	}
	return out, nil
}

func (uc QueriesUseCase) favoriteSet(ctx context.Context, userID int64) []entities.Favorite {
	favorites, err := uc.Repository.ListFavorites(ctx, userID)
	if err != nil {
		uc.Logger.Warn().Err(err).Int64("user_id", userID).Msg("favorites lookup failed")
		return nil
	}
	return favorites
}
