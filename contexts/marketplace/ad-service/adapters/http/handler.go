// Package httpadapter translates API payloads into use case calls. It
// is transport agnostic: the platform HTTP server owns routing, status
// codes and JSON wiring.
package httpadapter

import (
	"context"

	"github.com/rs/zerolog"

	"adboard/contexts/marketplace/ad-service/application/commands"
	"adboard/contexts/marketplace/ad-service/application/queries"
	"adboard/contexts/marketplace/ad-service/domain/entities"
	domainerrors "adboard/contexts/marketplace/ad-service/domain/errors"
	"adboard/contexts/marketplace/ad-service/ports"
	httptransport "adboard/contexts/marketplace/ad-service/transport/http"
)

// Caller identifies the authenticated mini-app user, taken from the
// verified init data.
type Caller struct {
	TelegramID int64
	Username   string
	FullName   string
}

type Handler struct {
	SubmitAd     commands.SubmitAdUseCase
	EditAd       commands.EditAdUseCase
	OwnerOps     commands.OwnerOpsUseCase
	Moderate     commands.ModerateAdUseCase
	Favorites    commands.FavoritesUseCase
	Queries      queries.QueriesUseCase
	PhotoURLBase string
	Logger       zerolog.Logger
}

func (h Handler) SubmitAdHandler(ctx context.Context, caller Caller, req httptransport.SubmitAdRequest) (httptransport.SubmitAdResponse, error) {
	kind := entities.AdKind(req.Kind)
	if !kind.Valid() {
		return httptransport.SubmitAdResponse{}, domainerrors.ErrInvalidAdKind
	}
	cmd := commands.SubmitAdCommand{
		TelegramID: caller.TelegramID,
		Username:   caller.Username,
		FullName:   caller.FullName,
		Kind:       kind,
		PhotoRefs:  append([]string(nil), req.PhotoIDs...),
		Force:      req.Force,
	}
	switch kind {
	case entities.AdKindCar:
		cmd.Car = &commands.CarFields{
			Brand:        req.Brand,
			Model:        req.Model,
			Year:         req.Year,
			Mileage:      req.Mileage,
			EngineVolume: req.EngineVolume,
			FuelType:     req.FuelType,
			Transmission: req.Transmission,
			Color:        req.Color,
			HasLPG:       req.HasLPG,
		}
	case entities.AdKindPlate:
		cmd.Plate = &commands.PlateFields{PlateNumber: req.PlateNumber}
	}
	result, err := h.SubmitAd.Execute(ctx, cmd, commands.CommonFields{
		Price:           req.Price,
		Description:     req.Description,
		Region:          req.Region,
		City:            req.City,
		ContactPhone:    req.ContactPhone,
		ContactTelegram: req.ContactTelegram,
	})
	if err != nil {
		return httptransport.SubmitAdResponse{}, err
	}
	return httptransport.SubmitAdResponse{
		Ad:               adPayload(result.Ad),
		Published:        result.Published,
		CollectingPhotos: result.CollectingPhotos,
	}, nil
}

func (h Handler) EditAdHandler(ctx context.Context, caller Caller, kind string, adID int64, req httptransport.EditAdRequest) (httptransport.AdPayload, error) {
	adKind := entities.AdKind(kind)
	if !adKind.Valid() {
		return httptransport.AdPayload{}, domainerrors.ErrInvalidAdKind
	}
	ad, err := h.EditAd.Execute(ctx, commands.EditAdCommand{
		TelegramID:      caller.TelegramID,
		Kind:            adKind,
		AdID:            adID,
		Brand:           req.Brand,
		Model:           req.Model,
		Year:            req.Year,
		Mileage:         req.Mileage,
		EngineVolume:    req.EngineVolume,
		FuelType:        req.FuelType,
		Transmission:    req.Transmission,
		Color:           req.Color,
		HasLPG:          req.HasLPG,
		PlateNumber:     req.PlateNumber,
		Price:           req.Price,
		Description:     req.Description,
		Region:          req.Region,
		City:            req.City,
		ContactPhone:    req.ContactPhone,
		ContactTelegram: req.ContactTelegram,
	})
	if err != nil {
		return httptransport.AdPayload{}, err
	}
	return adPayload(ad), nil
}

func (h Handler) DeleteAdHandler(ctx context.Context, caller Caller, kind string, adID int64) error {
	adKind := entities.AdKind(kind)
	if !adKind.Valid() {
		return domainerrors.ErrInvalidAdKind
	}
	return h.OwnerOps.SoftDelete(ctx, caller.TelegramID, adKind, adID)
}

func (h Handler) MarkSoldHandler(ctx context.Context, caller Caller, kind string, adID int64) error {
	adKind := entities.AdKind(kind)
	if !adKind.Valid() {
		return domainerrors.ErrInvalidAdKind
	}
	return h.OwnerOps.MarkSold(ctx, caller.TelegramID, adKind, adID)
}

func (h Handler) GetAdHandler(ctx context.Context, viewerTelegramID int64, kind string, adID int64) (httptransport.AdDetailResponse, error) {
	adKind := entities.AdKind(kind)
	if !adKind.Valid() {
		return httptransport.AdDetailResponse{}, domainerrors.ErrInvalidAdKind
	}
	detail, err := h.Queries.GetAd(ctx, adKind, adID, viewerTelegramID)
	if err != nil {
		return httptransport.AdDetailResponse{}, err
	}
	urls := make([]string, 0, len(detail.Photos))
	for _, photo := range detail.Photos {
		urls = append(urls, h.photoURL(photo.FileRef))
	}
	return httptransport.AdDetailResponse{
		Ad:        adPayload(detail.Ad),
		PhotoURLs: urls,
		Favorite:  detail.Favorite,
	}, nil
}

func (h Handler) ListAdsHandler(ctx context.Context, kind, brand, model, city string, offset, limit int) (httptransport.AdListResponse, error) {
	adKind := entities.AdKind(kind)
	if !adKind.Valid() {
		return httptransport.AdListResponse{}, domainerrors.ErrInvalidAdKind
	}
	summaries, err := h.Queries.ListApproved(ctx, ports.AdFilter{
		Kind:   adKind,
		Brand:  brand,
		Model:  model,
		City:   city,
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		return httptransport.AdListResponse{}, err
	}
	return h.listResponse(summaries), nil
}

func (h Handler) MyAdsHandler(ctx context.Context, caller Caller) (httptransport.AdListResponse, error) {
	summaries, err := h.Queries.ListUserAds(ctx, caller.TelegramID)
	if err != nil {
		return httptransport.AdListResponse{}, err
	}
	return h.listResponse(summaries), nil
}

func (h Handler) ProfileHandler(ctx context.Context, caller Caller) (httptransport.ProfileResponse, error) {
	user, err := h.Queries.Profile(ctx, caller.TelegramID)
	if err != nil {
		return httptransport.ProfileResponse{}, err
	}
	summaries, err := h.Queries.ListUserAds(ctx, caller.TelegramID)
	if err != nil {
		return httptransport.ProfileResponse{}, err
	}
	return httptransport.ProfileResponse{
		TelegramID: user.TelegramID,
		Username:   user.Username,
		FullName:   user.FullName,
		Phone:      user.Phone,
		IsAdmin:    user.IsAdmin,
		Ads:        h.listResponse(summaries).Ads,
	}, nil
}

func (h Handler) AddFavoriteHandler(ctx context.Context, caller Caller, kind string, adID int64) error {
	adKind := entities.AdKind(kind)
	if !adKind.Valid() {
		return domainerrors.ErrInvalidAdKind
	}
	return h.Favorites.Add(ctx, caller.TelegramID, adKind, adID)
}

func (h Handler) RemoveFavoriteHandler(ctx context.Context, caller Caller, kind string, adID int64) error {
	adKind := entities.AdKind(kind)
	if !adKind.Valid() {
		return domainerrors.ErrInvalidAdKind
	}
	return h.Favorites.Remove(ctx, caller.TelegramID, adKind, adID)
}

func (h Handler) ListFavoritesHandler(ctx context.Context, caller Caller) (httptransport.AdListResponse, error) {
	summaries, err := h.Queries.ListFavorites(ctx, caller.TelegramID)
	if err != nil {
		return httptransport.AdListResponse{}, err
	}
	return h.listResponse(summaries), nil
}

func (h Handler) BrandsHandler(ctx context.Context) (httptransport.FacetsResponse, error) {
	values, err := h.Queries.Brands(ctx)
	if err != nil {
		return httptransport.FacetsResponse{}, err
	}
	return httptransport.FacetsResponse{Values: values}, nil
}

func (h Handler) ModelsHandler(ctx context.Context, brand string) (httptransport.FacetsResponse, error) {
	values, err := h.Queries.Models(ctx, brand)
	if err != nil {
		return httptransport.FacetsResponse{}, err
	}
	return httptransport.FacetsResponse{Values: values}, nil
}

func (h Handler) CitiesHandler(ctx context.Context, kind string) (httptransport.FacetsResponse, error) {
	adKind := entities.AdKind(kind)
	if !adKind.Valid() {
		return httptransport.FacetsResponse{}, domainerrors.ErrInvalidAdKind
	}
	values, err := h.Queries.Cities(ctx, adKind)
	if err != nil {
		return httptransport.FacetsResponse{}, err
	}
	return httptransport.FacetsResponse{Values: values}, nil
}

func (h Handler) PendingAdsHandler(ctx context.Context) ([]httptransport.AdDetailResponse, error) {
	pending, err := h.Queries.PendingModeration(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]httptransport.AdDetailResponse, 0, len(pending))
	for _, detail := range pending {
		urls := make([]string, 0, len(detail.Photos))
		for _, photo := range detail.Photos {
			urls = append(urls, h.photoURL(photo.FileRef))
		}
		out = append(out, httptransport.AdDetailResponse{Ad: adPayload(detail.Ad), PhotoURLs: urls})
	}
	return out, nil
}

func (h Handler) StatsHandler(ctx context.Context) (httptransport.StatsResponse, error) {
	stats, err := h.Queries.Stats(ctx)
	if err != nil {
		return httptransport.StatsResponse{}, err
	}
	return httptransport.StatsResponse{
		Cars:   statusCounts(stats.Cars),
		Plates: statusCounts(stats.Plates),
	}, nil
}

func (h Handler) ApproveAdHandler(ctx context.Context, kind string, adID int64) error {
	adKind := entities.AdKind(kind)
	if !adKind.Valid() {
		return domainerrors.ErrInvalidAdKind
	}
	_, err := h.Moderate.Approve(ctx, adKind, adID)
	return err
}

func (h Handler) RejectAdHandler(ctx context.Context, kind string, adID int64, req httptransport.RejectAdRequest) error {
	adKind := entities.AdKind(kind)
	if !adKind.Valid() {
		return domainerrors.ErrInvalidAdKind
	}
	_, err := h.Moderate.Reject(ctx, adKind, adID, req.Reason)
	return err
}

func (h Handler) listResponse(summaries []queries.AdSummary) httptransport.AdListResponse {
	ads := make([]httptransport.AdSummaryPayload, 0, len(summaries))
	for _, summary := range summaries {
		payload := httptransport.AdSummaryPayload{Ad: adPayload(summary.Ad)}
		if summary.CoverRef != "" {
			payload.CoverURL = h.photoURL(summary.CoverRef)
		}
		ads = append(ads, payload)
	}
	return httptransport.AdListResponse{Ads: ads}
}

func (h Handler) photoURL(ref string) string {
	base := h.PhotoURLBase
	if base == "" {
		base = "/api/photos/"
	}
	return base + ref
}

func adPayload(ad entities.Ad) httptransport.AdPayload {
	common := ad.Common()
	payload := httptransport.AdPayload{
		ID:              common.ID,
		Kind:            string(ad.Kind()),
		Price:           common.Price,
		Description:     common.Description,
		Region:          common.Region,
		City:            common.City,
		ContactPhone:    common.ContactPhone,
		ContactTelegram: common.ContactTelegram,
		Status:          string(common.Status),
		RejectionReason: common.RejectionReason,
		ViewCount:       common.ViewCount,
		ExpiresAt:       common.ExpiresAt,
		CreatedAt:       common.CreatedAt,
		UpdatedAt:       common.UpdatedAt,
	}
	switch concrete := ad.(type) {
	case *entities.CarAd:
		payload.Brand = concrete.Brand
		payload.Model = concrete.Model
		payload.Year = concrete.Year
		payload.Mileage = concrete.Mileage
		payload.EngineVolume = concrete.EngineVolume
		payload.FuelType = string(concrete.FuelType)
		payload.Transmission = string(concrete.Transmission)
		payload.Color = concrete.Color
		payload.HasLPG = concrete.HasLPG
	case *entities.PlateAd:
		payload.PlateNumber = concrete.PlateNumber
	}
	return payload
}

func statusCounts(counts map[entities.AdStatus]int64) map[string]int64 {
	out := make(map[string]int64, len(counts))
	for status, count := range counts {
		out[string(status)] = count
	}
	return out
}
