// Package memory is the in-process repository used by tests and the
// in-memory module wiring. It mirrors the postgres adapter's semantics,
// including conditional status updates and unique views, and doubles as
// a settable clock.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"adboard/contexts/marketplace/ad-service/domain/entities"
	domainerrors "adboard/contexts/marketplace/ad-service/domain/errors"
	"adboard/contexts/marketplace/ad-service/ports"
)

type Store struct {
	mu sync.RWMutex

	users      map[int64]entities.User
	usersByTG  map[int64]int64
	nextUserID int64

	ads      map[entities.AdKind]map[int64]entities.Ad
	nextAdID map[entities.AdKind]int64

	photos      []entities.Photo
	nextPhotoID int64

	views map[string]struct{}

	favorites []entities.Favorite
	nextFavID int64

	now time.Time
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]entities.User),
		usersByTG: make(map[int64]int64),
		ads: map[entities.AdKind]map[int64]entities.Ad{
			entities.AdKindCar:   {},
			entities.AdKindPlate: {},
		},
		nextAdID: map[entities.AdKind]int64{},
		views:    make(map[string]struct{}),
	}
}

// Now returns the simulated time when set, otherwise the wall clock.
func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}

func (s *Store) SetNow(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = t.UTC()
}

func (s *Store) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.now.IsZero() {
		s.now = time.Now().UTC()
	}
	s.now = s.now.Add(d)
}

func (s *Store) UpsertUserByTelegramID(_ context.Context, user entities.User) (entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, exists := s.usersByTG[user.TelegramID]; exists {
		existing := s.users[id]
		if user.Username != "" {
			existing.Username = user.Username
		}
		if user.FullName != "" {
			existing.FullName = user.FullName
		}
		if user.Phone != "" {
			existing.Phone = user.Phone
		}
		existing.UpdatedAt = s.clockLocked()
		s.users[id] = existing
		return existing, nil
	}

	s.nextUserID++
	user.ID = s.nextUserID
	user.CreatedAt = s.clockLocked()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	s.usersByTG[user.TelegramID] = user.ID
	return user, nil
}

func (s *Store) GetUserByTelegramID(_ context.Context, telegramID int64) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, exists := s.usersByTG[telegramID]
	if !exists {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *Store) GetUserByID(_ context.Context, id int64) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, exists := s.users[id]
	if !exists {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) SetUserBanned(_ context.Context, telegramID int64, banned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, exists := s.usersByTG[telegramID]
	if !exists {
		return domainerrors.ErrUserNotFound
	}
	user := s.users[id]
	user.IsBanned = banned
	user.UpdatedAt = s.clockLocked()
	s.users[id] = user
	return nil
}

func (s *Store) CreateAd(_ context.Context, ad entities.Ad, photoRefs []string) (entities.Ad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kind := ad.Kind()
	s.nextAdID[kind]++
	stored := cloneAd(ad)
	stored.Common().ID = s.nextAdID[kind]
	s.ads[kind][stored.Common().ID] = stored

	for i, ref := range photoRefs {
		s.nextPhotoID++
		s.photos = append(s.photos, entities.Photo{
			ID:        s.nextPhotoID,
			Kind:      kind,
			AdID:      stored.Common().ID,
			FileRef:   ref,
			Position:  i,
			CreatedAt: s.clockLocked(),
		})
	}
	return cloneAd(stored), nil
}

func (s *Store) GetAd(_ context.Context, kind entities.AdKind, adID int64) (entities.Ad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ad, exists := s.adsByKind(kind)[adID]
	if !exists {
		return nil, domainerrors.ErrAdNotFound
	}
	return cloneAd(ad), nil
}

func (s *Store) UpdateAd(_ context.Context, ad entities.Ad, expected entities.AdStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kind := ad.Kind()
	existing, exists := s.adsByKind(kind)[ad.Common().ID]
	if !exists || existing.Common().Status != expected {
		return domainerrors.ErrAdNotFound
	}
	stored := cloneAd(ad)
	// Counters and channel bookkeeping are owned by other writes.
	stored.Common().ViewCount = existing.Common().ViewCount
	stored.Common().ChannelMessageID = existing.Common().ChannelMessageID
	stored.Common().CreatedAt = existing.Common().CreatedAt
	s.ads[kind][stored.Common().ID] = stored
	return nil
}

func (s *Store) TransitionStatus(_ context.Context, kind entities.AdKind, adID int64, from []entities.AdStatus, to entities.AdStatus, reason string) (entities.Ad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ad, exists := s.adsByKind(kind)[adID]
	if !exists {
		return nil, domainerrors.ErrAdNotFound
	}
	matched := false
	for _, status := range from {
		if ad.Common().Status == status {
			matched = true
			break
		}
	}
	if !matched {
		return nil, domainerrors.ErrAdNotFound
	}
	ad.Common().Status = to
	ad.Common().RejectionReason = reason
	ad.Common().UpdatedAt = s.clockLocked()
	return cloneAd(ad), nil
}

func (s *Store) HasRecentDuplicate(_ context.Context, probe ports.DuplicateProbe) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ad := range s.adsByKind(probe.Kind) {
		common := ad.Common()
		if common.UserID != probe.UserID {
			continue
		}
		if common.Status == entities.AdStatusRejected {
			continue
		}
		if common.CreatedAt.Before(probe.Since) {
			continue
		}
		switch concrete := ad.(type) {
		case *entities.CarAd:
			if strings.EqualFold(concrete.Brand, probe.Brand) &&
				strings.EqualFold(concrete.Model, probe.Model) &&
				concrete.Year == probe.Year {
				return true, nil
			}
		case *entities.PlateAd:
			if strings.EqualFold(concrete.PlateNumber, probe.PlateNumber) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *Store) ListAds(_ context.Context, filter ports.AdFilter) ([]entities.Ad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entities.Ad
	for _, ad := range s.adsByKind(filter.Kind) {
		common := ad.Common()
		if filter.Status != "" && common.Status != filter.Status {
			continue
		}
		if filter.UserID != 0 && common.UserID != filter.UserID {
			continue
		}
		if filter.City != "" && !strings.EqualFold(common.City, filter.City) {
			continue
		}
		if car, ok := ad.(*entities.CarAd); ok {
			if filter.Brand != "" && !strings.EqualFold(car.Brand, filter.Brand) {
				continue
			}
			if filter.Model != "" && !strings.EqualFold(car.Model, filter.Model) {
				continue
			}
		} else if filter.Brand != "" || filter.Model != "" {
			continue
		}
		out = append(out, cloneAd(ad))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Common().CreatedAt.After(out[j].Common().CreatedAt)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) SetChannelMessageID(_ context.Context, kind entities.AdKind, adID int64, messageID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ad, exists := s.adsByKind(kind)[adID]
	if !exists {
		return domainerrors.ErrAdNotFound
	}
	ad.Common().ChannelMessageID = messageID
	return nil
}

func (s *Store) SetExpiresAt(_ context.Context, kind entities.AdKind, adID int64, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ad, exists := s.adsByKind(kind)[adID]
	if !exists {
		return domainerrors.ErrAdNotFound
	}
	expires := expiresAt
	ad.Common().ExpiresAt = &expires
	return nil
}

func (s *Store) CountByStatus(_ context.Context, kind entities.AdKind) (map[entities.AdStatus]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[entities.AdStatus]int64)
	for _, ad := range s.adsByKind(kind) {
		out[ad.Common().Status]++
	}
	return out, nil
}

func (s *Store) AddPhoto(_ context.Context, photo entities.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.adsByKind(photo.Kind)[photo.AdID]; !exists {
		return domainerrors.ErrAdNotFound
	}
	s.nextPhotoID++
	photo.ID = s.nextPhotoID
	if photo.CreatedAt.IsZero() {
		photo.CreatedAt = s.clockLocked()
	}
	s.photos = append(s.photos, photo)
	return nil
}

func (s *Store) ListPhotos(_ context.Context, kind entities.AdKind, adID int64) ([]entities.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entities.Photo
	for _, photo := range s.photos {
		if photo.Kind == kind && photo.AdID == adID {
			out = append(out, photo)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *Store) CoverPhotoRefs(_ context.Context, kind entities.AdKind, adIDs []int64) (map[int64]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[int64]struct{}, len(adIDs))
	for _, id := range adIDs {
		wanted[id] = struct{}{}
	}
	out := make(map[int64]string)
	for _, photo := range s.photos {
		if photo.Kind != kind || photo.Position != 0 {
			continue
		}
		if _, ok := wanted[photo.AdID]; ok {
			out[photo.AdID] = photo.FileRef
		}
	}
	return out, nil
}

func (s *Store) RecordView(_ context.Context, viewerID int64, kind entities.AdKind, adID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ad, exists := s.adsByKind(kind)[adID]
	if !exists {
		return false, domainerrors.ErrAdNotFound
	}
	key := viewKey(viewerID, kind, adID)
	if _, seen := s.views[key]; seen {
		return false, nil
	}
	s.views[key] = struct{}{}
	ad.Common().ViewCount++
	return true, nil
}

func (s *Store) AddFavorite(_ context.Context, userID int64, kind entities.AdKind, adID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fav := range s.favorites {
		if fav.UserID == userID && fav.Kind == kind && fav.AdID == adID {
			return domainerrors.ErrFavoriteExists
		}
	}
	s.nextFavID++
	s.favorites = append(s.favorites, entities.Favorite{
		ID:        s.nextFavID,
		UserID:    userID,
		Kind:      kind,
		AdID:      adID,
		CreatedAt: s.clockLocked(),
	})
	return nil
}

func (s *Store) RemoveFavorite(_ context.Context, userID int64, kind entities.AdKind, adID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, fav := range s.favorites {
		if fav.UserID == userID && fav.Kind == kind && fav.AdID == adID {
			s.favorites = append(s.favorites[:i], s.favorites[i+1:]...)
			return nil
		}
	}
	return domainerrors.ErrFavoriteNotFound
}

func (s *Store) ListFavorites(_ context.Context, userID int64) ([]entities.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entities.Favorite
	for _, fav := range s.favorites {
		if fav.UserID == userID {
			out = append(out, fav)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ApprovedBrands(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, ad := range s.ads[entities.AdKindCar] {
		if car, ok := ad.(*entities.CarAd); ok && car.Status == entities.AdStatusApproved {
			seen[car.Brand] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

func (s *Store) ApprovedModels(_ context.Context, brand string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, ad := range s.ads[entities.AdKindCar] {
		if car, ok := ad.(*entities.CarAd); ok && car.Status == entities.AdStatusApproved && strings.EqualFold(car.Brand, brand) {
			seen[car.Model] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

func (s *Store) ApprovedCities(_ context.Context, kind entities.AdKind) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, ad := range s.adsByKind(kind) {
		if ad.Common().Status == entities.AdStatusApproved && ad.Common().City != "" {
			seen[ad.Common().City] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

func (s *Store) adsByKind(kind entities.AdKind) map[int64]entities.Ad {
	if ads, ok := s.ads[kind]; ok {
		return ads
	}
	return map[int64]entities.Ad{}
}

func (s *Store) clockLocked() time.Time {
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}

func viewKey(viewerID int64, kind entities.AdKind, adID int64) string {
	return fmt.Sprintf("%d:%s:%d", viewerID, kind, adID)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func cloneAd(ad entities.Ad) entities.Ad {
	switch concrete := ad.(type) {
	case *entities.CarAd:
		copied := *concrete
		copied.AdCommon = cloneCommon(concrete.AdCommon)
		return &copied
	case *entities.PlateAd:
		copied := *concrete
		copied.AdCommon = cloneCommon(concrete.AdCommon)
		return &copied
	default:
		return ad
	}
}

func cloneCommon(common entities.AdCommon) entities.AdCommon {
	if common.ExpiresAt != nil {
		expires := *common.ExpiresAt
		common.ExpiresAt = &expires
	}
	return common
}
