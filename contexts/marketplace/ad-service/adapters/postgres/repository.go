// Package postgresadapter implements the repository port on gorm.
// Status-dependent writes are conditional updates: the WHERE clause
// carries the expected status set and zero affected rows reports
// ErrAdNotFound, so concurrent decisions never overwrite each other.
package postgresadapter

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jackc/pgx/v5/pgconn"

	"adboard/contexts/marketplace/ad-service/domain/entities"
	domainerrors "adboard/contexts/marketplace/ad-service/domain/errors"
	"adboard/contexts/marketplace/ad-service/ports"
)

type Repository struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewRepository(db *gorm.DB, logger zerolog.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

func (r *Repository) UpsertUserByTelegramID(ctx context.Context, user entities.User) (entities.User, error) {
	row := userModel{
		TelegramID: user.TelegramID,
		Username:   user.Username,
		FullName:   user.FullName,
		Phone:      user.Phone,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "telegram_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"username":   gorm.Expr("CASE WHEN EXCLUDED.username <> '' THEN EXCLUDED.username ELSE users.username END"),
				"full_name":  gorm.Expr("CASE WHEN EXCLUDED.full_name <> '' THEN EXCLUDED.full_name ELSE users.full_name END"),
				"phone":      gorm.Expr("CASE WHEN EXCLUDED.phone <> '' THEN EXCLUDED.phone ELSE users.phone END"),
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).
		Create(&row).Error
	if err != nil {
		return entities.User{}, err
	}
	// Re-read to pick up flags and timestamps the upsert does not return.
	return r.GetUserByTelegramID(ctx, user.TelegramID)
}

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (entities.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domainerrors.ErrUserNotFound
		}
		return entities.User{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (entities.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, domainerrors.ErrUserNotFound
		}
		return entities.User{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) SetUserBanned(ctx context.Context, telegramID int64, banned bool) error {
	result := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("telegram_id = ?", telegramID).
		Updates(map[string]interface{}{"is_banned": banned, "updated_at": gorm.Expr("NOW()")})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}
	return nil
}

func (r *Repository) CreateAd(ctx context.Context, ad entities.Ad, photoRefs []string) (entities.Ad, error) {
	var created entities.Ad
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var adID int64
		switch concrete := ad.(type) {
		case *entities.CarAd:
			row := carAdModelFromEntity(concrete)
			row.ID = 0
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			created = row.toEntity()
			adID = row.ID
		case *entities.PlateAd:
			row := plateAdModelFromEntity(concrete)
			row.ID = 0
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			created = row.toEntity()
			adID = row.ID
		default:
			return domainerrors.ErrInvalidAdKind
		}
		for i, ref := range photoRefs {
			photo := adPhotoModel{
				Kind:      string(ad.Kind()),
				AdID:      adID,
				FileRef:   ref,
				Position:  i,
				CreatedAt: created.Common().CreatedAt,
			}
			if err := tx.Create(&photo).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Repository) GetAd(ctx context.Context, kind entities.AdKind, adID int64) (entities.Ad, error) {
	switch kind {
	case entities.AdKindCar:
		var row carAdModel
		if err := r.db.WithContext(ctx).Where("id = ?", adID).First(&row).Error; err != nil {
			return nil, mapNotFound(err)
		}
		return row.toEntity(), nil
	case entities.AdKindPlate:
		var row plateAdModel
		if err := r.db.WithContext(ctx).Where("id = ?", adID).First(&row).Error; err != nil {
			return nil, mapNotFound(err)
		}
		return row.toEntity(), nil
	default:
		return nil, domainerrors.ErrInvalidAdKind
	}
}

func (r *Repository) UpdateAd(ctx context.Context, ad entities.Ad, expected entities.AdStatus) error {
	var result *gorm.DB
	switch concrete := ad.(type) {
	case *entities.CarAd:
		result = r.db.WithContext(ctx).
			Model(&carAdModel{}).
			Where("id = ? AND status = ?", concrete.ID, string(expected)).
			Updates(map[string]interface{}{
				"brand":            concrete.Brand,
				"model":            concrete.Model,
				"year":             concrete.Year,
				"mileage":          concrete.Mileage,
				"engine_volume":    concrete.EngineVolume,
				"fuel_type":        concrete.FuelType,
				"transmission":     concrete.Transmission,
				"color":            concrete.Color,
				"has_lpg":          concrete.HasLPG,
				"price":            concrete.Price,
				"description":      concrete.Description,
				"region":           concrete.Region,
				"city":             concrete.City,
				"contact_phone":    concrete.ContactPhone,
				"contact_telegram": concrete.ContactTelegram,
				"status":           string(concrete.Status),
				"updated_at":       concrete.UpdatedAt,
			})
	case *entities.PlateAd:
		result = r.db.WithContext(ctx).
			Model(&plateAdModel{}).
			Where("id = ? AND status = ?", concrete.ID, string(expected)).
			Updates(map[string]interface{}{
				"plate_number":     concrete.PlateNumber,
				"price":            concrete.Price,
				"description":      concrete.Description,
				"region":           concrete.Region,
				"city":             concrete.City,
				"contact_phone":    concrete.ContactPhone,
				"contact_telegram": concrete.ContactTelegram,
				"status":           string(concrete.Status),
				"updated_at":       concrete.UpdatedAt,
			})
	default:
		return domainerrors.ErrInvalidAdKind
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAdNotFound
	}
	return nil
}

func (r *Repository) TransitionStatus(ctx context.Context, kind entities.AdKind, adID int64, from []entities.AdStatus, to entities.AdStatus, reason string) (entities.Ad, error) {
	statuses := make([]string, 0, len(from))
	for _, status := range from {
		statuses = append(statuses, string(status))
	}
	updates := map[string]interface{}{
		"status":           string(to),
		"rejection_reason": reason,
		"updated_at":       gorm.Expr("NOW()"),
	}

	var result *gorm.DB
	switch kind {
	case entities.AdKindCar:
		result = r.db.WithContext(ctx).
			Model(&carAdModel{}).
			Where("id = ? AND status IN ?", adID, statuses).
			Updates(updates)
	case entities.AdKindPlate:
		result = r.db.WithContext(ctx).
			Model(&plateAdModel{}).
			Where("id = ? AND status IN ?", adID, statuses).
			Updates(updates)
	default:
		return nil, domainerrors.ErrInvalidAdKind
	}
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domainerrors.ErrAdNotFound
	}
	return r.GetAd(ctx, kind, adID)
}

func (r *Repository) HasRecentDuplicate(ctx context.Context, probe ports.DuplicateProbe) (bool, error) {
	var count int64
	var err error
	switch probe.Kind {
	case entities.AdKindCar:
		err = r.db.WithContext(ctx).
			Model(&carAdModel{}).
			Where("user_id = ? AND LOWER(brand) = LOWER(?) AND LOWER(model) = LOWER(?) AND year = ?", probe.UserID, probe.Brand, probe.Model, probe.Year).
			Where("status <> ?", string(entities.AdStatusRejected)).
			Where("created_at >= ?", probe.Since).
			Count(&count).Error
	case entities.AdKindPlate:
		err = r.db.WithContext(ctx).
			Model(&plateAdModel{}).
			Where("user_id = ? AND LOWER(plate_number) = LOWER(?)", probe.UserID, probe.PlateNumber).
			Where("status <> ?", string(entities.AdStatusRejected)).
			Where("created_at >= ?", probe.Since).
			Count(&count).Error
	default:
		return false, domainerrors.ErrInvalidAdKind
	}
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) ListAds(ctx context.Context, filter ports.AdFilter) ([]entities.Ad, error) {
	switch filter.Kind {
	case entities.AdKindCar:
		tx := r.adFilterQuery(ctx, &carAdModel{}, filter)
		if filter.Brand != "" {
			tx = tx.Where("LOWER(brand) = LOWER(?)", filter.Brand)
		}
		if filter.Model != "" {
			tx = tx.Where("LOWER(model) = LOWER(?)", filter.Model)
		}
		var rows []carAdModel
		if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
			return nil, err
		}
		ads := make([]entities.Ad, 0, len(rows))
		for _, row := range rows {
			ads = append(ads, row.toEntity())
		}
		return ads, nil
	case entities.AdKindPlate:
		var rows []plateAdModel
		if err := r.adFilterQuery(ctx, &plateAdModel{}, filter).Order("created_at DESC").Find(&rows).Error; err != nil {
			return nil, err
		}
		ads := make([]entities.Ad, 0, len(rows))
		for _, row := range rows {
			ads = append(ads, row.toEntity())
		}
		return ads, nil
	default:
		return nil, domainerrors.ErrInvalidAdKind
	}
}

func (r *Repository) adFilterQuery(ctx context.Context, model interface{}, filter ports.AdFilter) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(model)
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if filter.UserID != 0 {
		tx = tx.Where("user_id = ?", filter.UserID)
	}
	if filter.City != "" {
		tx = tx.Where("LOWER(city) = LOWER(?)", filter.City)
	}
	if filter.Offset > 0 {
		tx = tx.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}
	return tx
}

func (r *Repository) SetChannelMessageID(ctx context.Context, kind entities.AdKind, adID int64, messageID int) error {
	return r.adColumnUpdate(ctx, kind, adID, map[string]interface{}{"channel_message_id": messageID})
}

func (r *Repository) SetExpiresAt(ctx context.Context, kind entities.AdKind, adID int64, expiresAt time.Time) error {
	return r.adColumnUpdate(ctx, kind, adID, map[string]interface{}{"expires_at": expiresAt})
}

func (r *Repository) adColumnUpdate(ctx context.Context, kind entities.AdKind, adID int64, updates map[string]interface{}) error {
	var result *gorm.DB
	switch kind {
	case entities.AdKindCar:
		result = r.db.WithContext(ctx).Model(&carAdModel{}).Where("id = ?", adID).Updates(updates)
	case entities.AdKindPlate:
		result = r.db.WithContext(ctx).Model(&plateAdModel{}).Where("id = ?", adID).Updates(updates)
	default:
		return domainerrors.ErrInvalidAdKind
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAdNotFound
	}
	return nil
}

func (r *Repository) CountByStatus(ctx context.Context, kind entities.AdKind) (map[entities.AdStatus]int64, error) {
	type statusCount struct {
		Status string `gorm:"column:status"`
		Count  int64  `gorm:"column:count"`
	}
	var model interface{}
	switch kind {
	case entities.AdKindCar:
		model = &carAdModel{}
	case entities.AdKindPlate:
		model = &plateAdModel{}
	default:
		return nil, domainerrors.ErrInvalidAdKind
	}
	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(model).
		Select("status, COUNT(*) AS count").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[entities.AdStatus]int64, len(rows))
	for _, row := range rows {
		out[entities.AdStatus(row.Status)] = row.Count
	}
	return out, nil
}

func (r *Repository) AddPhoto(ctx context.Context, photo entities.Photo) error {
	row := adPhotoModel{
		Kind:      string(photo.Kind),
		AdID:      photo.AdID,
		FileRef:   photo.FileRef,
		Position:  photo.Position,
		CreatedAt: photo.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) ListPhotos(ctx context.Context, kind entities.AdKind, adID int64) ([]entities.Photo, error) {
	var rows []adPhotoModel
	err := r.db.WithContext(ctx).
		Where("kind = ? AND ad_id = ?", string(kind), adID).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	photos := make([]entities.Photo, 0, len(rows))
	for _, row := range rows {
		photos = append(photos, row.toEntity())
	}
	return photos, nil
}

func (r *Repository) CoverPhotoRefs(ctx context.Context, kind entities.AdKind, adIDs []int64) (map[int64]string, error) {
	if len(adIDs) == 0 {
		return map[int64]string{}, nil
	}
	var rows []adPhotoModel
	err := r.db.WithContext(ctx).
		Where("kind = ? AND ad_id IN ? AND position = 0", string(kind), adIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(rows))
	for _, row := range rows {
		out[row.AdID] = row.FileRef
	}
	return out, nil
}

func (r *Repository) RecordView(ctx context.Context, viewerID int64, kind entities.AdKind, adID int64) (bool, error) {
	counted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := adViewModel{
			UserID:    viewerID,
			Kind:      string(kind),
			AdID:      adID,
			CreatedAt: time.Now().UTC(),
		}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}, {Name: "ad_id"}},
			DoNothing: true,
		}).Create(&row)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		counted = true
		switch kind {
		case entities.AdKindCar:
			return tx.Model(&carAdModel{}).Where("id = ?", adID).
				UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
		case entities.AdKindPlate:
			return tx.Model(&plateAdModel{}).Where("id = ?", adID).
				UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
		default:
			return domainerrors.ErrInvalidAdKind
		}
	})
	if err != nil {
		return false, err
	}
	return counted, nil
}

func (r *Repository) AddFavorite(ctx context.Context, userID int64, kind entities.AdKind, adID int64) error {
	row := favoriteModel{
		UserID:    userID,
		Kind:      string(kind),
		AdID:      adID,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrFavoriteExists
		}
		return err
	}
	return nil
}

func (r *Repository) RemoveFavorite(ctx context.Context, userID int64, kind entities.AdKind, adID int64) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ? AND ad_id = ?", userID, string(kind), adID).
		Delete(&favoriteModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrFavoriteNotFound
	}
	return nil
}

func (r *Repository) ListFavorites(ctx context.Context, userID int64) ([]entities.Favorite, error) {
	var rows []favoriteModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	favorites := make([]entities.Favorite, 0, len(rows))
	for _, row := range rows {
		favorites = append(favorites, row.toEntity())
	}
	return favorites, nil
}

func (r *Repository) ApprovedBrands(ctx context.Context) ([]string, error) {
	var brands []string
	err := r.db.WithContext(ctx).
		Model(&carAdModel{}).
		Where("status = ?", string(entities.AdStatusApproved)).
		Distinct("brand").
		Order("brand ASC").
		Pluck("brand", &brands).Error
	return brands, err
}

func (r *Repository) ApprovedModels(ctx context.Context, brand string) ([]string, error) {
	var models []string
	err := r.db.WithContext(ctx).
		Model(&carAdModel{}).
		Where("status = ? AND LOWER(brand) = LOWER(?)", string(entities.AdStatusApproved), brand).
		Distinct("model").
		Order("model ASC").
		Pluck("model", &models).Error
	return models, err
}

func (r *Repository) ApprovedCities(ctx context.Context, kind entities.AdKind) ([]string, error) {
	var model interface{}
	switch kind {
	case entities.AdKindCar:
		model = &carAdModel{}
	case entities.AdKindPlate:
		model = &plateAdModel{}
	default:
		return nil, domainerrors.ErrInvalidAdKind
	}
	var cities []string
	err := r.db.WithContext(ctx).
		Model(model).
		Where("status = ? AND city <> ''", string(entities.AdStatusApproved)).
		Distinct("city").
		Order("city ASC").
		Pluck("city", &cities).Error
	return cities, err
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainerrors.ErrAdNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
