package postgresadapter

import (
	"time"

	"adboard/contexts/marketplace/ad-service/domain/entities"
)

type userModel struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	TelegramID int64     `gorm:"column:telegram_id;uniqueIndex"`
	Username   string    `gorm:"column:username"`
	FullName   string    `gorm:"column:full_name"`
	Phone      string    `gorm:"column:phone"`
	IsAdmin    bool      `gorm:"column:is_admin"`
	IsBanned   bool      `gorm:"column:is_banned"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

func (m userModel) toEntity() entities.User {
	return entities.User{
		ID:         m.ID,
		TelegramID: m.TelegramID,
		Username:   m.Username,
		FullName:   m.FullName,
		Phone:      m.Phone,
		IsAdmin:    m.IsAdmin,
		IsBanned:   m.IsBanned,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type carAdModel struct {
	ID               int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID           int64      `gorm:"column:user_id"`
	Brand            string     `gorm:"column:brand"`
	Model            string     `gorm:"column:model"`
	Year             int        `gorm:"column:year"`
	Mileage          int        `gorm:"column:mileage"`
	EngineVolume     float64    `gorm:"column:engine_volume"`
	FuelType         string     `gorm:"column:fuel_type"`
	Transmission     string     `gorm:"column:transmission"`
	Color            string     `gorm:"column:color"`
	HasLPG           bool       `gorm:"column:has_lpg"`
	Price            int64      `gorm:"column:price"`
	Description      string     `gorm:"column:description"`
	Region           string     `gorm:"column:region"`
	City             string     `gorm:"column:city"`
	ContactPhone     string     `gorm:"column:contact_phone"`
	ContactTelegram  string     `gorm:"column:contact_telegram"`
	Status           string     `gorm:"column:status"`
	RejectionReason  string     `gorm:"column:rejection_reason"`
	ViewCount        int64      `gorm:"column:view_count"`
	ExpiresAt        *time.Time `gorm:"column:expires_at"`
	ChannelMessageID int        `gorm:"column:channel_message_id"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (carAdModel) TableName() string { return "car_ads" }

func carAdModelFromEntity(ad *entities.CarAd) carAdModel {
	return carAdModel{
		ID:               ad.ID,
		UserID:           ad.UserID,
		Brand:            ad.Brand,
		Model:            ad.Model,
		Year:             ad.Year,
		Mileage:          ad.Mileage,
		EngineVolume:     ad.EngineVolume,
		FuelType:         string(ad.FuelType),
		Transmission:     string(ad.Transmission),
		Color:            ad.Color,
		HasLPG:           ad.HasLPG,
		Price:            ad.Price,
		Description:      ad.Description,
		Region:           ad.Region,
		City:             ad.City,
		ContactPhone:     ad.ContactPhone,
		ContactTelegram:  ad.ContactTelegram,
		Status:           string(ad.Status),
		RejectionReason:  ad.RejectionReason,
		ViewCount:        ad.ViewCount,
		ExpiresAt:        ad.ExpiresAt,
		ChannelMessageID: ad.ChannelMessageID,
		CreatedAt:        ad.CreatedAt,
		UpdatedAt:        ad.UpdatedAt,
	}
}

func (m carAdModel) toEntity() *entities.CarAd {
	return &entities.CarAd{
		AdCommon: entities.AdCommon{
			ID:               m.ID,
			UserID:           m.UserID,
			Price:            m.Price,
			Description:      m.Description,
			Region:           m.Region,
			City:             m.City,
			ContactPhone:     m.ContactPhone,
			ContactTelegram:  m.ContactTelegram,
			Status:           entities.AdStatus(m.Status),
			RejectionReason:  m.RejectionReason,
			ViewCount:        m.ViewCount,
			ExpiresAt:        m.ExpiresAt,
			ChannelMessageID: m.ChannelMessageID,
			CreatedAt:        m.CreatedAt,
			UpdatedAt:        m.UpdatedAt,
		},
		Brand:        m.Brand,
		Model:        m.Model,
		Year:         m.Year,
		Mileage:      m.Mileage,
		EngineVolume: m.EngineVolume,
		FuelType:     entities.FuelType(m.FuelType),
		Transmission: entities.Transmission(m.Transmission),
		Color:        m.Color,
		HasLPG:       m.HasLPG,
	}
}

type plateAdModel struct {
	ID               int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UserID           int64      `gorm:"column:user_id"`
	PlateNumber      string     `gorm:"column:plate_number"`
	Price            int64      `gorm:"column:price"`
	Description      string     `gorm:"column:description"`
	Region           string     `gorm:"column:region"`
	City             string     `gorm:"column:city"`
	ContactPhone     string     `gorm:"column:contact_phone"`
	ContactTelegram  string     `gorm:"column:contact_telegram"`
	Status           string     `gorm:"column:status"`
	RejectionReason  string     `gorm:"column:rejection_reason"`
	ViewCount        int64      `gorm:"column:view_count"`
	ExpiresAt        *time.Time `gorm:"column:expires_at"`
	ChannelMessageID int        `gorm:"column:channel_message_id"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (plateAdModel) TableName() string { return "plate_ads" }

func plateAdModelFromEntity(ad *entities.PlateAd) plateAdModel {
	return plateAdModel{
		ID:               ad.ID,
		UserID:           ad.UserID,
		PlateNumber:      ad.PlateNumber,
		Price:            ad.Price,
		Description:      ad.Description,
		Region:           ad.Region,
		City:             ad.City,
		ContactPhone:     ad.ContactPhone,
		ContactTelegram:  ad.ContactTelegram,
		Status:           string(ad.Status),
		RejectionReason:  ad.RejectionReason,
		ViewCount:        ad.ViewCount,
		ExpiresAt:        ad.ExpiresAt,
		ChannelMessageID: ad.ChannelMessageID,
		CreatedAt:        ad.CreatedAt,
		UpdatedAt:        ad.UpdatedAt,
	}
}

func (m plateAdModel) toEntity() *entities.PlateAd {
	return &entities.PlateAd{
		AdCommon: entities.AdCommon{
			ID:               m.ID,
			UserID:           m.UserID,
			Price:            m.Price,
			Description:      m.Description,
			Region:           m.Region,
			City:             m.City,
			ContactPhone:     m.ContactPhone,
			ContactTelegram:  m.ContactTelegram,
			Status:           entities.AdStatus(m.Status),
			RejectionReason:  m.RejectionReason,
			ViewCount:        m.ViewCount,
			ExpiresAt:        m.ExpiresAt,
			ChannelMessageID: m.ChannelMessageID,
			CreatedAt:        m.CreatedAt,
			UpdatedAt:        m.UpdatedAt,
		},
		PlateNumber: m.PlateNumber,
	}
}

type adPhotoModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Kind      string    `gorm:"column:kind"`
	AdID      int64     `gorm:"column:ad_id"`
	FileRef   string    `gorm:"column:file_ref"`
	Position  int       `gorm:"column:position"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (adPhotoModel) TableName() string { return "ad_photos" }

func (m adPhotoModel) toEntity() entities.Photo {
	return entities.Photo{
		ID:        m.ID,
		Kind:      entities.AdKind(m.Kind),
		AdID:      m.AdID,
		FileRef:   m.FileRef,
		Position:  m.Position,
		CreatedAt: m.CreatedAt,
	}
}

type adViewModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id"`
	Kind      string    `gorm:"column:kind"`
	AdID      int64     `gorm:"column:ad_id"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (adViewModel) TableName() string { return "ad_views" }

type favoriteModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id"`
	Kind      string    `gorm:"column:kind"`
	AdID      int64     `gorm:"column:ad_id"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (favoriteModel) TableName() string { return "favorites" }

func (m favoriteModel) toEntity() entities.Favorite {
	return entities.Favorite{
		ID:        m.ID,
		UserID:    m.UserID,
		Kind:      entities.AdKind(m.Kind),
		AdID:      m.AdID,
		CreatedAt: m.CreatedAt,
	}
}
