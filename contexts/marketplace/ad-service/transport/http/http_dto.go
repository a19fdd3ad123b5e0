// Package httptransport defines the JSON shapes of the mini-app API.
package httptransport

import "time"

// SubmitAdRequest is the union payload for both ad kinds. Kind selects
// which identity fields are read.
type SubmitAdRequest struct {
	Kind string `json:"kind"`

	Brand        string  `json:"brand,omitempty"`
	Model        string  `json:"model,omitempty"`
	Year         int     `json:"year,omitempty"`
	Mileage      int     `json:"mileage,omitempty"`
	EngineVolume float64 `json:"engine_volume,omitempty"`
	FuelType     string  `json:"fuel_type,omitempty"`
	Transmission string  `json:"transmission,omitempty"`
	Color        string  `json:"color,omitempty"`
	HasLPG       bool    `json:"has_lpg,omitempty"`

	PlateNumber string `json:"plate_number,omitempty"`

	Price           int64  `json:"price"`
	Description     string `json:"description,omitempty"`
	Region          string `json:"region,omitempty"`
	City            string `json:"city"`
	ContactPhone    string `json:"contact_phone"`
	ContactTelegram string `json:"contact_telegram,omitempty"`

	PhotoIDs []string `json:"photo_ids,omitempty"`
	Force    bool     `json:"force,omitempty"`
}

type SubmitAdResponse struct {
	Ad               AdPayload `json:"ad"`
	Published        bool      `json:"published"`
	CollectingPhotos bool      `json:"collecting_photos"`
}

// EditAdRequest is a partial update; absent fields stay untouched.
type EditAdRequest struct {
	Brand        *string  `json:"brand,omitempty"`
	Model        *string  `json:"model,omitempty"`
	Year         *int     `json:"year,omitempty"`
	Mileage      *int     `json:"mileage,omitempty"`
	EngineVolume *float64 `json:"engine_volume,omitempty"`
	FuelType     *string  `json:"fuel_type,omitempty"`
	Transmission *string  `json:"transmission,omitempty"`
	Color        *string  `json:"color,omitempty"`
	HasLPG       *bool    `json:"has_lpg,omitempty"`

	PlateNumber *string `json:"plate_number,omitempty"`

	Price           *int64  `json:"price,omitempty"`
	Description     *string `json:"description,omitempty"`
	Region          *string `json:"region,omitempty"`
	City            *string `json:"city,omitempty"`
	ContactPhone    *string `json:"contact_phone,omitempty"`
	ContactTelegram *string `json:"contact_telegram,omitempty"`
}

type RejectAdRequest struct {
	Reason string `json:"reason,omitempty"`
}

type AdPayload struct {
	ID   int64  `json:"id"`
	Kind string `json:"kind"`

	Brand        string  `json:"brand,omitempty"`
	Model        string  `json:"model,omitempty"`
	Year         int     `json:"year,omitempty"`
	Mileage      int     `json:"mileage,omitempty"`
	EngineVolume float64 `json:"engine_volume,omitempty"`
	FuelType     string  `json:"fuel_type,omitempty"`
	Transmission string  `json:"transmission,omitempty"`
	Color        string  `json:"color,omitempty"`
	HasLPG       bool    `json:"has_lpg,omitempty"`

	PlateNumber string `json:"plate_number,omitempty"`

	Price           int64  `json:"price"`
	Description     string `json:"description,omitempty"`
	Region          string `json:"region,omitempty"`
	City            string `json:"city"`
	ContactPhone    string `json:"contact_phone"`
	ContactTelegram string `json:"contact_telegram,omitempty"`

	Status          string     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	ViewCount       int64      `json:"view_count"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type AdSummaryPayload struct {
	Ad       AdPayload `json:"ad"`
	CoverURL string    `json:"cover_url,omitempty"`
}

type AdDetailResponse struct {
	Ad        AdPayload `json:"ad"`
	PhotoURLs []string  `json:"photo_urls"`
	Favorite  bool      `json:"favorite"`
}

type AdListResponse struct {
	Ads []AdSummaryPayload `json:"ads"`
}

type UploadPhotoResponse struct {
	PhotoID string `json:"photo_id"`
}

type ProfileResponse struct {
	TelegramID int64              `json:"telegram_id"`
	Username   string             `json:"username,omitempty"`
	FullName   string             `json:"full_name,omitempty"`
	Phone      string             `json:"phone,omitempty"`
	IsAdmin    bool               `json:"is_admin"`
	Ads        []AdSummaryPayload `json:"ads"`
}

type StatsResponse struct {
	Cars   map[string]int64 `json:"cars"`
	Plates map[string]int64 `json:"plates"`
}

type FacetsResponse struct {
	Values []string `json:"values"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error      string   `json:"error"`
	Violations []string `json:"violations,omitempty"`
}
