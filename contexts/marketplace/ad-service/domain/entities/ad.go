package entities

import "time"

type AdKind string

const (
	AdKindCar   AdKind = "car"
	AdKindPlate AdKind = "plate"
)

// MaxPhotos is the gallery cap for an ad of this kind.
func (k AdKind) MaxPhotos() int {
	if k == AdKindPlate {
		return 5
	}
	return 10
}

func (k AdKind) Valid() bool {
	return k == AdKindCar || k == AdKindPlate
}

type AdStatus string

const (
	AdStatusPending  AdStatus = "pending"
	AdStatusApproved AdStatus = "approved"
	AdStatusRejected AdStatus = "rejected"
	AdStatusSold     AdStatus = "sold"
)

// Terminal reports whether owner edits are no longer accepted.
func (s AdStatus) Terminal() bool {
	return s == AdStatusRejected || s == AdStatusSold
}

type FuelType string

const (
	FuelPetrol   FuelType = "бензин"
	FuelDiesel   FuelType = "дизель"
	FuelGas      FuelType = "газ"
	FuelElectric FuelType = "электро"
	FuelHybrid   FuelType = "гибрид"
)

type Transmission string

const (
	TransmissionManual    Transmission = "механика"
	TransmissionAutomatic Transmission = "автомат"
	TransmissionRobot     Transmission = "робот"
	TransmissionVariator  Transmission = "вариатор"
)

// Rejection reason sentinels persisted on the ad row.
const (
	DefaultRejectionReason = "Не прошло модерацию"
	OwnerDeletedReason     = "Удалено владельцем"
)

// AdExpiry is how long an ad stays live after creation or approval.
const AdExpiry = 30 * 24 * time.Hour

// duplicateWindow bounds the near-duplicate resubmission check.
const DuplicateWindow = 7 * 24 * time.Hour

// AdCommon is the field set shared by both ad kinds.
type AdCommon struct {
	ID               int64
	UserID           int64
	Price            int64
	Description      string
	Region           string
	City             string
	ContactPhone     string
	ContactTelegram  string
	Status           AdStatus
	RejectionReason  string
	ViewCount        int64
	ExpiresAt        *time.Time
	ChannelMessageID int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Ad is the common view over both ad kinds. Kind-specific fields are
// reached by type-switching on the concrete type.
type Ad interface {
	Kind() AdKind
	Common() *AdCommon
}

type CarAd struct {
	AdCommon

	Brand        string
	Model        string
	Year         int
	Mileage      int
	EngineVolume float64
	FuelType     FuelType
	Transmission Transmission
	Color        string
	HasLPG       bool
}

func (a *CarAd) Kind() AdKind      { return AdKindCar }
func (a *CarAd) Common() *AdCommon { return &a.AdCommon }

type PlateAd struct {
	AdCommon

	PlateNumber string
}

func (a *PlateAd) Kind() AdKind      { return AdKindPlate }
func (a *PlateAd) Common() *AdCommon { return &a.AdCommon }

// Photo belongs to one ad, addressed by (kind, ad id) rather than a
// foreign key so a single table serves both ad tables. Position 0 is
// the cover photo.
type Photo struct {
	ID        int64
	Kind      AdKind
	AdID      int64
	FileRef   string
	Position  int
	CreatedAt time.Time
}

// Favorite is a user-managed (user, kind, ad) uniqueness record.
type Favorite struct {
	ID        int64
	UserID    int64
	Kind      AdKind
	AdID      int64
	CreatedAt time.Time
}
