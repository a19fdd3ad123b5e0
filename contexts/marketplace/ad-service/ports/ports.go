package ports

import (
	"context"
	"time"

	"adboard/contexts/marketplace/ad-service/domain/entities"
)

// DuplicateProbe describes the near-duplicate resubmission check: same
// user, same kind, matching identity fields, created after Since, not
// rejected.
type DuplicateProbe struct {
	UserID      int64
	Kind        entities.AdKind
	Brand       string
	Model       string
	Year        int
	PlateNumber string
	Since       time.Time
}

// AdFilter narrows ad listings.
type AdFilter struct {
	Kind   entities.AdKind
	Status entities.AdStatus
	UserID int64
	Brand  string
	Model  string
	City   string
	Offset int
	Limit  int
}

type Repository interface {
	// UpsertUserByTelegramID resolves or creates the user row keyed by
	// the external platform ID, refreshing name/handle opportunistically.
	// Concurrent creation attempts must converge to one row.
	UpsertUserByTelegramID(ctx context.Context, user entities.User) (entities.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (entities.User, error)
	GetUserByID(ctx context.Context, id int64) (entities.User, error)
	SetUserBanned(ctx context.Context, telegramID int64, banned bool) error

	// CreateAd persists the ad and, atomically with it, any photo rows
	// for the supplied references in ascending position order.
	CreateAd(ctx context.Context, ad entities.Ad, photoRefs []string) (entities.Ad, error)
	GetAd(ctx context.Context, kind entities.AdKind, adID int64) (entities.Ad, error)
	// UpdateAd writes the full field set conditionally on the status the
	// caller loaded, so a concurrent moderation decision is not silently
	// reverted. Zero rows affected maps to ErrAdNotFound.
	UpdateAd(ctx context.Context, ad entities.Ad, expected entities.AdStatus) error
	// TransitionStatus conditionally moves an ad from one of the given
	// statuses to the target, returning the updated ad. Zero rows
	// affected maps to ErrAdNotFound.
	TransitionStatus(ctx context.Context, kind entities.AdKind, adID int64, from []entities.AdStatus, to entities.AdStatus, reason string) (entities.Ad, error)
	HasRecentDuplicate(ctx context.Context, probe DuplicateProbe) (bool, error)
	ListAds(ctx context.Context, filter AdFilter) ([]entities.Ad, error)
	SetChannelMessageID(ctx context.Context, kind entities.AdKind, adID int64, messageID int) error
	SetExpiresAt(ctx context.Context, kind entities.AdKind, adID int64, expiresAt time.Time) error
	CountByStatus(ctx context.Context, kind entities.AdKind) (map[entities.AdStatus]int64, error)

	AddPhoto(ctx context.Context, photo entities.Photo) error
	ListPhotos(ctx context.Context, kind entities.AdKind, adID int64) ([]entities.Photo, error)
	// CoverPhotoRefs returns the position-0 photo reference per ad id.
	CoverPhotoRefs(ctx context.Context, kind entities.AdKind, adIDs []int64) (map[int64]string, error)

	// RecordView inserts the (viewer, kind, ad) uniqueness row and bumps
	// the counter; returns false when the viewer already saw the ad.
	RecordView(ctx context.Context, viewerID int64, kind entities.AdKind, adID int64) (bool, error)

	AddFavorite(ctx context.Context, userID int64, kind entities.AdKind, adID int64) error
	RemoveFavorite(ctx context.Context, userID int64, kind entities.AdKind, adID int64) error
	ListFavorites(ctx context.Context, userID int64) ([]entities.Favorite, error)

	ApprovedBrands(ctx context.Context) ([]string, error)
	ApprovedModels(ctx context.Context, brand string) ([]string, error)
	ApprovedCities(ctx context.Context, kind entities.AdKind) ([]string, error)
}

type Clock interface {
	Now() time.Time
}

// Limiter is the sliding-window throttle boundary.
type Limiter interface {
	Check(key string) (denied bool, message string)
}

// PhotoBlobs is the local blob store boundary used to verify
// pre-uploaded photo references at submit time.
type PhotoBlobs interface {
	Exists(ref string) bool
}

// Notifier delivers best-effort messages over the chat platform.
// Failures are logged by callers, never propagated.
type Notifier interface {
	NotifyOwner(ctx context.Context, telegramID int64, text string) error
	NotifyAdminsNewAd(ctx context.Context, ad entities.Ad, photoCount int) error
	// PromptPhotos asks the owner to start sending photos, attaching the
	// skip/done reply keyboard.
	PromptPhotos(ctx context.Context, telegramID int64) error
}

// MediaItem is one gallery entry; only the first carries a caption.
type MediaItem struct {
	Ref     string
	Caption string
}

// ChannelTransport publishes to the public channel. Send calls return
// the platform message id used for idempotent republish cleanup.
type ChannelTransport interface {
	SendChannelMessage(ctx context.Context, channelID int64, text string) (int, error)
	SendChannelMediaGroup(ctx context.Context, channelID int64, items []MediaItem) (int, error)
	DeleteChannelMessage(ctx context.Context, channelID int64, messageID int) error
}

// CollectorStarter opens a conversational photo-collection session for
// an ad submitted without photos. Starting supersedes any session the
// user already had.
type CollectorStarter interface {
	Start(ctx context.Context, userID int64, kind entities.AdKind, adID int64) (superseded bool)
}

// AdPublisher renders an approved ad and publishes it to the channel.
type AdPublisher interface {
	Publish(ctx context.Context, ad entities.Ad) error
}
