package collector_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"adboard/contexts/marketplace/ad-service/adapters/memory"
	"adboard/contexts/marketplace/ad-service/domain/entities"
	domainerrors "adboard/contexts/marketplace/ad-service/domain/errors"
	collector "adboard/contexts/marketplace/photo-collector"
)

type fakeNotifier struct {
	adminAds    []int64
	adminCounts []int
}

func (f *fakeNotifier) NotifyOwner(context.Context, int64, string) error { return nil }
func (f *fakeNotifier) PromptPhotos(context.Context, int64) error        { return nil }

func (f *fakeNotifier) NotifyAdminsNewAd(_ context.Context, ad entities.Ad, photoCount int) error {
	f.adminAds = append(f.adminAds, ad.Common().ID)
	f.adminCounts = append(f.adminCounts, photoCount)
	return nil
}

func seedAd(t *testing.T, store *memory.Store, kind entities.AdKind, userTelegramID int64) entities.Ad {
	t.Helper()
	user, err := store.UpsertUserByTelegramID(context.Background(), entities.User{TelegramID: userTelegramID})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	var ad entities.Ad
	common := entities.AdCommon{
		UserID:       user.ID,
		Price:        1000000,
		City:         "Ташкент",
		ContactPhone: "+998901112233",
		Status:       entities.AdStatusPending,
	}
	if kind == entities.AdKindCar {
		ad = &entities.CarAd{AdCommon: common, Brand: "Toyota", Model: "Camry", Year: 2019}
	} else {
		ad = &entities.PlateAd{AdCommon: common, PlateNumber: "01 A 777 AA"}
	}
	created, err := store.CreateAd(context.Background(), ad, nil)
	if err != nil {
		t.Fatalf("seed ad: %v", err)
	}
	return created
}

func newCollector(t *testing.T) (*collector.Collector, *memory.Store, *fakeNotifier) {
	t.Helper()
	store := memory.NewStore()
	store.SetNow(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	notifier := &fakeNotifier{}
	return collector.New(store, notifier, store, zerolog.Nop()), store, notifier
}

func TestHandleWithoutSession(t *testing.T) {
	c, _, _ := newCollector(t)
	_, err := c.Handle(context.Background(), 100, collector.Event{Type: collector.EventPhoto, PhotoRef: "f1"})
	if !errors.Is(err, domainerrors.ErrNoActiveSession) {
		t.Fatalf("expected no-session error, got %v", err)
	}
}

func TestPhotosStoredInOrderAndDoneNotifiesAdmins(t *testing.T) {
	c, store, notifier := newCollector(t)
	ctx := context.Background()
	ad := seedAd(t, store, entities.AdKindCar, 100)

	if superseded := c.Start(ctx, 100, entities.AdKindCar, ad.Common().ID); superseded {
		t.Fatal("first session must not report supersede")
	}
	if !c.Active(100) {
		t.Fatal("session should be active after start")
	}

	for i := 0; i < 3; i++ {
		res, err := c.Handle(ctx, 100, collector.Event{Type: collector.EventPhoto, PhotoRef: fmt.Sprintf("file_%d", i)})
		if err != nil {
			t.Fatalf("photo %d: %v", i, err)
		}
		if res.Outcome != collector.OutcomeSaved {
			t.Fatalf("photo %d: expected saved, got %v", i, res.Outcome)
		}
		if res.Count != i+1 {
			t.Fatalf("photo %d: expected count %d, got %d", i, i+1, res.Count)
		}
	}

	res, err := c.Handle(ctx, 100, collector.Event{Type: collector.EventDone})
	if err != nil {
		t.Fatalf("done: %v", err)
	}
	if res.Outcome != collector.OutcomeFinished {
		t.Fatalf("expected finished, got %v", res.Outcome)
	}
	if c.Active(100) {
		t.Fatal("session must close after done")
	}
	if len(notifier.adminAds) != 1 || notifier.adminAds[0] != ad.Common().ID || notifier.adminCounts[0] != 3 {
		t.Fatalf("admin notice mismatch: ads=%v counts=%v", notifier.adminAds, notifier.adminCounts)
	}

	photos, err := store.ListPhotos(ctx, entities.AdKindCar, ad.Common().ID)
	if err != nil {
		t.Fatalf("list photos: %v", err)
	}
	if len(photos) != 3 {
		t.Fatalf("expected 3 photos, got %d", len(photos))
	}
	for i, p := range photos {
		if p.Position != i || p.FileRef != fmt.Sprintf("file_%d", i) {
			t.Fatalf("photo %d out of order: %+v", i, p)
		}
	}
}

func TestPlateCapAutoFinishes(t *testing.T) {
	c, store, notifier := newCollector(t)
	ctx := context.Background()
	ad := seedAd(t, store, entities.AdKindPlate, 100)
	c.Start(ctx, 100, entities.AdKindPlate, ad.Common().ID)

	max := entities.AdKindPlate.MaxPhotos()
	for i := 0; i < max-1; i++ {
		if _, err := c.Handle(ctx, 100, collector.Event{Type: collector.EventPhoto, PhotoRef: fmt.Sprintf("f%d", i)}); err != nil {
			t.Fatalf("photo %d: %v", i, err)
		}
	}
	res, err := c.Handle(ctx, 100, collector.Event{Type: collector.EventPhoto, PhotoRef: "last"})
	if err != nil {
		t.Fatalf("cap photo: %v", err)
	}
	if res.Outcome != collector.OutcomeFinished {
		t.Fatalf("cap must auto-finish, got %v", res.Outcome)
	}
	if res.Count != max {
		t.Fatalf("expected count %d, got %d", max, res.Count)
	}
	if len(notifier.adminAds) != 1 {
		t.Fatal("auto-finish must notify admins")
	}
	if c.Active(100) {
		t.Fatal("session must close at the cap")
	}
}

func TestPhotoAfterCapIsRejected(t *testing.T) {
	c, store, _ := newCollector(t)
	ctx := context.Background()
	ad := seedAd(t, store, entities.AdKindCar, 100)
	c.Start(ctx, 100, entities.AdKindCar, ad.Common().ID)

	max := entities.AdKindCar.MaxPhotos()
	for i := 0; i < max; i++ {
		if _, err := c.Handle(ctx, 100, collector.Event{Type: collector.EventPhoto, PhotoRef: fmt.Sprintf("f%d", i)}); err != nil {
			t.Fatalf("photo %d: %v", i, err)
		}
	}
	// Cap auto-finished the session.
	_, err := c.Handle(ctx, 100, collector.Event{Type: collector.EventPhoto, PhotoRef: "extra"})
	if !errors.Is(err, domainerrors.ErrNoActiveSession) {
		t.Fatalf("expected closed session after cap, got %v", err)
	}
}

func TestUnusableInputReprompts(t *testing.T) {
	c, store, _ := newCollector(t)
	ctx := context.Background()
	ad := seedAd(t, store, entities.AdKindCar, 100)
	c.Start(ctx, 100, entities.AdKindCar, ad.Common().ID)

	res, err := c.Handle(ctx, 100, collector.Event{Type: collector.EventOther})
	if err != nil {
		t.Fatalf("other: %v", err)
	}
	if res.Outcome != collector.OutcomePrompt {
		t.Fatalf("expected prompt, got %v", res.Outcome)
	}
	if !c.Active(100) {
		t.Fatal("session must survive unusable input")
	}
}

func TestSessionExpires(t *testing.T) {
	c, store, notifier := newCollector(t)
	ctx := context.Background()
	ad := seedAd(t, store, entities.AdKindCar, 100)
	c.Start(ctx, 100, entities.AdKindCar, ad.Common().ID)

	store.Advance(collector.SessionTimeout + time.Minute)
	if c.Active(100) {
		t.Fatal("expired session must report inactive")
	}
	res, err := c.Handle(ctx, 100, collector.Event{Type: collector.EventPhoto, PhotoRef: "late"})
	if err != nil {
		t.Fatalf("expired handle: %v", err)
	}
	if res.Outcome != collector.OutcomeExpired {
		t.Fatalf("expected expired, got %v", res.Outcome)
	}
	if len(notifier.adminAds) != 0 {
		t.Fatal("expired session must not notify admins")
	}
	_, err = c.Handle(ctx, 100, collector.Event{Type: collector.EventDone})
	if !errors.Is(err, domainerrors.ErrNoActiveSession) {
		t.Fatalf("expired session must be discarded, got %v", err)
	}
}

func TestTimeoutCountsFromSessionStart(t *testing.T) {
	c, store, _ := newCollector(t)
	ctx := context.Background()
	ad := seedAd(t, store, entities.AdKindCar, 100)
	c.Start(ctx, 100, entities.AdKindCar, ad.Common().ID)

	store.Advance(50 * time.Minute)
	res, err := c.Handle(ctx, 100, collector.Event{Type: collector.EventOther})
	if err != nil {
		t.Fatalf("first event: %v", err)
	}
	if res.Outcome != collector.OutcomePrompt {
		t.Fatalf("expected prompt inside the window, got %v", res.Outcome)
	}

	// 100 minutes after start the session is past its hour even though
	// the last event was only 50 minutes ago.
	store.Advance(50 * time.Minute)
	res, err = c.Handle(ctx, 100, collector.Event{Type: collector.EventPhoto, PhotoRef: "late"})
	if err != nil {
		t.Fatalf("second event: %v", err)
	}
	if res.Outcome != collector.OutcomeExpired {
		t.Fatalf("activity must not extend the window, got %v", res.Outcome)
	}
	if c.Active(100) {
		t.Fatal("expired session must be discarded")
	}
}

func TestNewSubmissionSupersedesSession(t *testing.T) {
	c, store, _ := newCollector(t)
	ctx := context.Background()
	first := seedAd(t, store, entities.AdKindCar, 100)
	second := seedAd(t, store, entities.AdKindCar, 100)

	c.Start(ctx, 100, entities.AdKindCar, first.Common().ID)
	if _, err := c.Handle(ctx, 100, collector.Event{Type: collector.EventPhoto, PhotoRef: "old"}); err != nil {
		t.Fatalf("photo: %v", err)
	}

	if superseded := c.Start(ctx, 100, entities.AdKindCar, second.Common().ID); !superseded {
		t.Fatal("second start must report supersede")
	}
	res, err := c.Handle(ctx, 100, collector.Event{Type: collector.EventPhoto, PhotoRef: "new"})
	if err != nil {
		t.Fatalf("photo: %v", err)
	}
	if res.AdID != second.Common().ID {
		t.Fatalf("photo must land on the new ad, got ad %d", res.AdID)
	}
	if res.Count != 1 {
		t.Fatalf("superseded session count must reset, got %d", res.Count)
	}
}
