package adservice_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	adservice "adboard/contexts/marketplace/ad-service"
	httpadapter "adboard/contexts/marketplace/ad-service/adapters/http"
	"adboard/contexts/marketplace/ad-service/domain/entities"
	domainerrors "adboard/contexts/marketplace/ad-service/domain/errors"
	"adboard/contexts/marketplace/ad-service/domain/validate"
	"adboard/contexts/marketplace/ad-service/ports"
	httptransport "adboard/contexts/marketplace/ad-service/transport/http"
)

type fakeTransport struct {
	ops    []string
	nextID int
}

func (f *fakeTransport) SendChannelMessage(_ context.Context, _ int64, _ string) (int, error) {
	f.nextID++
	f.ops = append(f.ops, fmt.Sprintf("send:%d", f.nextID))
	return f.nextID, nil
}

func (f *fakeTransport) SendChannelMediaGroup(_ context.Context, _ int64, items []ports.MediaItem) (int, error) {
	f.nextID++
	f.ops = append(f.ops, fmt.Sprintf("media:%d:%d", f.nextID, len(items)))
	return f.nextID, nil
}

func (f *fakeTransport) DeleteChannelMessage(_ context.Context, _ int64, messageID int) error {
	f.ops = append(f.ops, fmt.Sprintf("delete:%d", messageID))
	return nil
}

type fakeNotifier struct {
	ownerTexts  map[int64][]string
	adminCalls  int
	promptCalls int
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{ownerTexts: make(map[int64][]string)}
}

func (f *fakeNotifier) NotifyOwner(_ context.Context, telegramID int64, text string) error {
	f.ownerTexts[telegramID] = append(f.ownerTexts[telegramID], text)
	return nil
}

func (f *fakeNotifier) NotifyAdminsNewAd(_ context.Context, _ entities.Ad, _ int) error {
	f.adminCalls++
	return nil
}

func (f *fakeNotifier) PromptPhotos(_ context.Context, _ int64) error {
	f.promptCalls++
	return nil
}

type fakeCollector struct {
	starts []int64
}

func (f *fakeCollector) Start(_ context.Context, userID int64, _ entities.AdKind, _ int64) bool {
	superseded := false
	for _, id := range f.starts {
		if id == userID {
			superseded = true
		}
	}
	f.starts = append(f.starts, userID)
	return superseded
}

type fakeBlobs map[string]struct{}

func (f fakeBlobs) Exists(ref string) bool {
	_, ok := f[ref]
	return ok
}

type denyLimiter struct{ message string }

func (d denyLimiter) Check(string) (bool, string) { return true, d.message }

type fixture struct {
	module    adservice.Module
	transport *fakeTransport
	notifier  *fakeNotifier
	collector *fakeCollector
	blobs     fakeBlobs
}

func newFixture() *fixture {
	transport := &fakeTransport{}
	notifier := newFakeNotifier()
	starter := &fakeCollector{}
	blobs := fakeBlobs{"loc_a": {}, "loc_b": {}, "loc_c": {}}
	module := adservice.NewInMemoryModule(adservice.Dependencies{
		Blobs:     blobs,
		Transport: transport,
		Notifier:  notifier,
		Collector: starter,
		ChannelID: -100500,
		Logger:    zerolog.Nop(),
	})
	module.Store.SetNow(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return &fixture{
		module:    module,
		transport: transport,
		notifier:  notifier,
		collector: starter,
		blobs:     blobs,
	}
}

func carRequest() httptransport.SubmitAdRequest {
	return httptransport.SubmitAdRequest{
		Kind:         "car",
		Brand:        "Toyota",
		Model:        "Camry",
		Year:         2018,
		Mileage:      90000,
		EngineVolume: 2.5,
		FuelType:     "бензин",
		Transmission: "автомат",
		Price:        2150000,
		City:         "Ташкент",
		ContactPhone: "+998901234567",
	}
}

func caller(id int64) httpadapter.Caller {
	return httpadapter.Caller{TelegramID: id, Username: "seller", FullName: "Test Seller"}
}

func TestSubmitWithPhotosPublishesImmediately(t *testing.T) {
	fx := newFixture()
	req := carRequest()
	req.PhotoIDs = []string{"loc_a", "loc_b"}

	resp, err := fx.module.Handler.SubmitAdHandler(context.Background(), caller(100), req)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !resp.Published {
		t.Fatal("submission with photos should publish immediately")
	}
	if resp.Ad.Status != string(entities.AdStatusApproved) {
		t.Fatalf("expected approved status, got %s", resp.Ad.Status)
	}
	if resp.Ad.ExpiresAt == nil {
		t.Fatal("expected expiry to be set")
	}
	if len(fx.transport.ops) != 1 || fx.transport.ops[0] != "media:1:2" {
		t.Fatalf("expected one media group with 2 photos, got %v", fx.transport.ops)
	}
	if len(fx.collector.starts) != 0 {
		t.Fatal("collector must not start when photos are attached")
	}

	photos, err := fx.module.Store.ListPhotos(context.Background(), entities.AdKindCar, resp.Ad.ID)
	if err != nil {
		t.Fatalf("list photos: %v", err)
	}
	if len(photos) != 2 || photos[0].FileRef != "loc_a" || photos[1].FileRef != "loc_b" {
		t.Fatalf("photos not stored in submission order: %+v", photos)
	}
}

func TestSubmitWithoutPhotosStaysPendingAndStartsCollector(t *testing.T) {
	fx := newFixture()

	resp, err := fx.module.Handler.SubmitAdHandler(context.Background(), caller(100), carRequest())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if resp.Published {
		t.Fatal("submission without photos must not publish")
	}
	if !resp.CollectingPhotos {
		t.Fatal("expected photo collection handoff")
	}
	if resp.Ad.Status != string(entities.AdStatusPending) {
		t.Fatalf("expected pending status, got %s", resp.Ad.Status)
	}
	if len(fx.transport.ops) != 0 {
		t.Fatalf("nothing should reach the channel, got %v", fx.transport.ops)
	}
	if len(fx.collector.starts) != 1 {
		t.Fatalf("expected one collector start, got %d", len(fx.collector.starts))
	}
	if fx.notifier.promptCalls != 1 {
		t.Fatalf("expected one photo prompt, got %d", fx.notifier.promptCalls)
	}
}

func TestSubmitUnknownPhotoRefsAreDropped(t *testing.T) {
	fx := newFixture()
	req := carRequest()
	req.PhotoIDs = []string{"loc_missing", "../../etc/passwd"}

	resp, err := fx.module.Handler.SubmitAdHandler(context.Background(), caller(100), req)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if resp.Published {
		t.Fatal("unverifiable refs must not count as photos")
	}
	if resp.Ad.Status != string(entities.AdStatusPending) {
		t.Fatalf("expected pending, got %s", resp.Ad.Status)
	}
}

func TestSubmitDuplicateRejectedAndForceOverrides(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	if _, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), carRequest()); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	_, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), carRequest())
	if !errors.Is(err, domainerrors.ErrDuplicateAd) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	req := carRequest()
	req.Force = true
	if _, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), req); err != nil {
		t.Fatalf("forced resubmit should pass: %v", err)
	}
}

func TestSubmitDuplicateWindowExpires(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	if _, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), carRequest()); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	fx.module.Store.Advance(8 * 24 * time.Hour)
	if _, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), carRequest()); err != nil {
		t.Fatalf("submit after the window should pass: %v", err)
	}
}

func TestSubmitValidationCollectsAllViolations(t *testing.T) {
	fx := newFixture()
	req := httptransport.SubmitAdRequest{Kind: "car", Year: 1910, Price: -5}

	_, err := fx.module.Handler.SubmitAdHandler(context.Background(), caller(100), req)
	var validationErr *validate.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(validationErr.Violations) < 4 {
		t.Fatalf("expected all field violations at once, got %v", validationErr.Violations)
	}
}

func TestSubmitInvalidPayloadCreatesNoUser(t *testing.T) {
	fx := newFixture()
	req := httptransport.SubmitAdRequest{Kind: "car", Year: 1910, Price: -5}

	_, err := fx.module.Handler.SubmitAdHandler(context.Background(), caller(100), req)
	var validationErr *validate.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = fx.module.Store.GetUserByTelegramID(context.Background(), 100)
	if !errors.Is(err, domainerrors.ErrUserNotFound) {
		t.Fatalf("rejected submission must not create a user, got %v", err)
	}
}

func TestSubmitRateLimited(t *testing.T) {
	transport := &fakeTransport{}
	module := adservice.NewInMemoryModule(adservice.Dependencies{
		Limiter:   denyLimiter{message: "slow down"},
		Transport: transport,
		Notifier:  newFakeNotifier(),
		ChannelID: -1,
		Logger:    zerolog.Nop(),
	})

	_, err := module.Handler.SubmitAdHandler(context.Background(), caller(100), carRequest())
	if !errors.Is(err, domainerrors.ErrRateLimited) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if err.Error() != "slow down" {
		t.Fatalf("limiter message should surface, got %q", err.Error())
	}
}

func TestSubmitBannedUser(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	if _, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), carRequest()); err != nil {
		t.Fatalf("seed submit failed: %v", err)
	}
	if err := fx.module.Store.SetUserBanned(ctx, 100, true); err != nil {
		t.Fatalf("ban failed: %v", err)
	}

	req := carRequest()
	req.Force = true
	_, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), req)
	if !errors.Is(err, domainerrors.ErrUserBanned) {
		t.Fatalf("expected banned error, got %v", err)
	}
}

func TestApprovePublishesAndSecondApproveIsNoOp(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	resp, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), carRequest())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if err := fx.module.Handler.ApproveAdHandler(ctx, "car", resp.Ad.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if len(fx.transport.ops) != 1 {
		t.Fatalf("expected one channel send, got %v", fx.transport.ops)
	}

	err = fx.module.Handler.ApproveAdHandler(ctx, "car", resp.Ad.ID)
	if !errors.Is(err, domainerrors.ErrAdNotFound) {
		t.Fatalf("second approve must be a not-found no-op, got %v", err)
	}
	if len(fx.transport.ops) != 1 {
		t.Fatalf("second approve must not publish again, got %v", fx.transport.ops)
	}
}

func TestRepublishDeletesPreviousChannelMessage(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	req := carRequest()
	req.PhotoIDs = []string{"loc_a"}
	resp, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), req)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	price := int64(1990000)
	edited, err := fx.module.Handler.EditAdHandler(ctx, caller(100), "car", resp.Ad.ID, httptransport.EditAdRequest{Price: &price})
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if edited.Status != string(entities.AdStatusPending) {
		t.Fatalf("edited live ad must return to pending, got %s", edited.Status)
	}

	if err := fx.module.Handler.ApproveAdHandler(ctx, "car", resp.Ad.ID); err != nil {
		t.Fatalf("re-approve failed: %v", err)
	}

	want := []string{"media:1:1", "delete:1", "media:2:1"}
	if len(fx.transport.ops) != len(want) {
		t.Fatalf("expected ops %v, got %v", want, fx.transport.ops)
	}
	for i, op := range want {
		if fx.transport.ops[i] != op {
			t.Fatalf("op %d: expected %q, got %q (all: %v)", i, op, fx.transport.ops[i], fx.transport.ops)
		}
	}
}

func TestRejectUsesDefaultReason(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	resp, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), carRequest())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := fx.module.Handler.RejectAdHandler(ctx, "car", resp.Ad.ID, httptransport.RejectAdRequest{}); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	ad, err := fx.module.Store.GetAd(ctx, entities.AdKindCar, resp.Ad.ID)
	if err != nil {
		t.Fatalf("get ad: %v", err)
	}
	if ad.Common().Status != entities.AdStatusRejected {
		t.Fatalf("expected rejected, got %s", ad.Common().Status)
	}
	if ad.Common().RejectionReason != entities.DefaultRejectionReason {
		t.Fatalf("expected default reason, got %q", ad.Common().RejectionReason)
	}
}

func TestEditTerminalAdFails(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	resp, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), carRequest())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := fx.module.Handler.RejectAdHandler(ctx, "car", resp.Ad.ID, httptransport.RejectAdRequest{Reason: "спам"}); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	price := int64(100000)
	_, err = fx.module.Handler.EditAdHandler(ctx, caller(100), "car", resp.Ad.ID, httptransport.EditAdRequest{Price: &price})
	if !errors.Is(err, domainerrors.ErrCannotEditTerminal) {
		t.Fatalf("expected terminal edit error, got %v", err)
	}
}

func TestEditByStrangerForbidden(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	resp, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), carRequest())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	// The stranger needs a user row before ownership is checked.
	plate := httptransport.SubmitAdRequest{
		Kind:         "plate",
		PlateNumber:  "01 A 777 AA",
		Price:        5000000,
		City:         "Ташкент",
		ContactPhone: "+998907654321",
	}
	if _, err := fx.module.Handler.SubmitAdHandler(ctx, caller(200), plate); err != nil {
		t.Fatalf("stranger submit failed: %v", err)
	}

	price := int64(1)
	_, err = fx.module.Handler.EditAdHandler(ctx, caller(200), "car", resp.Ad.ID, httptransport.EditAdRequest{Price: &price})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSoftDeleteKeepsRowAsRejected(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	resp, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), carRequest())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := fx.module.Handler.DeleteAdHandler(ctx, caller(100), "car", resp.Ad.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	ad, err := fx.module.Store.GetAd(ctx, entities.AdKindCar, resp.Ad.ID)
	if err != nil {
		t.Fatalf("row must survive soft delete: %v", err)
	}
	if ad.Common().Status != entities.AdStatusRejected {
		t.Fatalf("expected rejected, got %s", ad.Common().Status)
	}
	if ad.Common().RejectionReason != entities.OwnerDeletedReason {
		t.Fatalf("expected owner-deleted reason, got %q", ad.Common().RejectionReason)
	}
}

func TestMarkSoldThenDeleteIsNotFound(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	req := carRequest()
	req.PhotoIDs = []string{"loc_a"}
	resp, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), req)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if err := fx.module.Handler.MarkSoldHandler(ctx, caller(100), "car", resp.Ad.ID); err != nil {
		t.Fatalf("mark sold failed: %v", err)
	}
	err = fx.module.Handler.DeleteAdHandler(ctx, caller(100), "car", resp.Ad.ID)
	if !errors.Is(err, domainerrors.ErrAdNotFound) {
		t.Fatalf("terminal ad delete should be a not-found no-op, got %v", err)
	}
}

func TestViewsCountOncePerViewer(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	req := carRequest()
	req.PhotoIDs = []string{"loc_a"}
	resp, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), req)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	plate := httptransport.SubmitAdRequest{
		Kind:         "plate",
		PlateNumber:  "01 A 001 AA",
		Price:        3000000,
		City:         "Ташкент",
		ContactPhone: "+998900000000",
	}
	if _, err := fx.module.Handler.SubmitAdHandler(ctx, caller(200), plate); err != nil {
		t.Fatalf("viewer registration failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := fx.module.Queries.GetAd(ctx, entities.AdKindCar, resp.Ad.ID, 200); err != nil {
			t.Fatalf("get ad: %v", err)
		}
	}
	detail, err := fx.module.Queries.GetAd(ctx, entities.AdKindCar, resp.Ad.ID, 0)
	if err != nil {
		t.Fatalf("get ad: %v", err)
	}
	if got := detail.Ad.Common().ViewCount; got != 1 {
		t.Fatalf("expected exactly one counted view, got %d", got)
	}
}

func TestFavoritesAddListRemove(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	req := carRequest()
	req.PhotoIDs = []string{"loc_a"}
	resp, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), req)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if err := fx.module.Handler.AddFavoriteHandler(ctx, caller(100), "car", resp.Ad.ID); err != nil {
		t.Fatalf("add favorite: %v", err)
	}
	err = fx.module.Handler.AddFavoriteHandler(ctx, caller(100), "car", resp.Ad.ID)
	if !errors.Is(err, domainerrors.ErrFavoriteExists) {
		t.Fatalf("expected favorite-exists, got %v", err)
	}

	list, err := fx.module.Handler.ListFavoritesHandler(ctx, caller(100))
	if err != nil {
		t.Fatalf("list favorites: %v", err)
	}
	if len(list.Ads) != 1 || list.Ads[0].Ad.ID != resp.Ad.ID {
		t.Fatalf("unexpected favorites list: %+v", list.Ads)
	}
	if list.Ads[0].CoverURL == "" {
		t.Fatal("favorite card should carry the cover url")
	}

	if err := fx.module.Handler.RemoveFavoriteHandler(ctx, caller(100), "car", resp.Ad.ID); err != nil {
		t.Fatalf("remove favorite: %v", err)
	}
	err = fx.module.Handler.RemoveFavoriteHandler(ctx, caller(100), "car", resp.Ad.ID)
	if !errors.Is(err, domainerrors.ErrFavoriteNotFound) {
		t.Fatalf("expected favorite-not-found, got %v", err)
	}
}

func TestModerationQueueOrdersCarsFirstOldestFirst(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	plate := httptransport.SubmitAdRequest{
		Kind:         "plate",
		PlateNumber:  "01 A 100 AA",
		Price:        3000000,
		City:         "Ташкент",
		ContactPhone: "+998900000000",
	}
	if _, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), plate); err != nil {
		t.Fatalf("plate submit failed: %v", err)
	}
	fx.module.Store.Advance(time.Minute)
	first, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), carRequest())
	if err != nil {
		t.Fatalf("car submit failed: %v", err)
	}
	fx.module.Store.Advance(time.Minute)
	later := carRequest()
	later.Model = "Corolla"
	second, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), later)
	if err != nil {
		t.Fatalf("car submit failed: %v", err)
	}

	queue, err := fx.module.Handler.PendingAdsHandler(ctx)
	if err != nil {
		t.Fatalf("pending queue: %v", err)
	}
	if len(queue) != 3 {
		t.Fatalf("expected 3 pending ads, got %d", len(queue))
	}
	if queue[0].Ad.Kind != "car" || queue[0].Ad.ID != first.Ad.ID {
		t.Fatalf("oldest car must lead the queue, got %+v", queue[0].Ad)
	}
	if queue[1].Ad.ID != second.Ad.ID {
		t.Fatalf("second car expected next, got %+v", queue[1].Ad)
	}
	if queue[2].Ad.Kind != "plate" {
		t.Fatalf("plates must follow cars, got %+v", queue[2].Ad)
	}
}

func TestStatsCountsByStatus(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	req := carRequest()
	req.PhotoIDs = []string{"loc_a"}
	if _, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), req); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := fx.module.Handler.SubmitAdHandler(ctx, caller(100), func() httptransport.SubmitAdRequest {
		r := carRequest()
		r.Model = "Corolla"
		return r
	}()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	stats, err := fx.module.Handler.StatsHandler(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Cars["approved"] != 1 || stats.Cars["pending"] != 1 {
		t.Fatalf("unexpected car stats: %+v", stats.Cars)
	}
}
