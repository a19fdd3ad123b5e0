// Package collector runs the conversational photo-collection sessions
// for ads submitted without photos. It is transport independent: the
// bot layer translates chat updates into events and renders the
// returned outcomes back into messages.
package collector

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"adboard/contexts/marketplace/ad-service/domain/entities"
	domainerrors "adboard/contexts/marketplace/ad-service/domain/errors"
	"adboard/contexts/marketplace/ad-service/ports"
)

// SessionTimeout bounds the whole collection session, counted from the
// moment it was opened. Activity does not extend it.
const SessionTimeout = time.Hour

type State int

const (
	StateIdle State = iota
	StateWaitingPhotos
)

type EventType int

const (
	// EventPhoto carries one stored photo reference.
	EventPhoto EventType = iota
	// EventDone finishes the session explicitly (done button, skip).
	EventDone
	// EventOther is any input the session cannot use.
	EventOther
)

type Event struct {
	Type     EventType
	PhotoRef string
}

// Outcome tells the transport layer what to render.
type Outcome int

const (
	// OutcomeSaved: photo stored, session continues.
	OutcomeSaved Outcome = iota
	// OutcomeLimit: photo dropped, the per-kind cap is reached.
	OutcomeLimit
	// OutcomeFinished: session closed, ad handed to moderation.
	OutcomeFinished
	// OutcomeExpired: session timed out and was discarded.
	OutcomeExpired
	// OutcomePrompt: unusable input, re-prompt the user.
	OutcomePrompt
)

type Result struct {
	Outcome Outcome
	Kind    entities.AdKind
	AdID    int64
	Count   int
	Max     int
}

type session struct {
	state     State
	kind      entities.AdKind
	adID      int64
	count     int
	startedAt time.Time
}

type Collector struct {
	repo     ports.Repository
	notifier ports.Notifier
	clock    ports.Clock
	logger   zerolog.Logger

	mu       sync.Mutex
	sessions map[int64]*session
}

func New(repo ports.Repository, notifier ports.Notifier, clock ports.Clock, logger zerolog.Logger) *Collector {
	return &Collector{
		repo:     repo,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
		sessions: make(map[int64]*session),
	}
}

// Start opens a session for the ad and reports whether an older session
// was superseded. One session per user; a new submission always wins.
func (c *Collector) Start(_ context.Context, userID int64, kind entities.AdKind, adID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, superseded := c.sessions[userID]
	c.sessions[userID] = &session{
		state:     StateWaitingPhotos,
		kind:      kind,
		adID:      adID,
		startedAt: c.clock.Now(),
	}
	return superseded
}

// Active reports whether the user currently has a live session. Expired
// sessions count as inactive.
func (c *Collector) Active(userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[userID]
	return ok && !c.expired(s)
}

// Handle advances the user's session with one event. The transition
// table is small on purpose: every event first passes the expiry gate,
// then dispatches on (state, event type).
func (c *Collector) Handle(ctx context.Context, userID int64, ev Event) (Result, error) {
	c.mu.Lock()
	s, ok := c.sessions[userID]
	if !ok {
		c.mu.Unlock()
		return Result{}, domainerrors.ErrNoActiveSession
	}
	if c.expired(s) {
		delete(c.sessions, userID)
		c.mu.Unlock()
		return Result{Outcome: OutcomeExpired, Kind: s.kind, AdID: s.adID, Count: s.count, Max: s.kind.MaxPhotos()}, nil
	}

	transition, ok := transitions[s.state][ev.Type]
	if !ok {
		c.mu.Unlock()
		return Result{Outcome: OutcomePrompt, Kind: s.kind, AdID: s.adID, Count: s.count, Max: s.kind.MaxPhotos()}, nil
	}
	result, finish, err := transition(c, ctx, userID, s, ev)
	if finish {
		delete(c.sessions, userID)
	}
	c.mu.Unlock()

	if finish && err == nil {
		c.notifyAdmins(ctx, result)
	}
	return result, err
}

type transitionFunc func(c *Collector, ctx context.Context, userID int64, s *session, ev Event) (Result, bool, error)

var transitions = map[State]map[EventType]transitionFunc{
	StateWaitingPhotos: {
		EventPhoto: (*Collector).onPhoto,
		EventDone:  (*Collector).onDone,
		EventOther: (*Collector).onOther,
	},
}

func (c *Collector) onPhoto(ctx context.Context, userID int64, s *session, ev Event) (Result, bool, error) {
	max := s.kind.MaxPhotos()
	if s.count >= max {
		return Result{Outcome: OutcomeLimit, Kind: s.kind, AdID: s.adID, Count: s.count, Max: max}, false, nil
	}
	photo := entities.Photo{
		Kind:      s.kind,
		AdID:      s.adID,
		FileRef:   ev.PhotoRef,
		Position:  s.count,
		CreatedAt: c.clock.Now(),
	}
	if err := c.repo.AddPhoto(ctx, photo); err != nil {
		return Result{}, false, err
	}
	s.count++
	if s.count == max {
		// Cap reached: close out without waiting for an explicit done.
		return Result{Outcome: OutcomeFinished, Kind: s.kind, AdID: s.adID, Count: s.count, Max: max}, true, nil
	}
	return Result{Outcome: OutcomeSaved, Kind: s.kind, AdID: s.adID, Count: s.count, Max: max}, false, nil
}

func (c *Collector) onDone(_ context.Context, _ int64, s *session, _ Event) (Result, bool, error) {
	return Result{Outcome: OutcomeFinished, Kind: s.kind, AdID: s.adID, Count: s.count, Max: s.kind.MaxPhotos()}, true, nil
}

func (c *Collector) onOther(_ context.Context, _ int64, s *session, _ Event) (Result, bool, error) {
	return Result{Outcome: OutcomePrompt, Kind: s.kind, AdID: s.adID, Count: s.count, Max: s.kind.MaxPhotos()}, false, nil
}

func (c *Collector) expired(s *session) bool {
	return c.clock.Now().Sub(s.startedAt) > SessionTimeout
}

// notifyAdmins hands the finished ad to the moderation queue. The ad is
// already pending in the database; this is only the heads-up message.
func (c *Collector) notifyAdmins(ctx context.Context, result Result) {
	if c.notifier == nil {
		return
	}
	ad, err := c.repo.GetAd(ctx, result.Kind, result.AdID)
	if err != nil {
		c.logger.Warn().Err(err).Int64("ad_id", result.AdID).Msg("ad lookup for admin notice failed")
		return
	}
	if err := c.notifier.NotifyAdminsNewAd(ctx, ad, result.Count); err != nil {
		c.logger.Warn().Err(err).Int64("ad_id", result.AdID).Msg("admin notification failed")
	}
}
