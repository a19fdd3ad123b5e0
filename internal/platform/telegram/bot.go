package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"adboard/contexts/marketplace/ad-service/application/commands"
	"adboard/contexts/marketplace/ad-service/domain/entities"
	domainerrors "adboard/contexts/marketplace/ad-service/domain/errors"
	"adboard/contexts/marketplace/ad-service/texts"
	collector "adboard/contexts/marketplace/photo-collector"
)

var doneWords = map[string]struct{}{
	"готово": {},
	"стоп":   {},
	"done":   {},
}

// Bot is the long-polling process: it feeds photo messages into the
// collection sessions and routes moderation button presses.
type Bot struct {
	messenger *Messenger
	collector *collector.Collector
	moderate  commands.ModerateAdUseCase
	logger    zerolog.Logger
}

func NewBot(messenger *Messenger, sessions *collector.Collector, moderate commands.ModerateAdUseCase, logger zerolog.Logger) *Bot {
	return &Bot{
		messenger: messenger,
		collector: sessions,
		moderate:  moderate,
		logger:    logger,
	}
}

// Router is the late-bound default update handler. The client needs a
// handler at construction time while the Bot needs the client, so the
// router sits between them; until Bind is called updates are dropped,
// which is what the API process wants.
type Router struct {
	mu  sync.RWMutex
	bot *Bot
}

func (r *Router) Bind(b *Bot) {
	r.mu.Lock()
	r.bot = b
	r.mu.Unlock()
}

func (r *Router) Handle(ctx context.Context, client *tgbot.Bot, update *models.Update) {
	r.mu.RLock()
	bound := r.bot
	r.mu.RUnlock()
	if bound != nil {
		bound.HandleUpdate(ctx, client, update)
	}
}

// NewBotClient builds the underlying client with the router installed
// as the default update handler.
func NewBotClient(token string, router *Router) (*tgbot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	return tgbot.New(token, tgbot.WithDefaultHandler(router.Handle))
}

// Start registers command and callback handlers and begins polling.
// It blocks until the context is canceled.
func (b *Bot) Start(ctx context.Context) {
	client := b.messenger.Bot()
	client.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, b.handleStart)
	client.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, "mod:", tgbot.MatchTypePrefix, b.handleModeration)

	b.logger.Info().Str("event", "bot_started").Msg("telegram bot polling")
	client.Start(ctx)
}

// HandleUpdate is the default handler: everything that is not a
// registered command lands here.
func (b *Bot) HandleUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	message := update.Message
	userID := message.From.ID

	// No pre-filtering on session state: the collector itself decides,
	// so an expired session still gets its expiry notice and is cleared.
	event := classify(message)
	result, err := b.collector.Handle(ctx, userID, event)
	if err != nil {
		if !errors.Is(err, domainerrors.ErrNoActiveSession) {
			b.logger.Warn().Err(err).Int64("telegram_id", userID).Msg("photo collection failed")
		}
		return
	}
	b.reply(ctx, userID, result)
}

func (b *Bot) handleStart(ctx context.Context, client *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	_, err := client.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   texts.StartGreeting,
	})
	if err != nil {
		b.logger.Warn().Err(err).Msg("start greeting failed")
	}
}

// handleModeration reacts to the approve/reject inline buttons sent
// with admin notifications. Data format: mod:<action>:<kind>:<id>.
func (b *Bot) handleModeration(ctx context.Context, client *tgbot.Bot, update *models.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}
	answer := func(text string) {
		_, err := client.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
			CallbackQueryID: query.ID,
			Text:            text,
		})
		if err != nil {
			b.logger.Warn().Err(err).Msg("callback answer failed")
		}
	}

	if !b.messenger.isAdmin(query.From.ID) {
		answer(texts.AdminNoAccess)
		return
	}

	parts := strings.Split(query.Data, ":")
	if len(parts) != 4 {
		answer(texts.AdminNotFound)
		return
	}
	action := parts[1]
	kind := entities.AdKind(parts[2])
	adID, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil || !kind.Valid() {
		answer(texts.AdminNotFound)
		return
	}

	switch action {
	case "approve":
		_, err = b.moderate.Approve(ctx, kind, adID)
	case "reject":
		_, err = b.moderate.Reject(ctx, kind, adID, "")
	default:
		answer(texts.AdminNotFound)
		return
	}
	if err != nil {
		// Already decided or gone; either way the button is stale.
		answer(texts.AdminNotFound)
		return
	}
	if action == "approve" {
		answer(texts.AdminApproved)
	} else {
		answer(texts.AdminRejected)
	}
}

func (b *Bot) reply(ctx context.Context, userID int64, result collector.Result) {
	params := replyParams(userID, result)
	if params == nil {
		return
	}
	if _, err := b.messenger.Bot().SendMessage(ctx, params); err != nil {
		b.logger.Warn().Err(err).Int64("telegram_id", userID).Msg("collector reply failed")
	}
}

// replyParams renders one collector outcome as a chat message. A nil
// return means nothing should be sent.
func replyParams(userID int64, result collector.Result) *tgbot.SendMessageParams {
	var params *tgbot.SendMessageParams
	switch result.Outcome {
	case collector.OutcomeSaved:
		params = &tgbot.SendMessageParams{
			ChatID: userID,
			Text:   fmt.Sprintf(texts.PhotosProgress, result.Count, result.Max),
		}
	case collector.OutcomeLimit:
		params = &tgbot.SendMessageParams{
			ChatID: userID,
			Text:   fmt.Sprintf(texts.PhotosLimitReached, result.Max),
		}
	case collector.OutcomeFinished:
		text := texts.PhotosSkipped
		if result.Count > 0 {
			text = fmt.Sprintf(texts.PhotosSaved, result.Count)
		}
		params = &tgbot.SendMessageParams{
			ChatID:      userID,
			Text:        text,
			ReplyMarkup: &models.ReplyKeyboardRemove{RemoveKeyboard: true},
		}
	case collector.OutcomeExpired:
		params = &tgbot.SendMessageParams{
			ChatID:      userID,
			Text:        texts.PhotosExpired,
			ReplyMarkup: &models.ReplyKeyboardRemove{RemoveKeyboard: true},
		}
	case collector.OutcomePrompt:
		params = &tgbot.SendMessageParams{
			ChatID: userID,
			Text:   texts.PhotosUnexpected,
		}
	default:
		return nil
	}
	return params
}

// classify maps one chat message to a session event. The largest photo
// size wins; its file id becomes the stored reference.
func classify(message *models.Message) collector.Event {
	if len(message.Photo) > 0 {
		best := message.Photo[0]
		for _, size := range message.Photo[1:] {
			if size.Width*size.Height > best.Width*best.Height {
				best = size
			}
		}
		return collector.Event{Type: collector.EventPhoto, PhotoRef: best.FileID}
	}
	text := strings.ToLower(strings.TrimSpace(message.Text))
	if text == strings.ToLower(texts.DonePhotosButton) || text == strings.ToLower(texts.SkipPhotosButton) {
		return collector.Event{Type: collector.EventDone}
	}
	if _, ok := doneWords[text]; ok {
		return collector.Event{Type: collector.EventDone}
	}
	return collector.Event{Type: collector.EventOther}
}
