// Package telegram is the chat platform adapter: outbound messaging
// for the API process and the long-polling bot for photo collection
// and moderation.
package telegram

import (
	"context"
	"fmt"
	"html"
	"os"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"adboard/contexts/marketplace/ad-service/domain/entities"
	"adboard/contexts/marketplace/ad-service/ports"
	"adboard/contexts/marketplace/ad-service/texts"
	"adboard/internal/platform/photostore"
)

// Messenger implements the notifier and channel transport ports on one
// bot client. Both processes share it; only the bot process polls.
type Messenger struct {
	bot      *tgbot.Bot
	photos   *photostore.Store
	adminIDs []int64
	logger   zerolog.Logger
}

func NewMessenger(bot *tgbot.Bot, photos *photostore.Store, adminIDs []int64, logger zerolog.Logger) *Messenger {
	return &Messenger{
		bot:      bot,
		photos:   photos,
		adminIDs: adminIDs,
		logger:   logger,
	}
}

func (m *Messenger) Bot() *tgbot.Bot { return m.bot }

func (m *Messenger) NotifyOwner(ctx context.Context, telegramID int64, text string) error {
	_, err := m.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    telegramID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	return err
}

// PromptPhotos sends the collection prompt with the skip/done reply
// keyboard attached.
func (m *Messenger) PromptPhotos(ctx context.Context, telegramID int64) error {
	_, err := m.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: telegramID,
		Text:   texts.SendPhotosPrompt,
		ReplyMarkup: &models.ReplyKeyboardMarkup{
			Keyboard: [][]models.KeyboardButton{
				{{Text: texts.DonePhotosButton}, {Text: texts.SkipPhotosButton}},
			},
			ResizeKeyboard:  true,
			OneTimeKeyboard: true,
		},
	})
	return err
}

// NotifyAdminsNewAd fans out the moderation card with inline
// approve/reject buttons to every configured admin.
func (m *Messenger) NotifyAdminsNewAd(ctx context.Context, ad entities.Ad, photoCount int) error {
	card := adminCard(ad, photoCount)
	markup := moderationKeyboard(ad.Kind(), ad.Common().ID)
	var lastErr error
	for _, adminID := range m.adminIDs {
		_, err := m.bot.SendMessage(ctx, &tgbot.SendMessageParams{
			ChatID:      adminID,
			Text:        card,
			ParseMode:   models.ParseModeHTML,
			ReplyMarkup: markup,
		})
		if err != nil {
			lastErr = err
			m.logger.Warn().Err(err).Int64("admin_id", adminID).Msg("admin notification failed")
		}
	}
	return lastErr
}

func (m *Messenger) SendChannelMessage(ctx context.Context, channelID int64, text string) (int, error) {
	message, err := m.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    channelID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return 0, err
	}
	return message.ID, nil
}

// SendChannelMediaGroup uploads the stored photo blobs as one album and
// returns the id of its first message.
func (m *Messenger) SendChannelMediaGroup(ctx context.Context, channelID int64, items []ports.MediaItem) (int, error) {
	media := make([]models.InputMedia, 0, len(items))
	var opened []*os.File
	defer func() {
		for _, file := range opened {
			file.Close()
		}
	}()

	for i, item := range items {
		photo := &models.InputMediaPhoto{}
		if item.Caption != "" {
			photo.Caption = item.Caption
			photo.ParseMode = models.ParseModeHTML
		}
		if photostore.IsLocal(item.Ref) {
			path, ok := m.photos.Path(item.Ref)
			if !ok {
				return 0, fmt.Errorf("unknown photo ref %q", item.Ref)
			}
			file, err := os.Open(path)
			if err != nil {
				return 0, err
			}
			opened = append(opened, file)
			photo.Media = fmt.Sprintf("attach://photo%d", i)
			photo.MediaAttachment = file
		} else {
			// Collector-sourced refs are Telegram file ids.
			photo.Media = item.Ref
		}
		media = append(media, photo)
	}

	messages, err := m.bot.SendMediaGroup(ctx, &tgbot.SendMediaGroupParams{
		ChatID: channelID,
		Media:  media,
	})
	if err != nil {
		return 0, err
	}
	if len(messages) == 0 {
		return 0, fmt.Errorf("media group send returned no messages")
	}
	return messages[0].ID, nil
}

func (m *Messenger) DeleteChannelMessage(ctx context.Context, channelID int64, messageID int) error {
	_, err := m.bot.DeleteMessage(ctx, &tgbot.DeleteMessageParams{
		ChatID:    channelID,
		MessageID: messageID,
	})
	return err
}

func (m *Messenger) isAdmin(telegramID int64) bool {
	for _, id := range m.adminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func adminCard(ad entities.Ad, photoCount int) string {
	common := ad.Common()
	var title string
	switch concrete := ad.(type) {
	case *entities.CarAd:
		title = fmt.Sprintf("🚗 %s %s, %d", html.EscapeString(concrete.Brand), html.EscapeString(concrete.Model), concrete.Year)
	case *entities.PlateAd:
		title = "🔢 Госномер " + html.EscapeString(concrete.PlateNumber)
	}
	return fmt.Sprintf("%s\n<b>%s</b>\n💰 %d ₽\n📍 %s\n📸 Фото: %d\n📞 %s",
		texts.AdminNewAd,
		title,
		common.Price,
		html.EscapeString(common.City),
		photoCount,
		html.EscapeString(common.ContactPhone),
	)
}

func moderationKeyboard(kind entities.AdKind, adID int64) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "✅ Одобрить", CallbackData: fmt.Sprintf("mod:approve:%s:%d", kind, adID)},
				{Text: "❌ Отклонить", CallbackData: fmt.Sprintf("mod:reject:%s:%d", kind, adID)},
			},
		},
	}
}
