// Package publish renders approved ads and posts them to the public
// channel. Republishing is idempotent: the previous channel message is
// removed before the new one goes out.
package publish

import (
	"context"

	"github.com/rs/zerolog"

	"adboard/contexts/marketplace/ad-service/domain/entities"
	"adboard/contexts/marketplace/ad-service/ports"
)

type Publisher struct {
	Repository ports.Repository
	Transport  ports.ChannelTransport
	ChannelID  int64
	Logger     zerolog.Logger
}

// Publish posts the ad to the channel and records the new message id.
// An ad that was already on the channel gets its old message deleted
// first so the listing never appears twice.
func (p *Publisher) Publish(ctx context.Context, ad entities.Ad) error {
	if p.ChannelID == 0 || p.Transport == nil {
		p.Logger.Warn().Msg("channel not configured, skipping publish")
		return nil
	}
	common := ad.Common()

	if prior := common.ChannelMessageID; prior != 0 {
		if err := p.Transport.DeleteChannelMessage(ctx, p.ChannelID, prior); err != nil {
			// The old message may be gone already; republish anyway.
			p.Logger.Warn().Err(err).Int("message_id", prior).Msg("stale channel message delete failed")
		}
	}

	photos, err := p.Repository.ListPhotos(ctx, ad.Kind(), common.ID)
	if err != nil {
		return err
	}
	text := RenderChannelPost(ad)

	var messageID int
	if len(photos) > 0 {
		if len(photos) > 10 {
			photos = photos[:10]
		}
		items := make([]ports.MediaItem, 0, len(photos))
		for i, photo := range photos {
			item := ports.MediaItem{Ref: photo.FileRef}
			if i == 0 {
				item.Caption = text
			}
			items = append(items, item)
		}
		messageID, err = p.Transport.SendChannelMediaGroup(ctx, p.ChannelID, items)
	} else {
		messageID, err = p.Transport.SendChannelMessage(ctx, p.ChannelID, text)
	}
	if err != nil {
		return err
	}

	if err := p.Repository.SetChannelMessageID(ctx, ad.Kind(), common.ID, messageID); err != nil {
		return err
	}
	common.ChannelMessageID = messageID

	p.Logger.Info().
		Str("event", "ad_published").
		Str("module", "marketplace/ad-service").
		Str("kind", string(ad.Kind())).
		Int64("ad_id", common.ID).
		Int("message_id", messageID).
		Int("photos", len(photos)).
		Msg("ad published to channel")
	return nil
}
