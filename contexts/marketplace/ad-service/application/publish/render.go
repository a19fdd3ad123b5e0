package publish

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"adboard/contexts/marketplace/ad-service/domain/entities"
)

// captionLimit keeps the rendered description inside Telegram's media
// caption budget.
const captionLimit = 500

// RenderChannelPost builds the HTML-formatted channel text for an ad.
// All user-supplied fields are escaped.
func RenderChannelPost(ad entities.Ad) string {
	var b strings.Builder
	common := ad.Common()

	switch concrete := ad.(type) {
	case *entities.CarAd:
		fmt.Fprintf(&b, "🚗 <b>%s %s, %d</b>\n\n", html.EscapeString(concrete.Brand), html.EscapeString(concrete.Model), concrete.Year)
		fmt.Fprintf(&b, "💰 %s ₽\n", formatNumber(common.Price))
		if concrete.Mileage > 0 {
			fmt.Fprintf(&b, "🛣 Пробег: %s км\n", formatNumber(int64(concrete.Mileage)))
		}
		var specs []string
		if concrete.EngineVolume > 0 {
			specs = append(specs, strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.1f", concrete.EngineVolume), "0"), ".")+" л")
		}
		if concrete.FuelType != "" {
			specs = append(specs, html.EscapeString(string(concrete.FuelType)))
		}
		if concrete.Transmission != "" {
			specs = append(specs, html.EscapeString(string(concrete.Transmission)))
		}
		if concrete.Color != "" {
			specs = append(specs, html.EscapeString(concrete.Color))
		}
		if concrete.HasLPG {
			specs = append(specs, "ГБО")
		}
		if len(specs) > 0 {
			fmt.Fprintf(&b, "⚙️ %s\n", strings.Join(specs, ", "))
		}
	case *entities.PlateAd:
		fmt.Fprintf(&b, "🔢 <b>Госномер %s</b>\n\n", html.EscapeString(concrete.PlateNumber))
		fmt.Fprintf(&b, "💰 %s ₽\n", formatNumber(common.Price))
	}

	location := common.City
	if common.Region != "" && common.Region != common.City {
		location = common.City + ", " + common.Region
	}
	if location != "" {
		fmt.Fprintf(&b, "📍 %s\n", html.EscapeString(location))
	}

	if desc := truncateRunes(strings.TrimSpace(common.Description), captionLimit); desc != "" {
		fmt.Fprintf(&b, "\n%s\n", html.EscapeString(desc))
	}

	b.WriteString("\n📞 " + html.EscapeString(common.ContactPhone))
	if handle := strings.TrimPrefix(common.ContactTelegram, "@"); handle != "" {
		b.WriteString(" | @" + html.EscapeString(handle))
	}
	b.WriteString("\n")
	return b.String()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

// formatNumber renders 1234567 as "1 234 567".
func formatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, " ")
	if neg {
		out = "-" + out
	}
	return out
}
