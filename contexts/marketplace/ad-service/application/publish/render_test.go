package publish

import (
	"strings"
	"testing"

	"adboard/contexts/marketplace/ad-service/domain/entities"
)

func TestRenderCarPost(t *testing.T) {
	ad := &entities.CarAd{
		AdCommon: entities.AdCommon{
			Price:           2150000,
			City:            "Ташкент",
			Region:          "Ташкентская область",
			Description:     "Один владелец",
			ContactPhone:    "+998901234567",
			ContactTelegram: "@seller",
		},
		Brand:        "Toyota",
		Model:        "Camry",
		Year:         2018,
		Mileage:      90000,
		EngineVolume: 2.5,
		FuelType:     entities.FuelPetrol,
		Transmission: entities.TransmissionAutomatic,
		HasLPG:       true,
	}

	post := RenderChannelPost(ad)
	for _, want := range []string{
		"🚗 <b>Toyota Camry, 2018</b>",
		"💰 2 150 000 ₽",
		"🛣 Пробег: 90 000 км",
		"2.5 л, бензин, автомат, ГБО",
		"📍 Ташкент, Ташкентская область",
		"Один владелец",
		"📞 +998901234567 | @seller",
	} {
		if !strings.Contains(post, want) {
			t.Errorf("post missing %q:\n%s", want, post)
		}
	}
}

func TestRenderPlatePost(t *testing.T) {
	ad := &entities.PlateAd{
		AdCommon: entities.AdCommon{
			Price:        5000000,
			City:         "Самарканд",
			ContactPhone: "+998907654321",
		},
		PlateNumber: "01 A 777 AA",
	}

	post := RenderChannelPost(ad)
	if !strings.Contains(post, "🔢 <b>Госномер 01 A 777 AA</b>") {
		t.Errorf("plate title missing:\n%s", post)
	}
	if !strings.Contains(post, "💰 5 000 000 ₽") {
		t.Errorf("price missing:\n%s", post)
	}
	if strings.Contains(post, "|") {
		t.Errorf("no telegram handle given, separator must not appear:\n%s", post)
	}
}

func TestRenderEscapesUserInput(t *testing.T) {
	ad := &entities.CarAd{
		AdCommon: entities.AdCommon{
			Price:        1,
			City:         "<img>",
			ContactPhone: "+1",
			Description:  `<script>alert("x")</script>`,
		},
		Brand: "A<b>",
		Model: "B&C",
		Year:  2000,
	}

	post := RenderChannelPost(ad)
	for _, raw := range []string{"<script>", "A<b>", "B&C", "<img>"} {
		if strings.Contains(post, raw) {
			t.Errorf("unescaped input %q leaked into post:\n%s", raw, post)
		}
	}
	if !strings.Contains(post, "A&lt;b&gt; B&amp;C") {
		t.Errorf("expected escaped title:\n%s", post)
	}
}

func TestRenderTruncatesLongDescription(t *testing.T) {
	ad := &entities.PlateAd{
		AdCommon: entities.AdCommon{
			Price:        1,
			City:         "Ташкент",
			ContactPhone: "+1",
			Description:  strings.Repeat("ю", 800),
		},
		PlateNumber: "X",
	}

	post := RenderChannelPost(ad)
	if !strings.Contains(post, "…") {
		t.Errorf("long description must end with ellipsis:\n%s", post)
	}
	if got := strings.Count(post, "ю"); got != captionLimit-1 {
		t.Errorf("expected %d description runes, got %d", captionLimit-1, got)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{950, "950"},
		{1000, "1 000"},
		{2150000, "2 150 000"},
		{-45000, "-45 000"},
	}
	for _, tc := range cases {
		if got := formatNumber(tc.in); got != tc.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
