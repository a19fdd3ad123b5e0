// Package validate checks submitted ad fields against domain rules.
// All checks are pure; every violation is collected and returned
// together so the caller can fix the whole payload at once.
package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"adboard/contexts/marketplace/ad-service/domain/catalog"
)

// MinCarYear is the oldest accepted model year.
const MinCarYear = 1960

var va = validator.New(validator.WithRequiredStructEnabled())

// ValidationError carries the complete list of violations.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// CarAdInput is the merged field view of a car ad under validation.
type CarAdInput struct {
	Brand           string  `validate:"required,max=100"`
	Model           string  `validate:"required,max=100"`
	Year            int     `validate:"required,gte=1960"`
	Mileage         int     `validate:"gte=0,lte=10000000"`
	EngineVolume    float64 `validate:"omitempty,gte=0.1,lte=20"`
	FuelType        string  `validate:"omitempty,oneof=бензин дизель газ электро гибрид"`
	Transmission    string  `validate:"omitempty,oneof=механика автомат робот вариатор"`
	Color           string  `validate:"max=50"`
	Price           int64   `validate:"required,gt=0,lte=100000000"`
	Description     string  `validate:"max=2000"`
	City            string  `validate:"required,max=100"`
	Region          string  `validate:"max=100"`
	ContactPhone    string  `validate:"required,min=5,max=20,containsany=0123456789"`
	ContactTelegram string  `validate:"max=255"`
}

// PlateAdInput is the merged field view of a plate ad under validation.
type PlateAdInput struct {
	PlateNumber     string `validate:"required,max=20"`
	Price           int64  `validate:"required,gt=0,lte=50000000"`
	Description     string `validate:"max=2000"`
	City            string `validate:"required,max=100"`
	Region          string `validate:"max=100"`
	ContactPhone    string `validate:"required,min=5,max=20,containsany=0123456789"`
	ContactTelegram string `validate:"max=255"`
}

// CarAd validates a car payload. now supplies the model-year upper
// bound (current year + 1).
func CarAd(in CarAdInput, now time.Time) error {
	violations := collect(va.Struct(in))

	maxYear := now.Year() + 1
	if in.Year > maxYear {
		violations = append(violations, fmt.Sprintf("Год выпуска — от %d до %d", MinCarYear, maxYear))
	}

	// Catalog cross-check is skipped when the "other" sentinel is used.
	brand := strings.TrimSpace(in.Brand)
	model := strings.TrimSpace(in.Model)
	if brand != "" && brand != catalog.OtherSentinel {
		if !catalog.HasBrand(brand) {
			violations = append(violations, fmt.Sprintf("Марка «%s» не найдена в каталоге", brand))
		} else if model != "" && model != catalog.OtherSentinel && !catalog.HasModel(brand, model) {
			violations = append(violations, fmt.Sprintf("Модель «%s» не найдена для марки «%s»", model, brand))
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

// PlateAd validates a plate payload.
func PlateAd(in PlateAdInput) error {
	violations := collect(va.Struct(in))
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

func collect(err error) []string {
	if err == nil {
		return nil
	}
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	violations := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		violations = append(violations, translate(fe))
	}
	return violations
}

// translate maps a field error to the user-facing Russian message.
func translate(fe validator.FieldError) string {
	label := fieldLabels[fe.StructField()]
	if label == "" {
		label = fe.StructField()
	}
	switch fe.Tag() {
	case "required":
		return label + " — обязательное поле"
	case "min":
		return fmt.Sprintf("%s — минимум %s символов", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s — максимум %s символов", label, fe.Param())
	case "gt":
		if fe.Param() == "0" {
			return label + " — должна быть больше 0"
		}
		return fmt.Sprintf("%s — должно быть больше %s", label, fe.Param())
	case "gte":
		if fe.StructField() == "Year" {
			return fmt.Sprintf("Год выпуска — от %d", MinCarYear)
		}
		if fe.Param() == "0" {
			return label + " — не может быть отрицательным"
		}
		return fmt.Sprintf("%s — минимум %s", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s — максимум %s", label, formatBound(fe.Param()))
	case "oneof":
		return fmt.Sprintf("%s — допустимые значения: %s", label, strings.Join(strings.Split(fe.Param(), " "), ", "))
	case "containsany":
		return label + " — должен содержать цифры"
	default:
		return fmt.Sprintf("%s — некорректное значение", label)
	}
}

var fieldLabels = map[string]string{
	"Brand":           "Марка",
	"Model":           "Модель",
	"Year":            "Год выпуска",
	"Mileage":         "Пробег",
	"EngineVolume":    "Объём двигателя",
	"FuelType":        "Тип топлива",
	"Transmission":    "Коробка передач",
	"Color":           "Цвет",
	"Price":           "Цена",
	"Description":     "Описание",
	"City":            "Город",
	"Region":          "Регион",
	"ContactPhone":    "Контактный телефон",
	"ContactTelegram": "Контакт в Telegram",
	"PlateNumber":     "Номер госномера",
}

// formatBound inserts thousands separators into large numeric bounds.
func formatBound(param string) string {
	if len(param) <= 3 {
		return param
	}
	var b strings.Builder
	lead := len(param) % 3
	if lead > 0 {
		b.WriteString(param[:lead])
	}
	for i := lead; i < len(param); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(param[i : i+3])
	}
	return b.String()
}
