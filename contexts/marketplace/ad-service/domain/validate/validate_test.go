package validate

import (
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func validCarInput() CarAdInput {
	return CarAdInput{
		Brand:        "Toyota",
		Model:        "Camry",
		Year:         2020,
		Mileage:      120000,
		EngineVolume: 2.5,
		FuelType:     "бензин",
		Transmission: "автомат",
		Color:        "чёрный",
		Price:        1500000,
		City:         "Москва",
		ContactPhone: "89001234567",
	}
}

func TestCarAdValidPayload(t *testing.T) {
	if err := CarAd(validCarInput(), testNow); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
}

func TestCarAdCollectsAllViolations(t *testing.T) {
	in := CarAdInput{
		Year:         1900,
		Price:        -5,
		ContactPhone: "abc",
	}
	err := CarAd(in, testNow)
	if err == nil {
		t.Fatal("expected validation error")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	// brand, model, year, price, city, phone length are all wrong at once.
	if len(ve.Violations) < 6 {
		t.Fatalf("expected complete violation list, got %d: %v", len(ve.Violations), ve.Violations)
	}
}

func TestCarAdYearUpperBound(t *testing.T) {
	in := validCarInput()
	in.Year = testNow.Year() + 2
	err := CarAd(in, testNow)
	if err == nil {
		t.Fatal("expected year violation")
	}
	if !containsViolation(err, "Год выпуска") {
		t.Fatalf("expected year message, got %v", err)
	}

	in.Year = testNow.Year() + 1
	if err := CarAd(in, testNow); err != nil {
		t.Fatalf("current year + 1 must be accepted, got %v", err)
	}
}

func TestCarAdCatalogCrossCheck(t *testing.T) {
	in := validCarInput()
	in.Brand = "Тойота"
	if err := CarAd(in, testNow); err == nil || !containsViolation(err, "не найдена в каталоге") {
		t.Fatalf("unknown brand must fail catalog check, got %v", err)
	}

	in = validCarInput()
	in.Model = "Supra"
	if err := CarAd(in, testNow); err == nil || !containsViolation(err, "не найдена для марки") {
		t.Fatalf("unknown model must fail catalog check, got %v", err)
	}
}

func TestCarAdOtherSentinelSkipsCatalog(t *testing.T) {
	in := validCarInput()
	in.Brand = "Другая"
	in.Model = "Самодельная"
	if err := CarAd(in, testNow); err != nil {
		t.Fatalf("sentinel brand must skip catalog check, got %v", err)
	}
}

func TestCarAdEnumVocabulary(t *testing.T) {
	in := validCarInput()
	in.FuelType = "керосин"
	in.Transmission = "ручка"
	err := CarAd(in, testNow)
	if err == nil {
		t.Fatal("expected enum violations")
	}
	ve := err.(*ValidationError)
	if len(ve.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %v", ve.Violations)
	}
}

func TestCarAdPhoneRules(t *testing.T) {
	in := validCarInput()
	in.ContactPhone = "нет"
	if err := CarAd(in, testNow); err == nil || !containsViolation(err, "Контактный телефон") {
		t.Fatalf("short digitless phone must fail, got %v", err)
	}

	in.ContactPhone = "+7 (900) 123-45-67"
	if err := CarAd(in, testNow); err != nil {
		t.Fatalf("formatted phone must pass, got %v", err)
	}
}

func TestPlateAdValidation(t *testing.T) {
	in := PlateAdInput{
		PlateNumber:  "А777АА 07",
		Price:        300000,
		City:         "Нальчик",
		ContactPhone: "89001234567",
	}
	if err := PlateAd(in); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}

	in.Price = 50000001
	if err := PlateAd(in); err == nil || !containsViolation(err, "Цена") {
		t.Fatalf("plate price ceiling must apply, got %v", err)
	}
}

func containsViolation(err error, fragment string) bool {
	ve, ok := err.(*ValidationError)
	if !ok {
		return false
	}
	for _, v := range ve.Violations {
		if strings.Contains(v, fragment) {
			return true
		}
	}
	return false
}
