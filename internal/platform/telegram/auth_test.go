package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"
)

const testBotToken = "12345:TEST-TOKEN"

func signInitData(t *testing.T, token string, params map[string]string) string {
	t.Helper()
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, key+"="+params[key])
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(token))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))

	values := url.Values{}
	for key, value := range params {
		values.Set(key, value)
	}
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

func validParams() map[string]string {
	return map[string]string{
		"user":      `{"id":100,"username":"seller","first_name":"Test","last_name":"Seller"}`,
		"auth_date": fmt.Sprintf("%d", time.Now().Unix()),
		"query_id":  "AAH9mZcNAAAAAP2Zlw0m7RSC",
	}
}

func TestValidateInitData(t *testing.T) {
	user, err := ValidateInitData(signInitData(t, testBotToken, validParams()), testBotToken)
	if err != nil {
		t.Fatalf("validation failed: %v", err)
	}
	if user.ID != 100 || user.Username != "seller" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.FullName() != "Test Seller" {
		t.Fatalf("unexpected full name: %q", user.FullName())
	}
}

func TestValidateInitDataWrongToken(t *testing.T) {
	_, err := ValidateInitData(signInitData(t, "999:OTHER", validParams()), testBotToken)
	if !errors.Is(err, ErrInitDataInvalid) {
		t.Fatalf("expected signature mismatch, got %v", err)
	}
}

func TestValidateInitDataTampered(t *testing.T) {
	params := validParams()
	initData := signInitData(t, testBotToken, params)
	tampered := strings.Replace(initData, "seller", "hacker", 1)
	if tampered == initData {
		t.Fatal("tampering had no effect")
	}
	_, err := ValidateInitData(tampered, testBotToken)
	if !errors.Is(err, ErrInitDataInvalid) {
		t.Fatalf("expected signature mismatch, got %v", err)
	}
}

func TestValidateInitDataMissingHash(t *testing.T) {
	_, err := ValidateInitData("user=%7B%22id%22%3A100%7D&auth_date=1", testBotToken)
	if !errors.Is(err, ErrInitDataInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestValidateInitDataExpired(t *testing.T) {
	params := validParams()
	params["auth_date"] = fmt.Sprintf("%d", time.Now().Add(-25*time.Hour).Unix())
	_, err := ValidateInitData(signInitData(t, testBotToken, params), testBotToken)
	if !errors.Is(err, ErrInitDataExpired) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestValidateInitDataWithoutUser(t *testing.T) {
	params := map[string]string{"auth_date": fmt.Sprintf("%d", time.Now().Unix())}
	_, err := ValidateInitData(signInitData(t, testBotToken, params), testBotToken)
	if !errors.Is(err, ErrInitDataInvalid) {
		t.Fatalf("expected invalid without a user, got %v", err)
	}
}
