package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// initDataMaxAge rejects replayed init data older than a day.
const initDataMaxAge = 24 * time.Hour

var (
	ErrInitDataInvalid = errors.New("init data signature mismatch")
	ErrInitDataExpired = errors.New("init data is too old")
)

// InitDataUser is the authenticated mini-app user parsed from the
// signed init data payload.
type InitDataUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (u InitDataUser) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// ValidateInitData checks the HMAC signature Telegram puts on mini-app
// init data and returns the embedded user. The signing key is derived
// from the bot token with the fixed "WebAppData" prefix.
func ValidateInitData(initData, botToken string) (InitDataUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return InitDataUser{}, ErrInitDataInvalid
	}
	received := values.Get("hash")
	if received == "" {
		return InitDataUser{}, ErrInitDataInvalid
	}
	values.Del("hash")

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, key+"="+values.Get(key))
	}
	checkString := strings.Join(lines, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(received))) {
		return InitDataUser{}, ErrInitDataInvalid
	}

	if raw := values.Get("auth_date"); raw != "" {
		authDate, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return InitDataUser{}, ErrInitDataInvalid
		}
		if time.Since(time.Unix(authDate, 0)) > initDataMaxAge {
			return InitDataUser{}, ErrInitDataExpired
		}
	}

	var user InitDataUser
	if raw := values.Get("user"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return InitDataUser{}, ErrInitDataInvalid
		}
	}
	if user.ID == 0 {
		return InitDataUser{}, ErrInitDataInvalid
	}
	return user, nil
}
