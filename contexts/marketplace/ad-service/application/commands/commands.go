// Package commands holds the write-side use cases of the ad service.
// Each use case is a plain struct wired by module.go; side effects that
// leave the service (chat notifications, channel publishing) run after
// the database write commits and never fail the operation.
package commands

import "strconv"

// rateLimitKey scopes throttle buckets per Telegram account.
func rateLimitKey(telegramID int64) string {
	return "user:" + strconv.FormatInt(telegramID, 10)
}
