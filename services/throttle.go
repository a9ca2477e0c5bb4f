package services

import (
	"time"

	"linkmonitor/models"
)

// emailThrottleWindow is the minimum gap between alert emails for one asset.
const emailThrottleWindow = time.Hour

// ShouldNotify reports whether a down observation may dispatch alert emails
// for this asset. At most one send attempt per asset per rolling hour, and
// only when the asset has opted in.
func ShouldNotify(a *models.Asset, now time.Time) bool {
	if !a.EmailNotifications {
		return false
	}
	return a.LastEmailSentTime == nil || now.Sub(*a.LastEmailSentTime) >= emailThrottleWindow
}
