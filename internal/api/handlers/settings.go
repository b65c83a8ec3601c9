package handlers

import "net/http"

// SettingsResponse reports the non-secret runtime configuration.
type SettingsResponse struct {
	MediaDriver           string `json:"media_driver"`
	TokenTTL              string `json:"token_ttl"`
	NotifyTimeout         string `json:"notify_timeout"`
	RequestTimeout        string `json:"request_timeout"`
	PaymentReminderWindow string `json:"payment_reminder_window"`
	MaxImageBytes         int    `json:"max_image_bytes"`
}

// GetSettings returns the runtime configuration.
func GetSettings(settings SettingsResponse) http.HandlerFunc {
	settings.MaxImageBytes = maxImageBytes
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, settings)
	}
}
