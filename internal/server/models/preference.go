package models

import "time"

// Notification channels.
const (
	ChannelEmail   = "EMAIL"
	ChannelWebhook = "WEBHOOK"
)

// Notification frequencies.
const (
	FrequencyImmediate = "IMMEDIATE"
	FrequencyDaily     = "DAILY"
	FrequencyWeekly    = "WEEKLY"
)

// DefaultAnticipationDays applies when the owner has no stored preference.
const DefaultAnticipationDays = 30

// NotificationPreference holds one owner's reminder settings. A missing row
// means defaults: 30 anticipation days, DAILY frequency, EMAIL only.
type NotificationPreference struct {
	OwnerID          string
	AnticipationDays int
	Channels         []string
	Frequency        string
	// WebhookURL is the target for the WEBHOOK channel, when configured.
	WebhookURL *string
	UpdatedAt  time.Time
}

// DefaultPreference returns the settings used for owners without a stored row.
func DefaultPreference(ownerID string) *NotificationPreference {
	return &NotificationPreference{
		OwnerID:          ownerID,
		AnticipationDays: DefaultAnticipationDays,
		Channels:         []string{ChannelEmail},
		Frequency:        FrequencyDaily,
	}
}
