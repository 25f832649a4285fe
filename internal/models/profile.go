package models

import "time"

// PartnerProfile is the partner header shown above the journal.
type PartnerProfile struct {
	Name      string `json:"name"`
	PhotoData []byte `json:"photo_data,omitempty"`
}

// Settings mirrors UI preferences persisted alongside the journal. They are
// convenience state, not core data; each field maps to its own storage key.
type Settings struct {
	DailyReminderEnabled bool       `json:"daily_reminder_enabled"`
	BiometricAuthEnabled bool       `json:"biometric_auth_enabled"`
	JournalingGoal       int        `json:"journaling_goal"`
	ReminderTime         *time.Time `json:"reminder_time,omitempty"`
	SelectedFilter       string     `json:"selected_filter"`
	SortOption           string     `json:"sort_option"`
	SortAscending        bool       `json:"sort_ascending"`
}

// DefaultSettings returns the settings used before the user changes anything.
func DefaultSettings() Settings {
	return Settings{
		JournalingGoal: 3,
		SelectedFilter: "all",
		SortOption:     "date",
	}
}
