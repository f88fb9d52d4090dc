package store

// Setting is one row of the settings table.
type Setting struct {
	Key   string
	Value string
}

// Setting keys seeded by the first migration.
const (
	SettingGestureName    = "default_gesture_name"
	SettingSequenceName   = "default_sequence_name"
	SettingTimerMinutes   = "default_timer_minutes"
	SettingDelayIncrement = "step_delay_increment"
)
