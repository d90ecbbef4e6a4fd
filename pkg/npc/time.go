package npc

import "time"

// GameTime carries the in-game clock supplied by the game client. The
// timestamp drives revisit checks; the tags only color the prompt.
type GameTime struct {
	Timestamp time.Time `json:"current_timestamp"`
	TimeOfDay string    `json:"time_of_day,omitempty"` // "morning", "midday", "evening", ...
	DayOfWeek string    `json:"day_of_week,omitempty"`
}
