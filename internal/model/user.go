package model

import (
	"time"
)

// User represents a registered LockedIn user together with their goals and
// reminder preferences. Goals and ReminderTimes are paired by index: only the
// first min(len(Goals), len(ReminderTimes)) pairs produce reminder jobs.
type User struct {
	ID            string    `bson:"_id"            json:"id"`
	Name          string    `bson:"name"           json:"name"`
	Email         string    `bson:"email"          json:"email"`
	Phone         string    `bson:"phone"          json:"phone"`
	Goals         []string  `bson:"goals"          json:"goals"`
	ReminderTimes []string  `bson:"reminder_times" json:"reminder_times"` // local "HH:MM"
	Timezone      string    `bson:"timezone"       json:"timezone"`       // fixed offset, e.g. "GMT+1"
	CreatedAt     time.Time `bson:"created_at"     json:"created_at"`
	Active        bool      `bson:"active"         json:"active"`
}

// DefaultTimezone is applied when a signup request does not specify one.
// The original product launched for a GMT+1 audience.
const DefaultTimezone = "GMT+1"
