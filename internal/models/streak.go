package models

import "time"

// UserStreak holds the daily check-in counters and points of one user.
type UserStreak struct {
	UserID      uint       `json:"userId" gorm:"primaryKey;autoIncrement:false"`
	Current     int        `json:"current" gorm:"not null;default:0"`
	Longest     int        `json:"longest" gorm:"not null;default:0"`
	Points      int64      `json:"points" gorm:"not null;default:0;index"`
	LastCheckIn *time.Time `json:"lastCheckIn"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	User        *User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

type CheckInResult struct {
	Streak           UserStreak `json:"streak"`
	Awarded          int64      `json:"awarded"`
	AlreadyCheckedIn bool       `json:"alreadyCheckedIn"`
}

type LeaderboardEntry struct {
	User    UserCompact `json:"user"`
	Points  int64       `json:"points"`
	Current int         `json:"current"`
}

type LeaderboardRequest struct {
	Limit int `json:"limit" query:"limit" validate:"omitempty,min=1,max=100"`
}
