package models

import "time"

// LeaderboardEntry is one ranked row of the leaderboard.
type LeaderboardEntry struct {
	Rank          int       `gorm:"-" json:"rank"`
	UserID        string    `gorm:"column:id" json:"user_id"`
	Name          string    `gorm:"column:username" json:"name"`
	Points        int       `gorm:"column:rewards_points" json:"points"`
	Level         int       `gorm:"column:rewards_level" json:"level"`
	LastAwardedAt time.Time `gorm:"column:rewards_last_awarded_at" json:"last_awarded_at"`
}

// Ahead reports whether e ranks before o: more points, then higher level,
// then the most recent award, then user id for a stable order.
func (e LeaderboardEntry) Ahead(o LeaderboardEntry) bool {
	if e.Points != o.Points {
		return e.Points > o.Points
	}
	if e.Level != o.Level {
		return e.Level > o.Level
	}
	if !e.LastAwardedAt.Equal(o.LastAwardedAt) {
		return e.LastAwardedAt.After(o.LastAwardedAt)
	}
	return e.UserID < o.UserID
}
