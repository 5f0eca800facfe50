package models

import (
	"time"

	"bookhub/internal/rewards"

	"gorm.io/datatypes"
)

// Rewards is the per-user points/level record. It lives in the users table
// under the rewards_ column prefix. Level is always rewards.LevelFor(Points).
type Rewards struct {
	Points        int                         `gorm:"not null;default:0" json:"points"`
	Level         int                         `gorm:"not null;default:1" json:"level"`
	Badges        datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"badges"`
	Version       int64                       `gorm:"not null;default:0" json:"-"`
	LastAwardedAt time.Time                   `gorm:"not null" json:"last_awarded_at"`
}

// NewRewards is the state of an account that has earned nothing yet.
func NewRewards() Rewards {
	return Rewards{Points: 0, Level: 1, Badges: datatypes.JSONSlice[string]{}}
}

// Add returns the state after crediting amount points at time at. Points and
// level move together and the version is bumped so a concurrent writer that
// read the old state loses its compare-and-swap.
func (r Rewards) Add(amount int, at time.Time) Rewards {
	next := r
	next.Points = r.Points + amount
	next.Level = rewards.LevelFor(next.Points)
	next.Version = r.Version + 1
	next.LastAwardedAt = at
	return next
}
