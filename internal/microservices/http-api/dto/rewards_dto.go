package dto

import (
	"time"

	"bookhub/internal/microservices/http-api/models"
)

type RewardsResponse struct {
	Points        int       `json:"points"`
	Level         int       `json:"level"`
	Badges        []string  `json:"badges"`
	LastAwardedAt time.Time `json:"last_awarded_at"`
}

func NewRewardsResponse(r *models.Rewards) RewardsResponse {
	badges := []string(r.Badges)
	if badges == nil {
		badges = []string{}
	}
	return RewardsResponse{Points: r.Points, Level: r.Level, Badges: badges, LastAwardedAt: r.LastAwardedAt}
}

type LeaderboardQuery struct {
	Limit int `form:"limit,default=10"`
}

type LeaderboardUser struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Level  int    `json:"level"`
}

type LeaderboardResponse struct {
	Users []LeaderboardUser `json:"users"`
}

func NewLeaderboardResponse(entries []models.LeaderboardEntry) LeaderboardResponse {
	users := make([]LeaderboardUser, 0, len(entries))
	for _, e := range entries {
		users = append(users, LeaderboardUser{Rank: e.Rank, UserID: e.UserID, Name: e.Name, Points: e.Points, Level: e.Level})
	}
	return LeaderboardResponse{Users: users}
}

// AwardPointsRequest is the admin grant of manual points.
type AwardPointsRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Amount *int   `json:"amount" binding:"required"`
}
