package handler

import (
	"context"
	"net/http"

	"bookhub/internal/microservices/http-api/dto"
	"bookhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type RewardsHandler struct {
	rewardsService     service.RewardsService
	leaderboardService service.LeaderboardService
}

func NewRewardsHandler(rewardsService service.RewardsService, leaderboardService service.LeaderboardService) *RewardsHandler {
	return &RewardsHandler{rewardsService: rewardsService, leaderboardService: leaderboardService}
}

func (h *RewardsHandler) GetMyRewards(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	rw, err := h.rewardsService.GetRewards(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRewardsResponse(rw))
}

func (h *RewardsHandler) Leaderboard(c *gin.Context) {
	var q dto.LeaderboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	entries, err := h.leaderboardService.TopN(ctx, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLeaderboardResponse(entries))
}

// AwardPoints lets an admin credit points by hand.
func (h *RewardsHandler) AwardPoints(c *gin.Context) {
	var req dto.AwardPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	rw, err := h.rewardsService.AwardPoints(ctx, req.UserID, *req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewRewardsResponse(rw))
}
