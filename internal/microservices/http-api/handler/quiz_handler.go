package handler

import (
	"context"
	"fmt"
	"net/http"

	"bookhub/internal/microservices/http-api/dto"
	"bookhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	quizService     service.QuizService
	progressService service.ProgressService
}

func NewQuizHandler(quizService service.QuizService, progressService service.ProgressService) *QuizHandler {
	return &QuizHandler{quizService: quizService, progressService: progressService}
}

// GetQuiz returns the book's quiz without its answers.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	var uri dto.BookURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	quiz, err := h.quizService.GetQuiz(ctx, uri.BookID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quiz": dto.NewQuizResponse(quiz)})
}

func (h *QuizHandler) UpsertQuiz(c *gin.Context) {
	var req dto.UpsertQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	quiz, err := h.quizService.UpsertQuiz(ctx, req.BookID, req.ToQuestions())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"quiz": dto.NewQuizResponse(quiz)})
}

func (h *QuizHandler) SubmitQuiz(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	result, err := h.progressService.SubmitQuiz(ctx, userID, req.BookID, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SubmitQuizResponse{
		Score:       result.Score,
		Total:       result.Total,
		BonusPoints: result.Bonus,
		Points:      result.Rewards.Points,
		Level:       result.Rewards.Level,
		Message:     fmt.Sprintf("You scored %d/%d and earned %d bonus points", result.Score, result.Total, result.Bonus),
	})
}
