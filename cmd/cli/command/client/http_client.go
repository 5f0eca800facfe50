package client

// http_client.go = handles HTTP client functionality for the bookhub CLI.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bookhub/internal/microservices/http-api/dto"
)

// HTTPClient talks to the bookhub API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("request failed (%d): %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// NewHTTPClient creates a client for the API at baseURL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithToken returns a copy of the client that sends the access token.
func (c *HTTPClient) WithToken(token string) *HTTPClient {
	cp := *c
	cp.token = token
	return &cp
}

// do sends one JSON request and decodes a JSON response into out.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Auth

func (c *HTTPClient) Register(ctx context.Context, request *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	var result dto.RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", request, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Login(ctx context.Context, request *dto.LoginRequest) (*dto.AuthResponse, error) {
	var result dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", request, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) RefreshToken(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error) {
	var result dto.RefreshResponse
	body := dto.RefreshTokenRequest{RefreshToken: refreshToken}
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) RevokeToken(ctx context.Context, refreshToken string) error {
	body := dto.RevokeTokenRequest{RefreshToken: refreshToken}
	return c.do(ctx, http.MethodPost, "/api/auth/revoke", body, nil)
}

// Progress

func (c *HTTPClient) UpdateProgress(ctx context.Context, bookID string, percentage float64) (*dto.ProgressResponse, error) {
	var result struct {
		Progress dto.ProgressResponse `json:"progress"`
	}
	body := dto.UpdateProgressRequest{BookID: bookID, Percentage: &percentage}
	if err := c.do(ctx, http.MethodPost, "/api/progress", body, &result); err != nil {
		return nil, err
	}
	return &result.Progress, nil
}

func (c *HTTPClient) ListProgress(ctx context.Context) (*dto.ProgressListResponse, error) {
	var result dto.ProgressListResponse
	if err := c.do(ctx, http.MethodGet, "/api/progress", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) GetProgress(ctx context.Context, bookID string) (*dto.ProgressResponse, error) {
	var result struct {
		Progress dto.ProgressResponse `json:"progress"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/progress/"+url.PathEscape(bookID), nil, &result); err != nil {
		return nil, err
	}
	return &result.Progress, nil
}

// Quizzes

func (c *HTTPClient) GetQuiz(ctx context.Context, bookID string) (*dto.QuizResponse, error) {
	var result struct {
		Quiz dto.QuizResponse `json:"quiz"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/quizzes/book/"+url.PathEscape(bookID), nil, &result); err != nil {
		return nil, err
	}
	return &result.Quiz, nil
}

func (c *HTTPClient) UpsertQuiz(ctx context.Context, request *dto.UpsertQuizRequest) (*dto.QuizResponse, error) {
	var result struct {
		Quiz dto.QuizResponse `json:"quiz"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/quizzes", request, &result); err != nil {
		return nil, err
	}
	return &result.Quiz, nil
}

func (c *HTTPClient) SubmitQuiz(ctx context.Context, bookID string, answers []*int) (*dto.SubmitQuizResponse, error) {
	var result dto.SubmitQuizResponse
	body := dto.SubmitQuizRequest{BookID: bookID, Answers: answers}
	if err := c.do(ctx, http.MethodPost, "/api/quizzes/submit", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Rewards

func (c *HTTPClient) MyRewards(ctx context.Context) (*dto.RewardsResponse, error) {
	var result dto.RewardsResponse
	if err := c.do(ctx, http.MethodGet, "/api/rewards/me", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Leaderboard(ctx context.Context, limit int) (*dto.LeaderboardResponse, error) {
	var result dto.LeaderboardResponse
	path := "/api/leaderboard?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) AwardPoints(ctx context.Context, userID string, amount int) (*dto.RewardsResponse, error) {
	var result dto.RewardsResponse
	body := dto.AwardPointsRequest{UserID: userID, Amount: &amount}
	if err := c.do(ctx, http.MethodPost, "/api/admin/rewards", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
