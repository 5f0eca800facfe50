package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookhub/internal/config"
	"bookhub/internal/microservices/http-api/middleware"
	"bookhub/internal/microservices/http-api/models"
	"bookhub/internal/microservices/http-api/repository"
	"bookhub/internal/microservices/http-api/service"
	feed "bookhub/internal/microservices/websocket"
	"bookhub/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RouterSuite struct {
	suite.Suite
	store  *repository.MemoryStore
	router *gin.Engine
}

func (s *RouterSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.GoEnv = "test"
	cfg.StorageDriver = config.DriverMemory
	cfg.JWTSecret = "0123456789abcdef0123456789abcdef"
	cfg.AdminEmails = []string{"admin@example.com"}

	s.store = repository.NewMemoryStore()
	require.NoError(s.T(), s.store.Books().Create(context.Background(), &models.Book{ID: "b1", Title: "Dune"}))

	m := metrics.New(metrics.WithRegistry(prometheus.NewRegistry()))
	ledger := service.NewLedger(s.store, nil, service.DefaultRetryPolicy, m)
	hub := feed.NewHub()
	ledger.SetNotifier(hub)
	s.router = NewRouter(RouterConfig{
		Config:      cfg,
		Auth:        service.NewAuthService(s.store.Users(), s.store.RefreshTokens(), cfg),
		Progress:    service.NewProgressService(s.store, ledger, m),
		Quiz:        service.NewQuizService(s.store),
		Rewards:     ledger,
		Leaderboard: service.NewLeaderboardService(s.store, nil, cfg.LeaderboardMaxLimit, cfg.LeaderboardCacheTTL, m),
		Metrics:     m,
		Limiter:     middleware.NewUserRateLimiter(cfg.RateLimitPerMinute),
		Feed:        hub,
	})
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.T(), json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup registers and logs in, returning the access token.
func (s *RouterSuite) signup(name, email string) string {
	w := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": name, "password": "password123", "email": email,
	})
	require.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": name, "password": "password123"})
	require.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AccessToken
}

func (s *RouterSuite) TestHealthAndMetrics() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), config.DriverMemory)

	w = s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "bookhub_http_requests_total")
}

func (s *RouterSuite) TestReadingFlow() {
	token := s.signup("alice", "alice@example.com")

	w := s.do(http.MethodPost, "/api/progress", token, map[string]any{"book_id": "b1", "percentage": 50})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/progress", token, map[string]any{"book_id": "b1", "percentage": 100})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Contains(w.Body.String(), `"status":"completed"`)

	// repeated completion pays nothing more
	w = s.do(http.MethodPost, "/api/progress", token, map[string]any{"book_id": "b1", "percentage": 100})
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/rewards/me", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var rw struct {
		Points int `json:"points"`
		Level  int `json:"level"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &rw))
	s.Equal(20, rw.Points)
	s.Equal(1, rw.Level)

	w = s.do(http.MethodGet, "/api/progress", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Completed []json.RawMessage `json:"completed"`
		Reading   []json.RawMessage `json:"reading"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &list))
	s.Len(list.Completed, 1)
	s.Len(list.Reading, 0)

	w = s.do(http.MethodGet, "/api/leaderboard", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"name":"alice"`)
}

func (s *RouterSuite) TestUnknownBookAndMissingProgress() {
	token := s.signup("bob", "bob@example.com")

	w := s.do(http.MethodPost, "/api/progress", token, map[string]any{"book_id": "nope", "percentage": 10})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/progress/b1", token, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestProtectedRoutesNeedToken() {
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/progress", "", nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/rewards/me", "", nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/api/quizzes/submit", "", map[string]any{"book_id": "b1"}).Code)
}

func (s *RouterSuite) TestQuizFlow() {
	user := s.signup("carol", "carol@example.com")
	admin := s.signup("root", "admin@example.com")

	quiz := map[string]any{
		"book_id": "b1",
		"questions": []map[string]any{
			{"prompt": "Planet?", "options": []string{"Arrakis", "Earth"}, "answer_index": 0, "points": 10},
			{"prompt": "House?", "options": []string{"Harkonnen", "Atreides"}, "answer_index": 1, "points": 20},
		},
	}
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/api/quizzes", user, quiz).Code)
	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/quizzes", admin, quiz).Code)

	w := s.do(http.MethodGet, "/api/quizzes/book/b1", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotContains(w.Body.String(), "answer_index")

	w = s.do(http.MethodPost, "/api/quizzes/submit", user, map[string]any{"book_id": "b1", "answers": []any{0, 1}})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var result struct {
		Score       int `json:"score"`
		Total       int `json:"total"`
		BonusPoints int `json:"bonus_points"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &result))
	s.Equal(30, result.Score)
	s.Equal(30, result.Total)
	s.Equal(30, result.BonusPoints)
}

func (s *RouterSuite) TestAdminAward() {
	user := s.signup("dave", "dave@example.com")
	admin := s.signup("boss", "admin@example.com")

	u, err := s.store.Users().FindByUsername(context.Background(), "dave")
	s.Require().NoError(err)

	body := map[string]any{"user_id": u.ID, "amount": 150}
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/api/admin/rewards", user, body).Code)

	w := s.do(http.MethodPost, "/api/admin/rewards", admin, body)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Contains(w.Body.String(), `"level":2`)
}

func TestHealth_Degraded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	router := gin.New()
	router.GET("/health", health(cfg, func(context.Context) error { return errors.New("db down") }))

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "db down")
}

func TestNewHTTPServer(t *testing.T) {
	cfg := config.Default()
	cfg.HTTPPort = 9090
	srv := NewHTTPServer(cfg, http.NewServeMux())
	assert.Equal(t, ":9090", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
}

func (s *RouterSuite) TestFeedRoute() {
	w := s.do(http.MethodGet, "/api/feed", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	// authenticated but not a websocket handshake
	token := s.signup("carol", "carol@example.com")
	w = s.do(http.MethodGet, "/api/feed", token, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}
