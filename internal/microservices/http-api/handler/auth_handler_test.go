package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookhub/internal/microservices/http-api/dto"
	"bookhub/internal/microservices/http-api/models"
	"bookhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	args := m.Called(ctx, username, password, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (string, string, *models.User, error) {
	args := m.Called(ctx, username, password)
	var user *models.User
	if args.Get(2) != nil {
		user = args.Get(2).(*models.User)
	}
	return args.String(0), args.String(1), user, args.Error(3)
}

func (m *MockAuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

func (m *MockAuthService) RevokeToken(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuthService) AccessTokenTTL() time.Duration {
	return 15 * time.Minute
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func postJSON(router http.Handler, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegister_Success(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/register", handler.Register)

	user := &models.User{
		ID:       "user-123",
		Username: "testuser",
		Email:    "test@example.com",
	}
	mockAuthService.On("Register", mock.Anything, "testuser", "password123", "test@example.com").Return(user, nil)

	w := postJSON(router, "/register", dto.RegisterRequest{
		Username: "testuser",
		Password: "password123",
		Email:    "test@example.com",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var response dto.RegisterResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "user-123", response.UserID)
	assert.Equal(t, "testuser", response.Username)
	mockAuthService.AssertExpectations(t)
}

func TestRegister_InvalidRequest(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/register", handler.Register)

	w := postJSON(router, "/register", map[string]string{"username": "testuser"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockAuthService.AssertNotCalled(t, "Register")
}

func TestRegister_Conflict(t *testing.T) {
	for _, err := range []error{service.ErrNameInUse, service.ErrEmailInUse} {
		mockAuthService := new(MockAuthService)
		handler := NewAuthHandler(mockAuthService)
		router := setupRouter()
		router.POST("/register", handler.Register)

		mockAuthService.On("Register", mock.Anything, "testuser", "password123", "test@example.com").Return(nil, err)

		w := postJSON(router, "/register", dto.RegisterRequest{
			Username: "testuser",
			Password: "password123",
			Email:    "test@example.com",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	}
}

func TestLogin_Success(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/login", handler.Login)

	user := &models.User{ID: "user-123", Username: "testuser", Role: models.RoleUser}
	mockAuthService.On("Login", mock.Anything, "testuser", "password123").Return("access", "refresh", user, nil)

	w := postJSON(router, "/login", dto.LoginRequest{Username: "testuser", Password: "password123"})

	assert.Equal(t, http.StatusOK, w.Code)
	var response dto.AuthResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "access", response.AccessToken)
	assert.Equal(t, "refresh", response.RefreshToken)
	assert.Equal(t, "Bearer", response.TokenType)
	assert.Equal(t, int64(900), response.ExpiresIn)
	assert.Equal(t, models.RoleUser, response.Role)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/login", handler.Login)

	mockAuthService.On("Login", mock.Anything, "testuser", "wrong").Return("", "", nil, service.ErrInvalidCredentials)

	w := postJSON(router, "/login", dto.LoginRequest{Username: "testuser", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_InternalErrorIsHidden(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/login", handler.Login)

	mockAuthService.On("Login", mock.Anything, "testuser", "pw").Return("", "", nil, errors.New("pq: connection refused"))

	w := postJSON(router, "/login", dto.LoginRequest{Username: "testuser", Password: "pw"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestRefreshToken(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/refresh", handler.RefreshToken)

	mockAuthService.On("RefreshAccessToken", mock.Anything, "good").Return("new-access", nil)
	mockAuthService.On("RefreshAccessToken", mock.Anything, "stale").Return("", service.ErrExpiredToken)
	mockAuthService.On("RefreshAccessToken", mock.Anything, "junk").Return("", service.ErrInvalidToken)

	w := postJSON(router, "/refresh", dto.RefreshTokenRequest{RefreshToken: "good"})
	assert.Equal(t, http.StatusOK, w.Code)
	var response dto.RefreshResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "new-access", response.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, postJSON(router, "/refresh", dto.RefreshTokenRequest{RefreshToken: "stale"}).Code)
	assert.Equal(t, http.StatusUnauthorized, postJSON(router, "/refresh", dto.RefreshTokenRequest{RefreshToken: "junk"}).Code)
}

func TestRevokeToken_AlwaysOK(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService)
	router := setupRouter()
	router.POST("/revoke", handler.RevokeToken)

	mockAuthService.On("RevokeToken", mock.Anything, "known").Return(nil)
	mockAuthService.On("RevokeToken", mock.Anything, "unknown").Return(errors.New("boom"))

	assert.Equal(t, http.StatusOK, postJSON(router, "/revoke", dto.RevokeTokenRequest{RefreshToken: "known"}).Code)
	assert.Equal(t, http.StatusOK, postJSON(router, "/revoke", dto.RevokeTokenRequest{RefreshToken: "unknown"}).Code)
	mockAuthService.AssertExpectations(t)
}
