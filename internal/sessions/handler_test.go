package sessions

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/store/memory"
	"github.com/summitdesk/backend/pkg/clock"
)

type HandlerSuite struct {
	suite.Suite

	store  *memory.Store
	clock  *clock.Fake
	router *gin.Engine
}

func (s *HandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.store = memory.New()
	s.clock = clock.NewFake(time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC))
	service := NewService(s.store, s.clock, DefaultTTL, zap.NewNop())
	handler := NewHandler(service, zap.NewNop())

	s.router = gin.New()
	s.router.POST("/auth", handler.Dispatch)
	s.router.POST("/admin/sessions/sweep", handler.Sweep)

	s.Require().NoError(s.store.UpsertUser(context.Background(), &models.User{
		Username: "admin",
		Secret:   "letmein",
		Status:   models.UserStatusActive,
	}))
}

func (s *HandlerSuite) postAuth(payload any) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, "/auth", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var got map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}

func (s *HandlerSuite) login() string {
	rec := s.postAuth(gin.H{"action": "login", "username": "admin", "password": "letmein"})
	got := s.decode(rec)
	s.Require().Equal(true, got["success"])
	token, ok := got["token"].(string)
	s.Require().True(ok)
	s.Require().NotEmpty(token)
	return token
}

func (s *HandlerSuite) TestLoginOK() {
	rec := s.postAuth(gin.H{"action": "login", "username": "admin", "password": "letmein"})
	s.Equal(http.StatusOK, rec.Code)

	got := s.decode(rec)
	s.Equal(true, got["success"])
	s.NotEmpty(got["token"])
	s.Equal("admin", got["username"])
}

func (s *HandlerSuite) TestLoginWrongPassword() {
	rec := s.postAuth(gin.H{"action": "login", "username": "admin", "password": "guess"})
	s.Equal(http.StatusOK, rec.Code)

	got := s.decode(rec)
	s.Equal(false, got["success"])
	s.Contains(got["message"], "Invalid username or password")
}

func (s *HandlerSuite) TestValidateTokenRoundTrip() {
	token := s.login()

	rec := s.postAuth(gin.H{"action": "validateToken", "token": token})
	s.Equal(http.StatusOK, rec.Code)

	got := s.decode(rec)
	s.Equal(true, got["valid"])
	s.Equal("admin", got["username"])
}

func (s *HandlerSuite) TestValidateTokenRejectsGarbage() {
	rec := s.postAuth(gin.H{"action": "validateToken", "token": "not-a-token"})
	s.Equal(http.StatusOK, rec.Code)

	got := s.decode(rec)
	s.Equal(false, got["valid"])
	s.Contains(got["message"], "Invalid token")
}

func (s *HandlerSuite) TestLogoutRevokesToken() {
	token := s.login()

	rec := s.postAuth(gin.H{"action": "logout", "token": token})
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(true, s.decode(rec)["success"])

	rec = s.postAuth(gin.H{"action": "validateToken", "token": token})
	s.Equal(false, s.decode(rec)["valid"])
}

func (s *HandlerSuite) TestGetUserInfo() {
	token := s.login()

	rec := s.postAuth(gin.H{"action": "getUserInfo", "token": token})
	s.Equal(http.StatusOK, rec.Code)

	got := s.decode(rec)
	s.Equal(true, got["success"])
	s.Equal("admin", got["username"])
	s.Equal("active", got["status"])
}

func (s *HandlerSuite) TestGetUserInfoOrphanedSession() {
	s.Require().NoError(s.store.AppendSession(context.Background(), &models.Session{
		Token:     "stray-token",
		Username:  "departed",
		CreatedAt: s.clock.Now(),
		ExpiresAt: s.clock.Now().Add(DefaultTTL),
	}))

	rec := s.postAuth(gin.H{"action": "getUserInfo", "token": "stray-token"})
	s.Equal(http.StatusOK, rec.Code)

	got := s.decode(rec)
	s.Equal(false, got["success"])
	s.Contains(got["message"], "User not found")
}

func (s *HandlerSuite) TestUnknownAction() {
	rec := s.postAuth(gin.H{"action": "reboot"})
	s.Equal(http.StatusOK, rec.Code)

	got := s.decode(rec)
	s.Equal(false, got["success"])
	s.Contains(got["message"], "Unknown action")
}

func (s *HandlerSuite) TestSweepEndpointClearsExpiredSessions() {
	token := s.login()
	s.clock.Advance(DefaultTTL + time.Second)

	req := httptest.NewRequest(http.MethodPost, "/admin/sessions/sweep", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)

	got := s.decode(rec)
	s.Equal(true, got["success"])
	data := got["data"].(map[string]any)
	s.Equal(float64(1), data["removed"])

	rec = s.postAuth(gin.H{"action": "validateToken", "token": token})
	s.Equal(false, s.decode(rec)["valid"])
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}
