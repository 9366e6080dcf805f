package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type fakeTokenManager struct {
	subject     string
	validateErr error
}

func (f *fakeTokenManager) IssueToken(userID string) (string, int64, error) {
	return "token-for-" + userID, 3600, nil
}

func (f *fakeTokenManager) ValidateToken(token string) (string, error) {
	if f.validateErr != nil {
		return "", f.validateErr
	}
	return f.subject, nil
}

func newAuthTestRouter(tokens TokenManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := &httpHandler{tokens: tokens, logger: zap.NewNop()}
	router := gin.New()
	router.GET("/protected", handler.authorizeRequest, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString(userIDContextKey)})
	})
	return router
}

func TestAuthorizeRequestRejectsMissingHeader(t *testing.T) {
	router := newAuthTestRouter(&fakeTokenManager{subject: "user-1"})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestAuthorizeRequestRejectsNonBearerScheme(t *testing.T) {
	router := newAuthTestRouter(&fakeTokenManager{subject: "user-1"})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.Header.Set("Authorization", "Basic abc123")
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestAuthorizeRequestRejectsInvalidToken(t *testing.T) {
	router := newAuthTestRouter(&fakeTokenManager{validateErr: errors.New("bad signature")})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.Header.Set("Authorization", "Bearer forged")
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestAuthorizeRequestAcceptsValidToken(t *testing.T) {
	router := newAuthTestRouter(&fakeTokenManager{subject: "user-1"})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/protected", nil)
	request.Header.Set("Authorization", "Bearer good-token")
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if body := recorder.Body.String(); body != `{"userId":"user-1"}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestLimiterStoreBlocksAfterBurst(t *testing.T) {
	store := newLimiterStore(1, 2, time.Minute)

	if !store.Allow("10.0.0.1") || !store.Allow("10.0.0.1") {
		t.Fatalf("burst requests should be allowed")
	}
	if store.Allow("10.0.0.1") {
		t.Fatalf("request beyond burst should be denied")
	}
	if !store.Allow("10.0.0.2") {
		t.Fatalf("limits must be tracked per key")
	}
}
