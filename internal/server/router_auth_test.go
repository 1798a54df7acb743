package server

import (
	contextpkg "context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuthorizeRequestLogsExpiredTokenAtInfoLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	request := httptest.NewRequest(http.MethodGet, "/dashboard/valentines", http.NoBody)
	request.Header.Set("Authorization", "Bearer expired-token")
	ctx.Request = request

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	handler := &httpHandler{
		tokens: stubBackendTokenManager{
			validateErr: jwt.ErrTokenExpired,
		},
		logger: logger,
	}

	handler.authorizeRequest(ctx)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status code: got %d, want %d", recorder.Code, http.StatusUnauthorized)
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one log entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != zapcore.InfoLevel {
		t.Fatalf("expected info level for expired token, got %s", entry.Level)
	}
	if entry.Message != "token validation failed" {
		t.Fatalf("unexpected log message: %q", entry.Message)
	}
	hasExpired := false
	for _, field := range entry.Context {
		if field.Type == zapcore.ErrorType && errors.Is(field.Interface.(error), jwt.ErrTokenExpired) {
			hasExpired = true
			break
		}
	}
	if !hasExpired {
		t.Fatalf("expected expired token error context, got %v", entry.Context)
	}
}

func TestAuthorizeRequestLogsUnexpectedTokenErrorAtWarnLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	request := httptest.NewRequest(http.MethodGet, "/dashboard/valentines", http.NoBody)
	request.Header.Set("Authorization", "Bearer invalid-token")
	ctx.Request = request

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	handler := &httpHandler{
		tokens: stubBackendTokenManager{
			validateErr: errors.New("signature mismatch"),
		},
		logger: logger,
	}

	handler.authorizeRequest(ctx)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status code: got %d, want %d", recorder.Code, http.StatusUnauthorized)
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one log entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level for unexpected error, got %s", entry.Level)
	}
	if entry.Message != "token validation failed" {
		t.Fatalf("unexpected log message: %q", entry.Message)
	}
}

func TestGoogleAuthSetsSessionCookie(t *testing.T) {
	env := newTestEnvironment(t)

	response := env.request(t, http.MethodPost, "/auth/google", "", authRequestPayload{IDToken: "stub-google-token"})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, response.StatusCode)
	}

	var sessionCookie *http.Cookie
	for _, cookie := range response.Cookies() {
		if cookie.Name == testCookieName {
			sessionCookie = cookie
			break
		}
	}
	if sessionCookie == nil {
		t.Fatal("expected the session cookie to be set")
	}
	if !sessionCookie.HttpOnly {
		t.Fatal("expected the session cookie to be http-only")
	}

	var payload authResponsePayload
	decodeJSONBody(t, response, &payload)
	if payload.AccessToken == "" || payload.TokenType != "Bearer" {
		t.Fatalf("unexpected auth response: %#v", payload)
	}
	if payload.HasProfile {
		t.Fatal("expected has_profile to be false before setup")
	}

	// The cookie alone must authenticate follow-up requests.
	meRequest, err := http.NewRequest(http.MethodGet, env.server.URL+"/profiles/me", http.NoBody)
	if err != nil {
		t.Fatalf("failed to construct request: %v", err)
	}
	meRequest.AddCookie(sessionCookie)
	meResponse, err := http.DefaultClient.Do(meRequest)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if meResponse.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d for missing profile, got %d", http.StatusNotFound, meResponse.StatusCode)
	}
	if code := errorCode(t, meResponse); code != "profile_not_found" {
		t.Fatalf("expected profile_not_found, got %q", code)
	}
}

func TestGoogleAuthReportsExistingProfile(t *testing.T) {
	env := newTestEnvironment(t)
	token := env.issueToken(t, "owner-123")
	env.createProfile(t, token, "Jane Doe", "janed")

	response := env.request(t, http.MethodPost, "/auth/google", "", authRequestPayload{IDToken: "stub-google-token"})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, response.StatusCode)
	}
	var payload authResponsePayload
	decodeJSONBody(t, response, &payload)
	if !payload.HasProfile {
		t.Fatal("expected has_profile to be true")
	}
	if payload.Username != "janed" {
		t.Fatalf("expected username janed, got %q", payload.Username)
	}
}

func TestGoogleAuthRejectsUnverifiableToken(t *testing.T) {
	env := newTestEnvironment(t)
	env.verifier.err = errors.New("signature rejected")

	response := env.request(t, http.MethodPost, "/auth/google", "", authRequestPayload{IDToken: "stub-google-token"})
	defer func() {
		_ = response.Body.Close()
	}()
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, response.StatusCode)
	}
}

type stubBackendTokenManager struct {
	validateErr error
}

func (s stubBackendTokenManager) IssueBackendToken(contextpkg.Context, string) (string, int64, error) {
	return "", 0, errors.New("not implemented")
}

func (s stubBackendTokenManager) ValidateToken(string) (string, error) {
	return "", s.validateErr
}
