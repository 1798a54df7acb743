package server

import (
	"bytes"
	contextpkg "context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/lovewall/internal/auth"
	"github.com/MarcoPoloResearchLab/lovewall/internal/profiles"
	"github.com/MarcoPoloResearchLab/lovewall/internal/uploads"
	"github.com/MarcoPoloResearchLab/lovewall/internal/users"
	"github.com/MarcoPoloResearchLab/lovewall/internal/valentines"
	"github.com/gin-gonic/gin"
	githubsqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testSigningSecret = "test-signing-secret"
	testIssuer        = "lovewall-auth"
	testAudience      = "lovewall-api"
	testCookieName    = "lw_session"
)

type stubVerifier struct {
	claims auth.GoogleClaims
	err    error
}

func (s *stubVerifier) Verify(_ contextpkg.Context, _ string) (auth.GoogleClaims, error) {
	if s.err != nil {
		return auth.GoogleClaims{}, s.err
	}
	return s.claims, nil
}

type testEnvironment struct {
	server     *httptest.Server
	issuer     *auth.TokenIssuer
	profiles   *profiles.Service
	valentines *valentines.Service
	dispatcher *RealtimeDispatcher
	verifier   *stubVerifier
}

func newTestEnvironment(testContext *testing.T) *testEnvironment {
	testContext.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(githubsqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open in-memory database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		testContext.Fatalf("failed to access database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&profiles.Profile{}, &valentines.Valentine{}, &users.Identity{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	userService, err := users.NewService(users.ServiceConfig{Database: db})
	if err != nil {
		testContext.Fatalf("failed to construct users service: %v", err)
	}
	profileService, err := profiles.NewService(profiles.ServiceConfig{
		Database:   db,
		IDProvider: profiles.NewUUIDProvider(),
	})
	if err != nil {
		testContext.Fatalf("failed to construct profiles service: %v", err)
	}
	valentineService, err := valentines.NewService(valentines.ServiceConfig{
		Database:   db,
		IDProvider: profiles.NewUUIDProvider(),
		Recipients: profileService,
	})
	if err != nil {
		testContext.Fatalf("failed to construct valentines service: %v", err)
	}

	issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(testSigningSecret),
		Issuer:        testIssuer,
		Audience:      testAudience,
		TokenTTL:      time.Minute,
	})
	if err != nil {
		testContext.Fatalf("failed to construct token issuer: %v", err)
	}
	sessions, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(testSigningSecret),
		Issuer:        testIssuer,
		Audience:      testAudience,
		CookieName:    testCookieName,
	})
	if err != nil {
		testContext.Fatalf("failed to construct session validator: %v", err)
	}
	uploadStore, err := uploads.NewStore(uploads.StoreConfig{
		BaseDir:    testContext.TempDir(),
		IDProvider: profiles.NewUUIDProvider(),
	})
	if err != nil {
		testContext.Fatalf("failed to construct upload store: %v", err)
	}

	verifier := &stubVerifier{claims: auth.GoogleClaims{Subject: "owner-123"}}
	dispatcher := NewRealtimeDispatcher()

	handler, err := NewHTTPHandler(Dependencies{
		GoogleVerifier: verifier,
		TokenManager:   issuer,
		Sessions:       sessions,
		Users:          userService,
		Profiles:       profileService,
		Valentines:     valentineService,
		Uploads:        uploadStore,
		Realtime:       dispatcher,
		Logger:         zap.NewNop(),
	})
	if err != nil {
		testContext.Fatalf("failed to construct http handler: %v", err)
	}

	server := httptest.NewServer(handler)
	testContext.Cleanup(server.Close)

	return &testEnvironment{
		server:     server,
		issuer:     issuer,
		profiles:   profileService,
		valentines: valentineService,
		dispatcher: dispatcher,
		verifier:   verifier,
	}
}

func (env *testEnvironment) issueToken(testContext *testing.T, ownerID string) string {
	testContext.Helper()
	token, _, err := env.issuer.IssueBackendToken(contextpkg.Background(), ownerID)
	if err != nil {
		testContext.Fatalf("failed to issue backend token: %v", err)
	}
	return token
}

func (env *testEnvironment) request(testContext *testing.T, method, path, token string, payload interface{}) *http.Response {
	testContext.Helper()
	var body io.Reader = http.NoBody
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			testContext.Fatalf("failed to encode payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}
	request, err := http.NewRequest(method, env.server.URL+path, body)
	if err != nil {
		testContext.Fatalf("failed to construct request: %v", err)
	}
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		testContext.Fatalf("request failed: %v", err)
	}
	return response
}

func decodeJSONBody(testContext *testing.T, response *http.Response, target interface{}) {
	testContext.Helper()
	defer func() {
		_ = response.Body.Close()
	}()
	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		testContext.Fatalf("failed to decode response body: %v", err)
	}
}

func errorCode(testContext *testing.T, response *http.Response) string {
	testContext.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	decodeJSONBody(testContext, response, &payload)
	return payload.Error
}

func (env *testEnvironment) createProfile(testContext *testing.T, token, displayName, username string) profilePayload {
	testContext.Helper()
	response := env.request(testContext, http.MethodPost, "/profiles", token, createProfilePayload{
		DisplayName: displayName,
		Username:    username,
	})
	if response.StatusCode != http.StatusCreated {
		testContext.Fatalf("expected profile creation to succeed, got status %d", response.StatusCode)
	}
	var created profilePayload
	decodeJSONBody(testContext, response, &created)
	return created
}
