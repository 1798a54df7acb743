package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/lovewall/internal/auth"
	"github.com/MarcoPoloResearchLab/lovewall/internal/profiles"
	"github.com/MarcoPoloResearchLab/lovewall/internal/uploads"
	"github.com/MarcoPoloResearchLab/lovewall/internal/users"
	"github.com/MarcoPoloResearchLab/lovewall/internal/valentines"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const ownerIDContextKey = "lovewall_owner_id"

var (
	errMissingGoogleVerifier   = errors.New("google verifier dependency required")
	errMissingTokenManager     = errors.New("token manager dependency required")
	errMissingSessionValidator = errors.New("session validator dependency required")
	errMissingUsersService     = errors.New("users service dependency required")
	errMissingProfilesService  = errors.New("profiles service dependency required")
	errMissingValentineService = errors.New("valentines service dependency required")
	errMissingCredentials      = errors.New("authorization header or session cookie required")
)

type GoogleVerifier interface {
	Verify(ctx context.Context, token string) (auth.GoogleClaims, error)
}

type BackendTokenManager interface {
	IssueBackendToken(ctx context.Context, ownerID string) (string, int64, error)
	ValidateToken(token string) (string, error)
}

type SessionValidator interface {
	ValidateRequest(r *http.Request) (string, error)
	CookieName() string
}

type Dependencies struct {
	GoogleVerifier GoogleVerifier
	TokenManager   BackendTokenManager
	Sessions       SessionValidator
	Users          *users.Service
	Profiles       *profiles.Service
	Valentines     *valentines.Service
	Uploads        *uploads.Store
	Realtime       *RealtimeDispatcher
	Logger         *zap.Logger
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.GoogleVerifier == nil {
		return nil, errMissingGoogleVerifier
	}
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.Sessions == nil {
		return nil, errMissingSessionValidator
	}
	if deps.Users == nil {
		return nil, errMissingUsersService
	}
	if deps.Profiles == nil {
		return nil, errMissingProfilesService
	}
	if deps.Valentines == nil {
		return nil, errMissingValentineService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	realtime := deps.Realtime
	if realtime == nil {
		realtime = NewRealtimeDispatcher()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	handler := &httpHandler{
		verifier:   deps.GoogleVerifier,
		tokens:     deps.TokenManager,
		sessions:   deps.Sessions,
		users:      deps.Users,
		profiles:   deps.Profiles,
		valentines: deps.Valentines,
		uploads:    deps.Uploads,
		realtime:   realtime,
		logger:     logger,
	}

	router.POST("/auth/google", handler.handleGoogleAuth)
	router.GET("/profiles/availability", handler.handleAvailability)
	router.GET("/profiles/:username", handler.handleProfileLookup)
	router.GET("/profiles/:username/wall", handler.handleWall)
	router.POST("/valentines", handler.handleSubmitValentine)
	if deps.Uploads != nil {
		router.Static("/media", deps.Uploads.BaseDir())
	}

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/profiles", handler.handleCreateProfile)
	protected.GET("/profiles/me", handler.handleMyProfile)
	protected.PATCH("/profiles/me/username", handler.handleRenameUsername)
	protected.PATCH("/profiles/me/display-name", handler.handleUpdateDisplayName)
	protected.PATCH("/profiles/me/avatar", handler.handleUpdateAvatar)
	protected.GET("/dashboard/valentines", handler.handleDashboardValentines)
	protected.POST("/dashboard/valentines/:id/reaction", handler.handleReaction)
	protected.POST("/uploads/:bucket", handler.handleUpload)
	protected.GET("/dashboard/stream", handler.handleDashboardStream)

	return router, nil
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

type httpHandler struct {
	verifier   GoogleVerifier
	tokens     BackendTokenManager
	sessions   SessionValidator
	users      *users.Service
	profiles   *profiles.Service
	valentines *valentines.Service
	uploads    *uploads.Store
	realtime   *RealtimeDispatcher
	logger     *zap.Logger
}

type authRequestPayload struct {
	IDToken string `json:"id_token"`
}

type authResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
	HasProfile  bool   `json:"has_profile"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

func (h *httpHandler) handleGoogleAuth(c *gin.Context) {
	var request authRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.IDToken) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	claims, err := h.verifier.Verify(c.Request.Context(), request.IDToken)
	if err != nil {
		h.logger.Warn("google token verification failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	resolved, err := h.users.ResolveOwner(claims)
	if err != nil {
		h.logger.Error("failed to resolve owner identity", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "identity_resolution_failed"})
		return
	}

	token, expiresIn, err := h.tokens.IssueBackendToken(c.Request.Context(), resolved.OwnerID)
	if err != nil {
		h.logger.Error("failed to issue backend token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	response := authResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
		DisplayName: resolved.DisplayName,
		AvatarURL:   resolved.AvatarURL,
	}
	profile, err := h.profiles.GetByOwner(c.Request.Context(), resolved.OwnerID)
	if err == nil {
		response.HasProfile = true
		response.Username = profile.Username
		response.DisplayName = profile.DisplayName
		response.AvatarURL = profile.AvatarURL
	} else if !errors.Is(err, profiles.ErrProfileNotFound) {
		h.logger.Error("failed to load profile during sign-in", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.sessions.CookieName(), token, int(expiresIn), "/", "", false, true)
	c.JSON(http.StatusOK, response)
}

type availabilityResponsePayload struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

func (h *httpHandler) handleAvailability(c *gin.Context) {
	candidate := c.Query("username")
	if strings.TrimSpace(candidate) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	currentUsername := ""
	if ownerID := h.optionalSubject(c); ownerID != "" {
		if profile, err := h.profiles.GetByOwner(c.Request.Context(), ownerID); err == nil {
			currentUsername = profile.Username
		}
	}

	availability, err := h.profiles.CheckAvailability(c.Request.Context(), candidate, currentUsername)
	if err != nil {
		h.logger.Error("availability check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
		return
	}

	c.JSON(http.StatusOK, availabilityResponsePayload{
		Username:  profiles.FoldUsername(candidate),
		Available: availability.Available,
		Reason:    availabilityReasonCode(availability.Reason),
	})
}

type publicProfilePayload struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

func (h *httpHandler) handleProfileLookup(c *gin.Context) {
	profile, err := h.profiles.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, publicProfilePayload{
		Username:    profile.Username,
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL,
	})
}

type wallEntryPayload struct {
	ID               string `json:"id"`
	WallDisplayName  string `json:"wall_display_name"`
	PhotoURL         string `json:"photo_url,omitempty"`
	Message          string `json:"message,omitempty"`
	Reason           string `json:"reason,omitempty"`
	Date             string `json:"date"`
	Reaction         string `json:"reaction,omitempty"`
	CreatedAtSeconds int64  `json:"created_at_s"`
}

func (h *httpHandler) handleWall(c *gin.Context) {
	profile, err := h.profiles.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondProfileError(c, err)
		return
	}

	entries, err := h.valentines.ListWall(c.Request.Context(), profile.ID)
	if err != nil {
		h.respondValentineError(c, err)
		return
	}

	payload := make([]wallEntryPayload, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, wallEntryPayload{
			ID:               entry.ID,
			WallDisplayName:  entry.WallDisplayName,
			PhotoURL:         entry.PhotoURL,
			Message:          entry.Message,
			Reason:           entry.Reason,
			Date:             entry.Date,
			Reaction:         entry.Reaction,
			CreatedAtSeconds: entry.CreatedAt.Unix(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"entries": payload})
}

type valentineSubmitPayload struct {
	Username        string `json:"username"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Date            string `json:"date"`
	Reason          string `json:"reason"`
	Message         string `json:"message"`
	PhotoURL        string `json:"photo_url"`
	ShowOnWall      bool   `json:"show_on_wall"`
	WallDisplayName string `json:"wall_display_name"`
	PhotoPublic     bool   `json:"photo_public"`
}

func (h *httpHandler) handleSubmitValentine(c *gin.Context) {
	var request valentineSubmitPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Username) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	profile, err := h.profiles.GetByUsername(c.Request.Context(), request.Username)
	if errors.Is(err, profiles.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipient_not_found"})
		return
	}
	if err != nil {
		h.respondProfileError(c, err)
		return
	}

	valentine, err := h.valentines.Submit(c.Request.Context(), valentines.SubmitRequest{
		ProfileID:       profile.ID,
		Name:            request.Name,
		Email:           request.Email,
		Date:            request.Date,
		Reason:          request.Reason,
		Message:         request.Message,
		PhotoURL:        request.PhotoURL,
		ShowOnWall:      request.ShowOnWall,
		WallDisplayName: request.WallDisplayName,
		PhotoPublic:     request.PhotoPublic,
	})
	if err != nil {
		h.respondValentineError(c, err)
		return
	}

	h.realtime.Publish(RealtimeMessage{
		OwnerID:      profile.OwnerID,
		EventType:    RealtimeEventValentineReceived,
		ValentineIDs: []string{valentine.ID},
		Timestamp:    valentine.CreatedAt,
	})

	c.JSON(http.StatusCreated, gin.H{
		"id":           valentine.ID,
		"created_at_s": valentine.CreatedAt.Unix(),
	})
}

type profilePayload struct {
	Username            string `json:"username"`
	DisplayName         string `json:"display_name"`
	AvatarURL           string `json:"avatar_url,omitempty"`
	UsernameChangesLeft int    `json:"username_changes_left"`
	CreatedAtSeconds    int64  `json:"created_at_s"`
}

func newProfilePayload(profile *profiles.Profile) profilePayload {
	remaining := profiles.MaxUsernameChanges - profile.UsernameChangeCount
	if remaining < 0 {
		remaining = 0
	}
	return profilePayload{
		Username:            profile.Username,
		DisplayName:         profile.DisplayName,
		AvatarURL:           profile.AvatarURL,
		UsernameChangesLeft: remaining,
		CreatedAtSeconds:    profile.CreatedAt.Unix(),
	}
}

type createProfilePayload struct {
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
	AvatarURL   string `json:"avatar_url"`
}

func (h *httpHandler) handleCreateProfile(c *gin.Context) {
	var request createProfilePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	profile, err := h.profiles.CreateProfile(
		c.Request.Context(),
		c.GetString(ownerIDContextKey),
		request.DisplayName,
		request.Username,
		request.AvatarURL,
	)
	if err != nil {
		h.respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newProfilePayload(profile))
}

func (h *httpHandler) handleMyProfile(c *gin.Context) {
	profile, err := h.profiles.GetByOwner(c.Request.Context(), c.GetString(ownerIDContextKey))
	if err != nil {
		h.respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProfilePayload(profile))
}

type renameUsernamePayload struct {
	Username string `json:"username"`
}

func (h *httpHandler) handleRenameUsername(c *gin.Context) {
	var request renameUsernamePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	profile, err := h.profiles.RenameUsername(c.Request.Context(), c.GetString(ownerIDContextKey), request.Username)
	if err != nil {
		h.respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProfilePayload(profile))
}

type updateDisplayNamePayload struct {
	DisplayName string `json:"display_name"`
}

func (h *httpHandler) handleUpdateDisplayName(c *gin.Context) {
	var request updateDisplayNamePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := h.profiles.UpdateDisplayName(c.Request.Context(), c.GetString(ownerIDContextKey), request.DisplayName); err != nil {
		h.respondProfileError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type updateAvatarPayload struct {
	AvatarURL string `json:"avatar_url"`
}

func (h *httpHandler) handleUpdateAvatar(c *gin.Context) {
	var request updateAvatarPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := h.profiles.UpdateAvatar(c.Request.Context(), c.GetString(ownerIDContextKey), request.AvatarURL); err != nil {
		h.respondProfileError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type dashboardValentinePayload struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email,omitempty"`
	Date             string `json:"date"`
	Reason           string `json:"reason,omitempty"`
	Message          string `json:"message,omitempty"`
	PhotoURL         string `json:"photo_url,omitempty"`
	ShowOnWall       bool   `json:"show_on_wall"`
	WallDisplayName  string `json:"wall_display_name"`
	PhotoPublic      bool   `json:"photo_public"`
	Reaction         string `json:"reaction,omitempty"`
	CreatedAtSeconds int64  `json:"created_at_s"`
}

func (h *httpHandler) handleDashboardValentines(c *gin.Context) {
	profile, err := h.profiles.GetByOwner(c.Request.Context(), c.GetString(ownerIDContextKey))
	if err != nil {
		h.respondProfileError(c, err)
		return
	}

	stored, err := h.valentines.ListForOwner(c.Request.Context(), profile.ID)
	if err != nil {
		h.respondValentineError(c, err)
		return
	}

	payload := make([]dashboardValentinePayload, 0, len(stored))
	for _, valentine := range stored {
		payload = append(payload, dashboardValentinePayload{
			ID:               valentine.ID,
			Name:             valentine.Name,
			Email:            valentine.Email,
			Date:             valentine.Date,
			Reason:           valentine.Reason,
			Message:          valentine.Message,
			PhotoURL:         valentine.PhotoURL,
			ShowOnWall:       valentine.ShowOnWall,
			WallDisplayName:  valentine.WallDisplayName,
			PhotoPublic:      valentine.PhotoPublic,
			Reaction:         valentine.Reaction,
			CreatedAtSeconds: valentine.CreatedAt.Unix(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"valentines": payload})
}

type reactionPayload struct {
	Reaction string `json:"reaction"`
}

func (h *httpHandler) handleReaction(c *gin.Context) {
	var request reactionPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	profile, err := h.profiles.GetByOwner(c.Request.Context(), c.GetString(ownerIDContextKey))
	if err != nil {
		h.respondProfileError(c, err)
		return
	}
	if err := h.valentines.React(c.Request.Context(), profile.ID, c.Param("id"), request.Reaction); err != nil {
		h.respondValentineError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleUpload(c *gin.Context) {
	if h.uploads == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "uploads_disabled"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}
	if fileHeader.Size > h.uploads.MaxBytes() {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file_too_large"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}
	defer func() {
		_ = file.Close()
	}()
	data, err := io.ReadAll(io.LimitReader(file, h.uploads.MaxBytes()+1))
	if err != nil {
		h.logger.Error("failed to read upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload_failed"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	url, err := h.uploads.Save(c.Param("bucket"), contentType, data)
	if err != nil {
		h.respondUploadError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

type streamEventPayload struct {
	ValentineIDs     []string `json:"valentineIds"`
	Source           string   `json:"source"`
	TimestampSeconds int64    `json:"at_s"`
}

func (h *httpHandler) handleDashboardStream(c *gin.Context) {
	ownerID := c.GetString(ownerIDContextKey)
	if ownerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	stream, cleanup := h.realtime.Subscribe(c.Request.Context(), ownerID)
	defer cleanup()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case message, ok := <-stream:
			if !ok {
				return
			}
			payload, err := json.Marshal(streamEventPayload{
				ValentineIDs:     message.ValentineIDs,
				Source:           realtimeSourceBackend,
				TimestampSeconds: message.Timestamp.Unix(),
			})
			if err != nil {
				h.logger.Error("failed to encode stream event", zap.Error(err))
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", message.EventType, payload)
			c.Writer.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", realtimeEventHeartbeat)
			c.Writer.Flush()
		}
	}
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		token = strings.TrimSpace(c.Query("access_token"))
	}

	var subject string
	var err error
	if token != "" {
		subject, err = h.tokens.ValidateToken(token)
	} else {
		subject, err = h.sessions.ValidateRequest(c.Request)
		if errors.Is(err, auth.ErrMissingSessionToken) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMissingCredentials.Error()})
			return
		}
	}
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) || errors.Is(err, auth.ErrExpiredSessionToken) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.Set(ownerIDContextKey, subject)
	c.Next()
}

// optionalSubject resolves the caller's owner id when credentials are present
// and valid, without failing the request when they are not. The availability
// probe uses it so a signed-in owner probing their own name gets the
// same-as-current signal instead of "taken".
func (h *httpHandler) optionalSubject(c *gin.Context) string {
	token := bearerToken(c)
	if token == "" {
		token = strings.TrimSpace(c.Query("access_token"))
	}
	if token != "" {
		subject, err := h.tokens.ValidateToken(token)
		if err != nil {
			return ""
		}
		return subject
	}
	subject, err := h.sessions.ValidateRequest(c.Request)
	if err != nil {
		return ""
	}
	return subject
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func availabilityReasonCode(reason error) string {
	switch {
	case reason == nil:
		return ""
	case errors.Is(reason, profiles.ErrUsernameTooShort):
		return "username_too_short"
	case errors.Is(reason, profiles.ErrUsernameInvalid):
		return "username_invalid"
	case errors.Is(reason, profiles.ErrUsernameReserved):
		return "username_reserved"
	case errors.Is(reason, profiles.ErrUsernameSameAsCurrent):
		return "username_same_as_current"
	case errors.Is(reason, profiles.ErrUsernameTaken):
		return "username_taken"
	default:
		return "unavailable"
	}
}

func (h *httpHandler) respondProfileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, profiles.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, profiles.ErrMissingDisplayName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "display_name_required"})
	case errors.Is(err, profiles.ErrUsernameTooShort):
		c.JSON(http.StatusBadRequest, gin.H{"error": "username_too_short"})
	case errors.Is(err, profiles.ErrUsernameInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "username_invalid"})
	case errors.Is(err, profiles.ErrUsernameReserved):
		c.JSON(http.StatusBadRequest, gin.H{"error": "username_reserved"})
	case errors.Is(err, profiles.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "username_taken"})
	case errors.Is(err, profiles.ErrProfileExists):
		c.JSON(http.StatusConflict, gin.H{"error": "profile_exists"})
	case errors.Is(err, profiles.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "profile_not_found"})
	case errors.Is(err, profiles.ErrRenameQuotaExceeded):
		c.JSON(http.StatusForbidden, gin.H{"error": "rename_quota_exceeded"})
	case errors.Is(err, profiles.ErrStoreUnavailable):
		h.logger.Error("profile store unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store_unavailable"})
	default:
		h.logger.Error("unexpected profile error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func (h *httpHandler) respondValentineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, valentines.ErrMissingName):
		c.JSON(http.StatusBadRequest, gin.H{"error": "name_required"})
	case errors.Is(err, valentines.ErrMissingDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "date_required"})
	case errors.Is(err, valentines.ErrRecipientNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "recipient_not_found"})
	case errors.Is(err, valentines.ErrValentineNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "valentine_not_found"})
	case errors.Is(err, valentines.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_owner"})
	default:
		var serviceErr *valentines.ServiceError
		if errors.As(err, &serviceErr) {
			h.logger.Error("valentine operation failed", zap.String("code", serviceErr.Code()), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": serviceErr.Code()})
			return
		}
		h.logger.Error("unexpected valentine error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func (h *httpHandler) respondUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, uploads.ErrNoFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_required"})
	case errors.Is(err, uploads.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file_too_large"})
	case errors.Is(err, uploads.ErrUnsupportedType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported_file_type"})
	case errors.Is(err, uploads.ErrNotAnImage):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "not_an_image"})
	case errors.Is(err, uploads.ErrUnknownBucket):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_bucket"})
	default:
		h.logger.Error("upload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload_failed"})
	}
}
