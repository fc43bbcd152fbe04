// Package server exposes the garden controller over HTTP: a Google sign-in
// exchange, a per-user intents API and a server-sent notice stream.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/florahq/verdant/internal/accounts"
	"github.com/florahq/verdant/internal/ai"
	"github.com/florahq/verdant/internal/auth"
	"github.com/florahq/verdant/internal/controller"
	"github.com/florahq/verdant/internal/garden"
	"github.com/florahq/verdant/internal/nav"
	"github.com/florahq/verdant/internal/settings"
	"github.com/florahq/verdant/internal/store"
)

const sessionContextKey = "verdant_session"

var (
	errMissingGoogleVerifier = errors.New("google verifier dependency required")
	errMissingAccounts       = errors.New("accounts service dependency required")
	errMissingSessionTokens  = errors.New("session token dependency required")
	errMissingSessions       = errors.New("session manager dependency required")
	errInvalidAuthorization  = errors.New("authorization header missing or invalid")
)

// GoogleVerifier validates a Google ID token.
type GoogleVerifier interface {
	Verify(ctx context.Context, token string) (auth.GoogleClaims, error)
}

// IdentityResolver maps verified login claims to a canonical account.
type IdentityResolver interface {
	Resolve(provider string, claims accounts.Claims) (accounts.Resolution, error)
}

// SessionTokens mints and validates the backend session tokens.
type SessionTokens interface {
	Issue(session auth.Session) (string, int64, error)
	Validate(token string) (auth.Session, error)
}

type Dependencies struct {
	GoogleVerifier GoogleVerifier
	Accounts       IdentityResolver
	SessionTokens  SessionTokens
	Sessions       *SessionManager
	Dispatcher     *NoticeDispatcher
	Logger         *zap.Logger
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.GoogleVerifier == nil {
		return nil, errMissingGoogleVerifier
	}
	if deps.Accounts == nil {
		return nil, errMissingAccounts
	}
	if deps.SessionTokens == nil {
		return nil, errMissingSessionTokens
	}
	if deps.Sessions == nil {
		return nil, errMissingSessions
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = deps.Sessions.cfg.Dispatcher
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		verifier:   deps.GoogleVerifier,
		accounts:   deps.Accounts,
		tokens:     deps.SessionTokens,
		sessions:   deps.Sessions,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}

	router.POST("/auth/google", handler.handleGoogleAuth)

	authorized := router.Group("/")
	authorized.Use(handler.authorizeRequest)
	authorized.POST("/session", handler.handleOpenSession)
	authorized.DELETE("/session", handler.handleCloseSession)
	authorized.GET("/events", handler.handleEvents)

	approved := authorized.Group("/")
	approved.Use(handler.requireApprovedSession)
	approved.GET("/state", handler.handleState)
	approved.POST("/navigate", handler.handleNavigate)

	approved.POST("/plants", handler.handleCreatePlant)
	approved.PUT("/plants/:id", handler.handleUpdatePlant)
	approved.POST("/plants/:id/archive", handler.handleArchivePlant)
	approved.DELETE("/plants/:id", handler.handleDeletePlant)
	approved.POST("/plants/:id/pins", handler.handlePlacePin)
	approved.DELETE("/plants/:id/pins/:areaId", handler.handleRemovePins)
	approved.GET("/plants/:id/logs", handler.handlePlantLogs)
	approved.POST("/plants/:id/logs", handler.handleAddPlantLog)

	approved.POST("/garden/logs", handler.handleAddGardenLog)
	approved.DELETE("/logs/:id", handler.handleDeleteLog)

	approved.POST("/areas", handler.handleCreateArea)
	approved.PUT("/areas/:id", handler.handleUpdateArea)
	approved.DELETE("/areas/:id", handler.handleDeleteArea)

	approved.POST("/notebook", handler.handleCreateNotebookEntry)
	approved.PUT("/notebook/:id", handler.handleUpdateNotebookEntry)
	approved.DELETE("/notebook/:id", handler.handleDeleteNotebookEntry)
	approved.POST("/notebook/:id/complete", handler.handleCompleteTask)

	approved.GET("/feed", handler.handleFeed)
	approved.POST("/posts", handler.handleCreatePost)
	approved.DELETE("/posts/:id", handler.handleDeletePost)
	approved.POST("/posts/:id/like", handler.handleToggleLike)
	approved.POST("/posts/:id/comments", handler.handleAddComment)

	approved.PUT("/settings", handler.handleUpdateSettings)
	approved.PUT("/settings/flora", handler.handleUpdateFlora)
	approved.PUT("/profile/home-location", handler.handleSetHomeLocation)
	approved.DELETE("/profile/home-location", handler.handleClearHomeLocation)

	approved.POST("/ai/identify", handler.handleIdentify)
	approved.POST("/ai/identify-candidates", handler.handleIdentifyCandidates)
	approved.POST("/ai/validate-image", handler.handleValidateImage)
	approved.POST("/ai/health", handler.handleAnalyzeHealth)
	approved.POST("/ai/describe", handler.handleDescribe)
	approved.POST("/ai/recommendations", handler.handleRecommendations)
	approved.POST("/ai/ask", handler.handleAsk)

	return router, nil
}

type httpHandler struct {
	verifier   GoogleVerifier
	accounts   IdentityResolver
	tokens     SessionTokens
	sessions   *SessionManager
	dispatcher *NoticeDispatcher
	logger     *zap.Logger
}

// --- auth ---

type authRequestPayload struct {
	IDToken string `json:"id_token"`
}

type authResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
	DisplayName string `json:"display_name"`
	Approved    bool   `json:"approved"`
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

	resolution, err := h.accounts.Resolve("google", accounts.Claims{
		Subject:     claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		AvatarURL:   claims.AvatarURL,
	})
	if err != nil {
		h.logger.Error("identity resolution failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "identity_resolution_failed"})
		return
	}

	token, expiresIn, err := h.tokens.Issue(auth.Session{
		UserID:      resolution.UserID,
		DisplayName: resolution.DisplayName,
		Approved:    resolution.Approved,
	})
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, authResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
		DisplayName: resolution.DisplayName,
		Approved:    resolution.Approved,
	})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	session, err := h.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, auth.ErrSessionExpired) {
			h.logger.Info("session token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("session token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(sessionContextKey, session)
	c.Next()
}

func (h *httpHandler) identity(c *gin.Context) auth.Session {
	value, _ := c.Get(sessionContextKey)
	session, _ := value.(auth.Session)
	return session
}

func (h *httpHandler) requireApprovedSession(c *gin.Context) {
	if !h.identity(c).Approved {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "waitlisted"})
		return
	}
	c.Next()
}

// --- session lifecycle ---

func (h *httpHandler) handleOpenSession(c *gin.Context) {
	identity := h.identity(c)
	session, err := h.sessions.Acquire(c.Request.Context(), identity)
	if err != nil {
		h.logger.Error("failed to open session", zap.Error(err), zap.String("user_id", identity.UserID))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session_open_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"view":     string(session.Nav.Current()),
		"approved": identity.Approved,
	})
}

func (h *httpHandler) handleCloseSession(c *gin.Context) {
	identity := h.identity(c)
	h.sessions.Release(c.Request.Context(), identity.UserID)
	c.Status(http.StatusNoContent)
}

// session returns the caller's live session, opening one when absent.
func (h *httpHandler) session(c *gin.Context) (*UserSession, bool) {
	identity := h.identity(c)
	session, err := h.sessions.Acquire(c.Request.Context(), identity)
	if err != nil {
		h.logger.Error("failed to acquire session", zap.Error(err), zap.String("user_id", identity.UserID))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session_open_failed"})
		return nil, false
	}
	return session, true
}

func (h *httpHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, controller.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "detail": err.Error()})
	case errors.Is(err, controller.ErrDeclined):
		c.JSON(http.StatusConflict, gin.H{"error": "confirmation_required"})
	case errors.Is(err, nav.ErrIllegalTransition), errors.Is(err, nav.ErrMissingSelection):
		c.JSON(http.StatusConflict, gin.H{"error": "illegal_navigation"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation_failed"})
	}
}

func confirmed(c *gin.Context) bool {
	return c.Query("confirm") == "true"
}

// --- state and navigation ---

func (h *httpHandler) handleState(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"view":        string(session.Nav.Current()),
		"plants":      plantPayloads(session.Store.Plants(true)),
		"gardenLogs":  logPayloads(session.Store.GardenLogs()),
		"areas":       areaPayloads(session.Store.Areas()),
		"notebook":    notebookPayloads(session.Store.NotebookEntries()),
		"feed":        feedPayloads(session.Store.Feed()),
		"feedHasMore": session.Store.FeedHasMore(),
		"settings":    session.Controller.Settings(),
	})
}

type navigateRequest struct {
	View    string `json:"view"`
	PlantID string `json:"plantId"`
	LogID   string `json:"logId"`
	PostID  string `json:"postId"`
}

func (h *httpHandler) handleNavigate(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request navigateRequest
	if err := c.ShouldBindJSON(&request); err != nil || request.View == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if request.PlantID != "" {
		session.Store.SelectPlant(request.PlantID)
	}
	if request.LogID != "" {
		session.Store.SelectLog(request.LogID)
	}
	if request.PostID != "" {
		session.Store.SelectPost(request.PostID)
	}
	if err := session.Nav.Navigate(nav.View(request.View)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": string(session.Nav.Current())})
}

// --- plants ---

type plantRequest struct {
	Name             string `json:"name"`
	ScientificName   string `json:"scientificName"`
	Description      string `json:"description"`
	CareInstructions string `json:"careInstructions"`
	ImageBase64      string `json:"imageBase64"`
	PlantedAtSeconds int64  `json:"plantedAtS"`
	Indoor           bool   `json:"indoor"`
}

func (r plantRequest) toInput() controller.PlantInput {
	input := controller.PlantInput{
		Name:             r.Name,
		ScientificName:   r.ScientificName,
		Description:      r.Description,
		CareInstructions: r.CareInstructions,
		ImageBase64:      r.ImageBase64,
		Indoor:           r.Indoor,
	}
	if r.PlantedAtSeconds > 0 {
		input.PlantedAt = time.Unix(r.PlantedAtSeconds, 0).UTC()
	}
	return input
}

func (h *httpHandler) handleCreatePlant(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request plantRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := session.Controller.CreatePlant(c.Request.Context(), request.toInput()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plants": plantPayloads(session.Store.Plants(true))})
}

func (h *httpHandler) handleUpdatePlant(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request plantRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := session.Controller.UpdatePlant(c.Request.Context(), c.Param("id"), request.toInput()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plants": plantPayloads(session.Store.Plants(true))})
}

func (h *httpHandler) handleArchivePlant(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request struct {
		Archived bool `json:"archived"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := session.Controller.SetPlantArchived(c.Request.Context(), c.Param("id"), request.Archived); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plants": plantPayloads(session.Store.Plants(true))})
}

func (h *httpHandler) handleDeletePlant(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	err := session.Confirm.run(confirmed(c), func() error {
		return session.Controller.DeletePlant(c.Request.Context(), c.Param("id"))
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handlePlacePin(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var pin garden.LocationPin
	if err := c.ShouldBindJSON(&pin); err != nil || pin.GardenAreaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := session.Controller.PlacePin(c.Request.Context(), c.Param("id"), pin); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleRemovePins(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.Controller.RemovePins(c.Request.Context(), c.Param("id"), c.Param("areaId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handlePlantLogs(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logPayloads(session.Store.LogsForPlant(c.Param("id")))})
}

// --- logs ---

type logRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	DateSeconds    int64  `json:"dateS"`
	ImageBase64    string `json:"imageBase64"`
	SetAsMainPhoto bool   `json:"setAsMainPhoto"`
	ShareToSocial  bool   `json:"shareToSocial"`
	AddToNotebook  bool   `json:"addToNotebook"`
	AttachWeather  bool   `json:"attachWeather"`
}

func (r logRequest) toInput() controller.LogInput {
	input := controller.LogInput{
		Title:          r.Title,
		Description:    r.Description,
		ImageBase64:    r.ImageBase64,
		SetAsMainPhoto: r.SetAsMainPhoto,
		ShareToSocial:  r.ShareToSocial,
		AddToNotebook:  r.AddToNotebook,
		AttachWeather:  r.AttachWeather,
	}
	if r.DateSeconds > 0 {
		input.Date = time.Unix(r.DateSeconds, 0).UTC()
	}
	return input
}

func (h *httpHandler) handleAddPlantLog(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request logRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	plantID := c.Param("id")
	if err := session.Controller.AddPlantLog(c.Request.Context(), plantID, request.toInput()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logPayloads(session.Store.LogsForPlant(plantID))})
}

func (h *httpHandler) handleAddGardenLog(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request logRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := session.Controller.AddGardenLog(c.Request.Context(), request.toInput()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logPayloads(session.Store.GardenLogs())})
}

func (h *httpHandler) handleDeleteLog(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	err := session.Confirm.run(confirmed(c), func() error {
		return session.Controller.DeleteLog(c.Request.Context(), c.Param("id"))
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- areas ---

type areaRequest struct {
	Name        string `json:"name"`
	ImageBase64 string `json:"imageBase64"`
}

func (h *httpHandler) handleCreateArea(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request areaRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := session.Controller.CreateArea(c.Request.Context(), controller.AreaInput(request)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"areas": areaPayloads(session.Store.Areas())})
}

func (h *httpHandler) handleUpdateArea(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request areaRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := session.Controller.UpdateArea(c.Request.Context(), c.Param("id"), controller.AreaInput(request)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"areas": areaPayloads(session.Store.Areas())})
}

func (h *httpHandler) handleDeleteArea(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	err := session.Confirm.run(confirmed(c), func() error {
		return session.Controller.DeleteArea(c.Request.Context(), c.Param("id"))
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- notebook ---

type notebookRequest struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DateSeconds int64  `json:"dateS"`
	ImageBase64 string `json:"imageBase64"`
	Recurrence  string `json:"recurrence"`
}

func (r notebookRequest) toInput() controller.NotebookInput {
	input := controller.NotebookInput{
		Kind:        garden.NotebookKind(r.Kind),
		Title:       r.Title,
		Description: r.Description,
		ImageBase64: r.ImageBase64,
		Recurrence:  r.Recurrence,
	}
	if r.DateSeconds > 0 {
		input.Date = time.Unix(r.DateSeconds, 0).UTC()
	}
	return input
}

func (h *httpHandler) handleCreateNotebookEntry(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request notebookRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := session.Controller.CreateNotebookEntry(c.Request.Context(), request.toInput()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notebook": notebookPayloads(session.Store.NotebookEntries())})
}

func (h *httpHandler) handleUpdateNotebookEntry(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request notebookRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := session.Controller.UpdateNotebookEntry(c.Request.Context(), c.Param("id"), request.toInput()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notebook": notebookPayloads(session.Store.NotebookEntries())})
}

func (h *httpHandler) handleDeleteNotebookEntry(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	err := session.Confirm.run(confirmed(c), func() error {
		return session.Controller.DeleteNotebookEntry(c.Request.Context(), c.Param("id"))
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleCompleteTask(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.Controller.CompleteTask(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notebook": notebookPayloads(session.Store.NotebookEntries())})
}

// --- social ---

func (h *httpHandler) handleFeed(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	refresh := c.Query("refresh") == "true"
	if err := session.Controller.LoadFeedPage(c.Request.Context(), refresh); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"posts":   feedPayloads(session.Store.Feed()),
		"hasMore": session.Store.FeedHasMore(),
	})
}

type postRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	PlantName        string `json:"plantName"`
	ImageBase64      string `json:"imageBase64"`
	EventDateSeconds int64  `json:"eventDateS"`
	AttachWeather    bool   `json:"attachWeather"`
}

func (h *httpHandler) handleCreatePost(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request postRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	input := controller.PostInput{
		Title:         request.Title,
		Description:   request.Description,
		PlantName:     request.PlantName,
		ImageBase64:   request.ImageBase64,
		AttachWeather: request.AttachWeather,
	}
	if request.EventDateSeconds > 0 {
		input.EventDate = time.Unix(request.EventDateSeconds, 0).UTC()
	}
	if err := session.Controller.CreateSocialPost(c.Request.Context(), input); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": feedPayloads(session.Store.Feed())})
}

func (h *httpHandler) handleDeletePost(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	err := session.Confirm.run(confirmed(c), func() error {
		return session.Controller.DeletePost(c.Request.Context(), c.Param("id"))
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleToggleLike(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	postID := c.Param("id")
	if err := session.Controller.ToggleLike(c.Request.Context(), postID); err != nil {
		h.respondError(c, err)
		return
	}
	post, _ := session.Store.FeedPost(postID)
	c.JSON(http.StatusOK, feedPayload(post))
}

func (h *httpHandler) handleAddComment(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	postID := c.Param("id")
	if err := session.Controller.AddComment(c.Request.Context(), postID, request.Body); err != nil {
		h.respondError(c, err)
		return
	}
	post, _ := session.Store.FeedPost(postID)
	c.JSON(http.StatusOK, feedPayload(post))
}

// --- settings and profile ---

func (h *httpHandler) handleUpdateSettings(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	record := session.Controller.Settings()
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := session.Controller.UpdateSettings(record); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Controller.Settings())
}

func (h *httpHandler) handleUpdateFlora(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var prefs struct {
		IsDocked bool `json:"isDocked"`
		IsOpen   bool `json:"isOpen"`
	}
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := session.Controller.UpdateFloraPrefs(settings.FloraPrefs{IsDocked: prefs.IsDocked, IsOpen: prefs.IsOpen}); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleSetHomeLocation(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request struct {
		Latitude    float64 `json:"lat"`
		Longitude   float64 `json:"lon"`
		DisplayName string  `json:"name"`
		CountryCode string  `json:"countryCode"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	location := garden.HomeLocation{
		Latitude:    request.Latitude,
		Longitude:   request.Longitude,
		DisplayName: request.DisplayName,
		CountryCode: request.CountryCode,
	}
	if err := session.Controller.SetHomeLocation(c.Request.Context(), location); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Controller.Settings())
}

func (h *httpHandler) handleClearHomeLocation(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.Controller.ClearHomeLocation(c.Request.Context()); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- generative model ---

type imageRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

func (h *httpHandler) handleIdentify(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request imageRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	result, err := session.Controller.IdentifyPlant(c.Request.Context(), request.ImageBase64)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) handleIdentifyCandidates(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request struct {
		ImageBase64 string `json:"imageBase64"`
		Max         int    `json:"max"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	result, err := session.Controller.IdentifyCandidates(c.Request.Context(), request.ImageBase64, request.Max)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": result})
}

func (h *httpHandler) handleValidateImage(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request imageRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	result, err := session.Controller.ValidatePlantImage(c.Request.Context(), request.ImageBase64)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) handleAnalyzeHealth(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request struct {
		ImageBase64  string `json:"imageBase64"`
		AnalysisType string `json:"analysisType"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	result, err := session.Controller.AnalyzeHealth(c.Request.Context(), request.ImageBase64, request.AnalysisType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *httpHandler) handleDescribe(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request struct {
		Name           string `json:"name"`
		ScientificName string `json:"scientificName"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	description, err := session.Controller.DescribePlant(c.Request.Context(), request.Name, request.ScientificName)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"description": description})
}

func (h *httpHandler) handleRecommendations(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var criteria ai.RecommendationCriteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	result, err := session.Controller.RecommendPlants(c.Request.Context(), criteria)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": result})
}

func (h *httpHandler) handleAsk(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request struct {
		ImageBase64 string `json:"imageBase64"`
		Question    string `json:"question"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	answer, err := session.Controller.AskProfessor(c.Request.Context(), request.ImageBase64, request.Question)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// --- notice stream ---

func (h *httpHandler) handleEvents(c *gin.Context) {
	identity := h.identity(c)
	stream, cleanup := h.dispatcher.Subscribe(c.Request.Context(), identity.UserID)
	defer cleanup()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Flush()

	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case notice, open := <-stream:
			if !open {
				return false
			}
			c.SSEvent(notice.EventType, gin.H{
				"message":   notice.Message,
				"timestamp": notice.Timestamp.Unix(),
			})
			return true
		case <-heartbeat.C:
			c.SSEvent(noticeEventHeartbeat, gin.H{"timestamp": time.Now().Unix()})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// --- payload shaping ---

type plantPayload struct {
	PlantID          string               `json:"plantId"`
	Name             string               `json:"name"`
	ScientificName   string               `json:"scientificName,omitempty"`
	Description      string               `json:"description,omitempty"`
	CareInstructions string               `json:"careInstructions,omitempty"`
	ImageURL         string               `json:"imageUrl,omitempty"`
	PlantedAtSeconds int64                `json:"plantedAtS,omitempty"`
	Indoor           bool                 `json:"indoor"`
	IsActive         bool                 `json:"isActive"`
	Sequence         int                  `json:"sequence"`
	Locations        []garden.LocationPin `json:"locations,omitempty"`
}

func plantPayloads(plants []garden.Plant) []plantPayload {
	payloads := make([]plantPayload, 0, len(plants))
	for _, plant := range plants {
		payloads = append(payloads, plantPayload{
			PlantID:          plant.PlantID,
			Name:             plant.Name,
			ScientificName:   plant.ScientificName,
			Description:      plant.Description,
			CareInstructions: plant.CareInstructions,
			ImageURL:         plant.ImageURL,
			PlantedAtSeconds: plant.PlantedAtSeconds,
			Indoor:           plant.Indoor,
			IsActive:         plant.IsActive,
			Sequence:         plant.Sequence,
			Locations:        plant.Locations,
		})
	}
	return payloads
}

type logPayload struct {
	LogID       string                  `json:"logId"`
	OwnerType   string                  `json:"ownerType"`
	OwnerID     string                  `json:"ownerId"`
	DateSeconds int64                   `json:"dateS"`
	Title       string                  `json:"title"`
	Description string                  `json:"description,omitempty"`
	ImageURL    string                  `json:"imageUrl,omitempty"`
	Weather     *garden.WeatherSnapshot `json:"weather,omitempty"`
}

func logPayloads(entries []garden.LogEntry) []logPayload {
	payloads := make([]logPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, logPayload{
			LogID:       entry.LogID,
			OwnerType:   string(entry.OwnerType),
			OwnerID:     entry.OwnerID,
			DateSeconds: entry.DateSeconds,
			Title:       entry.Title,
			Description: entry.Description,
			ImageURL:    entry.ImageURL,
			Weather:     entry.Weather(),
		})
	}
	return payloads
}

type areaPayload struct {
	AreaID   string `json:"areaId"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

func areaPayloads(areas []garden.GardenArea) []areaPayload {
	payloads := make([]areaPayload, 0, len(areas))
	for _, area := range areas {
		payloads = append(payloads, areaPayload{
			AreaID:   area.AreaID,
			Name:     area.Name,
			ImageURL: area.ImageURL,
		})
	}
	return payloads
}

type notebookPayload struct {
	EntryID     string `json:"entryId"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DateSeconds int64  `json:"dateS"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Completed   bool   `json:"completed"`
	Recurrence  string `json:"recurrence,omitempty"`
	ParentID    string `json:"parentId,omitempty"`
}

func notebookPayloads(entries []garden.NotebookEntry) []notebookPayload {
	payloads := make([]notebookPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, notebookPayload{
			EntryID:     entry.EntryID,
			Kind:        string(entry.Kind),
			Title:       entry.Title,
			Description: entry.Description,
			DateSeconds: entry.DateSeconds,
			ImageURL:    entry.ImageURL,
			Completed:   entry.Completed,
			Recurrence:  entry.Recurrence,
			ParentID:    entry.ParentID,
		})
	}
	return payloads
}

type commentPayload struct {
	CommentID        string `json:"commentId"`
	AuthorName       string `json:"authorName"`
	Body             string `json:"body"`
	CreatedAtSeconds int64  `json:"createdAtS"`
}

type postPayload struct {
	PostID           string                  `json:"postId"`
	AuthorID         string                  `json:"authorId"`
	AuthorName       string                  `json:"authorName"`
	PlantName        string                  `json:"plantName,omitempty"`
	Title            string                  `json:"title"`
	Description      string                  `json:"description,omitempty"`
	ImageURL         string                  `json:"imageUrl,omitempty"`
	EventDateSeconds int64                   `json:"eventDateS"`
	Weather          *garden.WeatherSnapshot `json:"weather,omitempty"`
	Likes            int                     `json:"likes"`
	IsLiked          bool                    `json:"isLiked"`
	Comments         []commentPayload        `json:"comments"`
}

func feedPayload(post store.FeedPost) postPayload {
	comments := make([]commentPayload, 0, len(post.Comments))
	for _, comment := range post.Comments {
		comments = append(comments, commentPayload{
			CommentID:        comment.CommentID,
			AuthorName:       comment.AuthorName,
			Body:             comment.Body,
			CreatedAtSeconds: comment.CreatedAtSeconds,
		})
	}
	var snapshot *garden.WeatherSnapshot
	if post.WeatherTempC != nil && post.WeatherCode != nil {
		snapshot = &garden.WeatherSnapshot{TemperatureC: *post.WeatherTempC, ConditionCode: *post.WeatherCode}
	}
	return postPayload{
		PostID:           post.PostID,
		AuthorID:         post.AuthorID,
		AuthorName:       post.AuthorName,
		PlantName:        post.PlantName,
		Title:            post.Title,
		Description:      post.Description,
		ImageURL:         post.ImageURL,
		EventDateSeconds: post.EventDateSeconds,
		Weather:          snapshot,
		Likes:            post.Likes,
		IsLiked:          post.IsLiked,
		Comments:         comments,
	}
}

func feedPayloads(posts []store.FeedPost) []postPayload {
	payloads := make([]postPayload, 0, len(posts))
	for _, post := range posts {
		payloads = append(payloads, feedPayload(post))
	}
	return payloads
}
