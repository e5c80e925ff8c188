package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/healthtrackhq/backend/internal/accounts"
	"github.com/healthtrackhq/backend/internal/tracker"
	"go.uber.org/zap"
)

const (
	userIDContextKey    = "healthtrack_user_id"
	requestIDContextKey = "healthtrack_request_id"
	requestIDHeader     = "X-Request-ID"
	dateLayout          = "2006-01-02"
)

var (
	errMissingAccountsService = errors.New("accounts service dependency required")
	errMissingTrackerService  = errors.New("tracker service dependency required")
	errMissingTokenManager    = errors.New("token manager dependency required")
)

// TokenManager issues and validates session tokens for authenticated routes.
type TokenManager interface {
	IssueToken(userID uint) (string, int64, error)
	ValidateToken(token string) (uint, error)
}

// Dependencies carries everything the HTTP layer needs.
type Dependencies struct {
	Accounts *accounts.Service
	Tracker  *tracker.Service
	Tokens   TokenManager
	Logger   *zap.Logger
}

// NewHTTPHandler builds the API router.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Accounts == nil {
		return nil, errMissingAccountsService
	}
	if deps.Tracker == nil {
		return nil, errMissingTrackerService
	}
	if deps.Tokens == nil {
		return nil, errMissingTokenManager
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		accounts: deps.Accounts,
		tracker:  deps.Tracker,
		tokens:   deps.Tokens,
		logger:   logger,
	}

	api := router.Group("/api")
	api.POST("/signup", handler.handleSignup)
	api.POST("/login", handler.handleLogin)

	protected := api.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/logout", handler.handleLogout)
	protected.GET("/user/profile", handler.handleGetProfile)
	protected.PUT("/user/profile", handler.handleUpdateProfile)
	protected.GET("/meal", handler.handleListMeals)
	protected.POST("/meal", handler.handleAddMeal)
	protected.GET("/activity", handler.handleListActivities)
	protected.POST("/activity", handler.handleAddActivity)
	protected.DELETE("/activity", handler.handleDeleteActivity)
	protected.GET("/vitals", handler.handleListVitals)
	protected.POST("/vitals", handler.handleAddVitals)
	protected.GET("/daily-summary/:date", handler.handleDailySummary)
	protected.GET("/calendar/:year/:month", handler.handleCalendar)

	return router, nil
}

type httpHandler struct {
	accounts *accounts.Service
	tracker  *tracker.Service
	tokens   TokenManager
	logger   *zap.Logger
}

// requestLogger tags every request with an ID and logs its outcome.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDContextKey, requestID)
		c.Header(requestIDHeader, requestID)

		start := time.Now()
		c.Next()

		logger.Info("request handled",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		abortError(c, http.StatusUnauthorized, "authorization header missing or invalid")
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		abortError(c, http.StatusUnauthorized, "authorization header missing or invalid")
		return
	}
	userID, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		abortError(c, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	c.Set(userIDContextKey, userID)
	c.Next()
}

func currentUserID(c *gin.Context) uint {
	value, exists := c.Get(userIDContextKey)
	if !exists {
		return 0
	}
	userID, ok := value.(uint)
	if !ok {
		return 0
	}
	return userID
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"status": "error", "message": message})
}

func abortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"status": "error", "message": message})
}

// validDate reports whether the value is a real calendar date in
// YYYY-MM-DD form.
func validDate(value string) bool {
	if len(value) != len(dateLayout) {
		return false
	}
	_, err := time.Parse(dateLayout, value)
	return err == nil
}

type credentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

type sessionResponsePayload struct {
	Status      string           `json:"status"`
	AccessToken string           `json:"access_token"`
	ExpiresIn   int64            `json:"expires_in"`
	TokenType   string           `json:"token_type"`
	User        accounts.Profile `json:"user"`
}

func (h *httpHandler) handleSignup(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), accounts.RegisterInput{
		Username: request.Username,
		Password: request.Password,
		Email:    request.Email,
		Name:     request.Name,
	})
	if errors.Is(err, accounts.ErrInvalidInput) {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, accounts.ErrUserExists) {
		respondError(c, http.StatusConflict, "username or email already exists")
		return
	}
	if err != nil {
		h.logger.Error("signup failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "registration failed")
		return
	}

	h.issueSession(c, http.StatusCreated, user)
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), request.Username, request.Password)
	if errors.Is(err, accounts.ErrInvalidCredentials) {
		respondError(c, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "login failed")
		return
	}

	h.issueSession(c, http.StatusOK, user)
}

func (h *httpHandler) issueSession(c *gin.Context, status int, user accounts.User) {
	token, expiresIn, err := h.tokens.IssueToken(user.ID)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "token issue failed")
		return
	}
	profile, err := h.accounts.Profile(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to load profile", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "profile load failed")
		return
	}
	c.JSON(status, sessionResponsePayload{
		Status:      "success",
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
		User:        profile,
	})
}

// handleLogout exists for client symmetry. Tokens are stateless, so the
// client simply discards its copy.
func (h *httpHandler) handleLogout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "logged out"})
}

func (h *httpHandler) handleGetProfile(c *gin.Context) {
	profile, err := h.accounts.Profile(c.Request.Context(), currentUserID(c))
	if errors.Is(err, accounts.ErrUserNotFound) {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.logger.Error("profile load failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "profile load failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "profile": profile})
}

type profileUpdatePayload struct {
	Name           *string  `json:"name"`
	Age            *int     `json:"age"`
	Height         *float64 `json:"height"`
	TargetCalories *int     `json:"target_calories"`
}

func (h *httpHandler) handleUpdateProfile(c *gin.Context) {
	var request profileUpdatePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.accounts.UpdateProfile(c.Request.Context(), currentUserID(c), accounts.ProfileUpdate{
		Name:           request.Name,
		Age:            request.Age,
		Height:         request.Height,
		TargetCalories: request.TargetCalories,
	})
	if errors.Is(err, accounts.ErrInvalidInput) {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, accounts.ErrUserNotFound) {
		respondError(c, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.logger.Error("profile update failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "profile update failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "profile": profile})
}
