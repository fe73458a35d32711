package devbroker

import (
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/studyhub/client/internal/auth"
	"github.com/studyhub/client/internal/middleware"
	"github.com/studyhub/client/internal/models"
)

// Handler exposes the broker over HTTP: auth, the WebSocket endpoint and
// the REST fallbacks the client uses when the socket is down
type Handler struct {
	hub               *Hub
	store             *Store
	jwtService        *auth.JWTService
	limiter           *middleware.RateLimiter
	messagesPerSecond int
	upgrader          websocket.Upgrader
}

// NewHandler creates a new broker handler. Browser origins are validated
// against allowedOrigins; requests without an Origin header (non-browser
// clients) are always accepted.
func NewHandler(hub *Hub, store *Store, jwtService *auth.JWTService, messagesPerSecond int, allowedOrigins []string) *Handler {
	return &Handler{
		hub:               hub,
		store:             store,
		jwtService:        jwtService,
		limiter:           middleware.NewRateLimiter(messagesPerSecond),
		messagesPerSecond: messagesPerSecond,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, pattern := range allowedOrigins {
					if matchOrigin(pattern, origin) {
						return true
					}
				}
				return false
			},
		},
	}
}

// matchOrigin supports exact matches or wildcard patterns like *.example.com
func matchOrigin(pattern, origin string) bool {
	if pattern == origin {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		originHost := origin
		if u, err := url.Parse(origin); err == nil && u.Hostname() != "" {
			originHost = u.Hostname()
		}
		return strings.HasSuffix(originHost, strings.TrimPrefix(pattern, "*."))
	}
	return false
}

// Routes registers all broker routes on the router
func (h *Handler) Routes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authRoutes := router.Group("/api/auth")
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/authenticate", h.Login)
	}

	router.GET("/ws", h.HandleWebSocket)

	api := router.Group("/api")
	api.Use(h.requireAuth)
	{
		api.GET("/users/profile", h.GetProfile)
		api.GET("/users/search", h.SearchUsers)
		api.GET("/users/:id", h.GetUser)

		api.GET("/messages", h.GetMessages)
		api.POST("/messages", middleware.RateLimitMiddleware(h.limiter), h.SendMessage)

		api.GET("/notifications", h.GetNotifications)
		api.GET("/notifications/unread-count", h.GetUnreadCount)
		api.PUT("/notifications/read-all", h.MarkAllNotificationsRead)
		api.PUT("/notifications/:id/read", h.MarkNotificationRead)

		api.GET("/online-users", h.GetOnlineUsers)
	}
}

// Register creates an account and returns a token
func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user, err := h.store.CreateUser(req.FirstName, req.LastName, req.Email, hash)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Token:   token,
		Email:   user.Email,
		Message: "Registration successful",
	})
}

// Login authenticates an account and returns a token
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	account, ok := h.store.AccountByEmail(req.Email)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err := auth.CheckPassword(account.PasswordHash, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.jwtService.GenerateToken(account.User.ID, account.User.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Token:   token,
		Email:   account.User.Email,
		Message: "Login successful",
	})
}

// HandleWebSocket upgrades the connection and starts the session pumps.
// The token comes from the Authorization header or a token query
// parameter.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("devbroker: failed to upgrade connection: %v", err)
		return
	}

	session := NewSession(h.hub, conn, claims.UserID, claims.Email, h.messagesPerSecond)
	h.hub.register <- session

	go session.WritePump()
	go session.ReadPump()
}

// SendMessage is the REST fallback for chat sends
func (h *Handler) SendMessage(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var payload models.SendMessagePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if payload.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty message"})
		return
	}
	if payload.MessageType == "" {
		payload.MessageType = models.MessageTypeText
	}

	senderName := c.GetString("email")
	if user, ok := h.store.User(userID); ok {
		senderName = user.FirstName + " " + user.LastName
	}

	msg := models.ChatMessage{
		ID:           uuid.NewString(),
		SenderID:     userID,
		SenderName:   senderName,
		RecipientID:  payload.RecipientID,
		StudyGroupID: payload.StudyGroupID,
		Content:      payload.Content,
		MessageType:  payload.MessageType,
		SentAt:       time.Now(),
	}
	h.hub.DeliverMessage(msg)
	c.JSON(http.StatusOK, msg)
}

// GetMessages returns private chat history with another user
func (h *Handler) GetMessages(c *gin.Context) {
	userID := c.GetInt64("user_id")

	otherID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	c.JSON(http.StatusOK, h.store.History(userID, otherID, limit))
}

// GetNotifications returns a page of the caller's notifications
func (h *Handler) GetNotifications(c *gin.Context) {
	userID := c.GetInt64("user_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	notifications := h.store.Notifications(userID, page, size)
	if notifications == nil {
		notifications = []models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"content": notifications})
}

// GetUnreadCount returns the caller's unread notification count
func (h *Handler) GetUnreadCount(c *gin.Context) {
	userID := c.GetInt64("user_id")
	c.JSON(http.StatusOK, gin.H{"count": h.store.UnreadCount(userID)})
}

// MarkNotificationRead marks one notification as read
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if !h.store.MarkRead(userID, c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MarkAllNotificationsRead marks every notification as read
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	h.store.MarkAllRead(c.GetInt64("user_id"))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetProfile returns the caller's profile
func (h *Handler) GetProfile(c *gin.Context) {
	user, ok := h.store.User(c.GetInt64("user_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUser returns another user's profile
func (h *Handler) GetUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	user, ok := h.store.User(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// SearchUsers searches users by name or email
func (h *Handler) SearchUsers(c *gin.Context) {
	users := h.store.SearchUsers(c.Query("q"))
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}

// GetOnlineUsers returns online users (for testing/admin)
func (h *Handler) GetOnlineUsers(c *gin.Context) {
	online := h.hub.OnlineUsers()
	c.JSON(http.StatusOK, gin.H{
		"online_users": online,
		"count":        len(online),
	})
}

// requireAuth validates the bearer token and stashes the caller identity
func (h *Handler) requireAuth(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	c.Set("user_id", claims.UserID)
	c.Set("email", claims.Email)
	c.Next()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
