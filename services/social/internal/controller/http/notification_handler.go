package http

import (
	"context"
	"net/http"
	"time"

	"chronofeed/pkg/apperror"
	"chronofeed/pkg/jwt"
	"chronofeed/pkg/logger"
	"chronofeed/services/social/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// LiveSubscriber streams the payloads published to a topic.
type LiveSubscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan []byte, func() error, error)
}

type NotificationHandler struct {
	notificationUseCase usecase.NotificationUseCase
	live                LiveSubscriber
	jwtService          *jwt.Service
	paging              Paging
	logger              *logger.Logger
}

// NewNotificationHandler builds the inbox handlers. live may be nil, in
// which case the stream endpoint answers 503.
func NewNotificationHandler(
	notificationUseCase usecase.NotificationUseCase,
	live LiveSubscriber,
	jwtService *jwt.Service,
	paging Paging,
	logger *logger.Logger,
) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
		live:                live,
		jwtService:          jwtService,
		paging:              paging,
		logger:              logger,
	}
}

// GetNotifications godoc
// @Summary      Get the caller's notifications
// @Description  Follows, comments on the caller's posts and mentions, newest first
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Page size" default(20)
// @Success      200  {object}  entity.NotificationPage
// @Failure      401  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /notifications [get]
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	page, limit := h.paging.parse(c)

	notifications, err := h.notificationUseCase.ListNotifications(c.Request.Context(), viewerEmail(c), page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// StreamNotifications godoc
// @Summary      Stream new notifications
// @Description  Upgrades to a WebSocket and pushes each new notification as a JSON text frame. Browsers pass the token as a query parameter.
// @Tags         notifications
// @Param        token query string false "Bearer token when no Authorization header can be sent"
// @Success      101
// @Failure      401  {object}  apperror.ErrorResponse
// @Failure      503  {object}  apperror.ErrorResponse
// @Router       /notifications/ws [get]
func (h *NotificationHandler) StreamNotifications(c *gin.Context) {
	if h.live == nil {
		c.JSON(http.StatusServiceUnavailable, apperror.ErrorResponse{Error: "Live notifications are unavailable"})
		return
	}

	email := viewerEmail(c)
	if email == "" {
		token := c.Query("token")
		if token == "" {
			respondError(c, h.logger, apperror.Unauthorized("Token required"))
			return
		}
		claims, err := h.jwtService.ValidateToken(token)
		if err != nil {
			respondError(c, h.logger, apperror.Unauthorized("Invalid or expired token"))
			return
		}
		email = claims.Email
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	messages, closeSub, err := h.live.Subscribe(ctx, usecase.NotificationTopic(email))
	if err != nil {
		respondError(c, h.logger, apperror.Upstream("subscribe notifications", err))
		return
	}
	defer closeSub()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		h.logger.Warn("Failed to upgrade connection to WebSocket: %v", err)
		return
	}
	defer conn.Close()

	h.logger.Info("WebSocket connected for user %s", email)

	// Clients only send control frames; a read error means they left.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket disconnected for user %s", email)
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Warn("Failed to write WebSocket message: %v", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
