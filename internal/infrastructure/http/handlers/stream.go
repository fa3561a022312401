package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/alchemorsel/pantrychef/internal/domain/recipe"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/monitoring"
	"github.com/alchemorsel/pantrychef/internal/infrastructure/security"
	"github.com/alchemorsel/pantrychef/internal/ports/inbound"
	"github.com/alchemorsel/pantrychef/pkg/errors"
)

// Stream event types
const (
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
)

const (
	requestReadTimeout = 30 * time.Second
	writeTimeout       = 10 * time.Second
	maxRequestBytes    = 16 << 10
)

// StreamEvent is one websocket frame sent to the client
type StreamEvent struct {
	Type      string               `json:"type"`
	Step      string               `json:"step,omitempty"`
	Message   string               `json:"message,omitempty"`
	Iteration int                  `json:"iteration,omitempty"`
	Result    interface{}          `json:"result,omitempty"`
	Error     *errors.ErrorDetails `json:"error,omitempty"`
}

// StreamHandler serves generation progress over a websocket
type StreamHandler struct {
	service    inbound.RecipeService
	validation *security.ValidationService
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

// NewStreamHandler creates a stream handler. A nil checkOrigin enforces same-origin.
func NewStreamHandler(service inbound.RecipeService, validation *security.ValidationService, checkOrigin func(r *http.Request) bool, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		service:    service,
		validation: validation,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger: logger.Named("recipe-stream"),
	}
}

// Serve handles GET /api/v1/recipes/stream. The client sends one generate
// payload and receives progress events followed by a result or error event.
func (h *StreamHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	requestID := c.GetString(middleware.RequestIDKey)
	conn.SetReadLimit(maxRequestBytes)
	_ = conn.SetReadDeadline(time.Now().Add(requestReadTimeout))

	var req GenerateRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.writeError(conn, h.validation.BindError(err), requestID)
		return
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		h.writeError(conn, h.validation.BindError(err), requestID)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go h.watchClose(conn, cancel)

	res, err := h.service.Generate(ctx, inbound.GenerateCommand{
		Ingredients: req.Ingredients,
		Difficulty:  recipe.Difficulty(req.Difficulty),
		Language:    recipe.Language(req.Lang),
		RequestID:   requestID,
		Progress: func(step, message string, iteration int) {
			h.write(conn, StreamEvent{Type: EventProgress, Step: step, Message: message, Iteration: iteration})
		},
	})
	log := monitoring.LoggerWithContext(ctx, h.logger)
	if err != nil {
		log.Warn("Streamed generation failed", zap.Error(err))
		h.writeError(conn, errors.Wrap(err, "An unexpected error occurred"), requestID)
		return
	}

	log.Info("Streamed generation finished",
		zap.String("status", string(res.Status)),
		zap.String("source", string(res.Source)),
		zap.Int("iterations", res.Iterations),
	)
	h.write(conn, StreamEvent{Type: EventResult, Result: GenerationBody(res)})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(writeTimeout))
}

// watchClose cancels the run when the client goes away
func (h *StreamHandler) watchClose(conn *websocket.Conn, cancel context.CancelFunc) {
	_ = conn.SetReadDeadline(time.Time{})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket closed", zap.Error(err))
			}
			cancel()
			return
		}
	}
}

func (h *StreamHandler) writeError(conn *websocket.Conn, appErr *errors.AppError, requestID string) {
	details := errors.ToErrorResponse(appErr, requestID).Error
	h.write(conn, StreamEvent{Type: EventError, Error: &details})
}

func (h *StreamHandler) write(conn *websocket.Conn, event StreamEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to encode stream event", zap.Error(err))
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		h.logger.Debug("Failed to write stream event", zap.String("type", event.Type), zap.Error(err))
	}
}
