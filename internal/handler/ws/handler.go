package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/stake-calculator-service/internal/metrics"
	"github.com/cypherlabdev/stake-calculator-service/internal/models"
)

// MessageType identifies a server frame
type MessageType string

const (
	MessageTypeResult MessageType = "result"
	MessageTypeError  MessageType = "error"
)

// ServerMessage is the envelope of every frame the server sends
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorPayload is the payload of an error frame
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StakeCalculator computes stake results for the socket clients
type StakeCalculator interface {
	Calculate(ctx context.Context, in models.StakeInputs) (*models.StakeResult, error)
}

// Handler upgrades calculator connections and runs their pumps
type Handler struct {
	ctx        context.Context
	calculator StakeCalculator
	upgrader   websocket.Upgrader
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewHandler creates a new WebSocket handler. Client pumps are bound to ctx, not to the request.
func NewHandler(
	ctx context.Context,
	calc StakeCalculator,
	allowedOrigins []string,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		ctx:        ctx,
		calculator: calc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		metrics: m,
		logger:  logger.With().Str("component", "ws_handler").Logger(),
	}
}

// HandleStake upgrades GET /ws/stake
func (h *Handler) HandleStake(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := NewClient(uuid.New().String(), conn, h.calculator, h.logger)
	h.metrics.SocketClients.Inc()

	go c.WritePump(h.ctx)
	go c.ReadPump(h.ctx, func() {
		h.metrics.SocketClients.Dec()
		h.logger.Debug().Str("client_id", c.ID).Msg("websocket connection closed")
	})

	h.logger.Debug().Str("client_id", c.ID).Msg("websocket connection established")
}

// originChecker accepts requests without an Origin header, and origins on the list.
// A "*" entry accepts every origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
