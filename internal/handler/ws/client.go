package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	httpHandler "github.com/cypherlabdev/stake-calculator-service/internal/handler/http"
	"github.com/cypherlabdev/stake-calculator-service/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Buffer size for outbound messages
	sendBufferSize = 16
)

// Client is one calculator connection. Every inputs frame it reads is answered with one frame.
type Client struct {
	ID         string
	conn       *websocket.Conn
	send       chan ServerMessage
	done       chan struct{} // closed when ReadPump exits
	writerDone chan struct{} // closed when WritePump exits
	calculator StakeCalculator
	logger     zerolog.Logger
}

// NewClient creates a new client instance
func NewClient(id string, conn *websocket.Conn, calc StakeCalculator, logger zerolog.Logger) *Client {
	return &Client{
		ID:         id,
		conn:       conn,
		send:       make(chan ServerMessage, sendBufferSize),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
		calculator: calc,
		logger:     logger.With().Str("client_id", id).Logger(),
	}
}

// ReadPump reads inputs frames and queues the computed replies. It returns when the peer
// goes away or ctx is done, and closes the connection on the way out.
func (c *Client) ReadPump(ctx context.Context, onClose func()) {
	defer func() {
		close(c.done)
		c.conn.Close()
		if onClose != nil {
			onClose()
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("unexpected close")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}

		// The reply is queued before the next frame is read, so a slow peer slows its own reads
		if !c.enqueue(ctx, c.handleFrame(ctx, data)) {
			return
		}
	}
}

// WritePump writes queued replies and keeps the connection alive with pings
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.writerDone)
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return

		case <-c.done:
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Debug().Err(err).Msg("write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame turns one inbound frame into the reply for it
func (c *Client) handleFrame(ctx context.Context, data []byte) ServerMessage {
	var in models.StakeInputs
	if err := json.Unmarshal(data, &in); err != nil {
		return errorMessage("invalid_message", "frame must be a JSON object of stake inputs")
	}

	res, err := c.calculator.Calculate(ctx, in)
	if err != nil {
		if httpHandler.IsValidationError(err) {
			return errorMessage("invalid_inputs", err.Error())
		}
		c.logger.Error().Err(err).Msg("stake calculation failed")
		return errorMessage("calculation_failed", "failed to calculate stake")
	}

	return ServerMessage{
		Type:      MessageTypeResult,
		Payload:   httpHandler.ToStakeResponse(res),
		Timestamp: time.Now().UTC(),
	}
}

// enqueue blocks until the reply is queued for WritePump. It returns false, with the reply
// unsent, when the writer has stopped or ctx is done.
func (c *Client) enqueue(ctx context.Context, msg ServerMessage) bool {
	select {
	case c.send <- msg:
		return true
	case <-c.writerDone:
		return false
	case <-ctx.Done():
		return false
	}
}

func errorMessage(code, message string) ServerMessage {
	return ServerMessage{
		Type: MessageTypeError,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now().UTC(),
	}
}
