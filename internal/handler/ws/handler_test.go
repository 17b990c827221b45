package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/stake-calculator-service/internal/cache"
	"github.com/cypherlabdev/stake-calculator-service/internal/metrics"
	"github.com/cypherlabdev/stake-calculator-service/internal/mocks"
	"github.com/cypherlabdev/stake-calculator-service/internal/models"
	"github.com/cypherlabdev/stake-calculator-service/internal/service"
	"github.com/cypherlabdev/stake-calculator-service/pkg/calculator"
)

// inboundFrame mirrors ServerMessage with a raw payload for decoding in tests
type inboundFrame struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// testSocketSetup holds a running server and its collaborators
type testSocketSetup struct {
	server  *httptest.Server
	metrics *metrics.Metrics
	cancel  context.CancelFunc
}

// setupTestSocket serves the handler with the real calculator behind a permissive cache mock
func setupTestSocket(t *testing.T, calc StakeCalculator) *testSocketSetup {
	m := metrics.NewMetrics(prometheus.NewRegistry())

	if calc == nil {
		ctrl := gomock.NewController(t)
		mockCache := mocks.NewMockCache(ctrl)
		mockCache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, cache.ErrCacheMiss).AnyTimes()
		mockCache.EXPECT().Set(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

		calc = service.NewStakeService(
			calculator.NewCalculator(models.CalculatorParams{}, zerolog.Nop()),
			mockCache,
			models.StakeInputs{},
			m,
			zerolog.Nop(),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := NewHandler(ctx, calc, []string{"http://localhost:3000"}, m, zerolog.Nop())
	server := httptest.NewServer(http.HandlerFunc(h.HandleStake))

	t.Cleanup(func() {
		cancel()
		server.Close()
	})

	return &testSocketSetup{server: server, metrics: m, cancel: cancel}
}

// dial opens a client connection to the test server
func (s *testSocketSetup) dial(t *testing.T, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// exchange sends one frame and reads the reply
func exchange(t *testing.T, conn *websocket.Conn, frame string) inboundFrame {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var reply inboundFrame
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

// TestHandleStake_Result tests that each inputs frame yields a result frame
func TestHandleStake_Result(t *testing.T) {
	setup := setupTestSocket(t, nil)
	conn := setup.dial(t, nil)

	reply := exchange(t, conn, `{"bankroll":10000,"decimal_odds":2,"estimated_probability_pct":55,"risk_fraction_pct":50}`)

	assert.Equal(t, MessageTypeResult, reply.Type)
	assert.False(t, reply.Timestamp.IsZero())

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(reply.Payload, &payload))
	assert.Equal(t, "500", payload["stake_amount"])
	assert.Equal(t, "good_edge", payload["advisory"])
	assert.NotEmpty(t, payload["message"])

	// A second frame on the same connection is recomputed
	reply = exchange(t, conn, `{"bankroll":10000,"decimal_odds":2,"estimated_probability_pct":55,"risk_fraction_pct":100}`)
	require.NoError(t, json.Unmarshal(reply.Payload, &payload))
	assert.Equal(t, "1000", payload["stake_amount"])
}

// TestHandleStake_Errors tests error frames for bad frames and rejected inputs
func TestHandleStake_Errors(t *testing.T) {
	setup := setupTestSocket(t, nil)
	conn := setup.dial(t, nil)

	tests := []struct {
		name     string
		frame    string
		wantCode string
	}{
		{name: "not json", frame: `hello`, wantCode: "invalid_message"},
		{name: "invalid odds", frame: `{"bankroll":100,"decimal_odds":0.5,"estimated_probability_pct":50,"risk_fraction_pct":50}`, wantCode: "invalid_inputs"},
		{name: "invalid risk", frame: `{"bankroll":100,"decimal_odds":2,"estimated_probability_pct":50,"risk_fraction_pct":150}`, wantCode: "invalid_inputs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := exchange(t, conn, tt.frame)

			assert.Equal(t, MessageTypeError, reply.Type)
			var payload ErrorPayload
			require.NoError(t, json.Unmarshal(reply.Payload, &payload))
			assert.Equal(t, tt.wantCode, payload.Code)
			assert.NotEmpty(t, payload.Message)
		})
	}
}

// TestHandleStake_BurstGetsEveryReply tests that a burst of frames larger than the send
// buffer is answered one reply per frame, in order
func TestHandleStake_BurstGetsEveryReply(t *testing.T) {
	setup := setupTestSocket(t, nil)
	conn := setup.dial(t, nil)

	frames := 4 * sendBufferSize
	for i := 1; i <= frames; i++ {
		frame := fmt.Sprintf(`{"bankroll":%d,"decimal_odds":2,"estimated_probability_pct":55,"risk_fraction_pct":100}`, i*100)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for i := 1; i <= frames; i++ {
		var reply inboundFrame
		require.NoError(t, conn.ReadJSON(&reply), "reply %d", i)
		require.Equal(t, MessageTypeResult, reply.Type)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(reply.Payload, &payload))
		assert.Equal(t, fmt.Sprint(i*10), payload["stake_amount"])
	}
}

// TestClientEnqueue_BlocksWhenFull tests that a full send buffer delays a reply instead of dropping it
func TestClientEnqueue_BlocksWhenFull(t *testing.T) {
	c := NewClient("test", nil, nil, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, c.enqueue(ctx, errorMessage("filler", "")))
	}

	queued := make(chan bool, 1)
	go func() {
		queued <- c.enqueue(ctx, errorMessage("last", ""))
	}()

	select {
	case <-queued:
		t.Fatal("enqueue returned while the buffer was full")
	case <-time.After(50 * time.Millisecond):
	}

	// Draining one slot lets the blocked reply in
	<-c.send
	assert.True(t, <-queued)
	assert.Len(t, c.send, sendBufferSize)

	var last ServerMessage
	for len(c.send) > 0 {
		last = <-c.send
	}
	assert.Equal(t, "last", last.Payload.(ErrorPayload).Code)
}

// TestClientEnqueue_GivesUp tests that enqueue returns once the writer or the server stops
func TestClientEnqueue_GivesUp(t *testing.T) {
	t.Run("writer stopped", func(t *testing.T) {
		c := NewClient("test", nil, nil, zerolog.Nop())
		for i := 0; i < sendBufferSize; i++ {
			c.send <- errorMessage("filler", "")
		}
		close(c.writerDone)

		assert.False(t, c.enqueue(context.Background(), errorMessage("last", "")))
	})

	t.Run("context done", func(t *testing.T) {
		c := NewClient("test", nil, nil, zerolog.Nop())
		for i := 0; i < sendBufferSize; i++ {
			c.send <- errorMessage("filler", "")
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.False(t, c.enqueue(ctx, errorMessage("last", "")))
	})
}

// failingCalculator always fails with an internal error
type failingCalculator struct{}

func (failingCalculator) Calculate(context.Context, models.StakeInputs) (*models.StakeResult, error) {
	return nil, errors.New("boom")
}

// TestHandleStake_CalculationFailure tests that internal errors are not leaked
func TestHandleStake_CalculationFailure(t *testing.T) {
	setup := setupTestSocket(t, failingCalculator{})
	conn := setup.dial(t, nil)

	reply := exchange(t, conn, `{"bankroll":100,"decimal_odds":2,"estimated_probability_pct":50,"risk_fraction_pct":50}`)

	assert.Equal(t, MessageTypeError, reply.Type)
	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(reply.Payload, &payload))
	assert.Equal(t, "calculation_failed", payload.Code)
	assert.NotContains(t, payload.Message, "boom")
}

// TestHandleStake_ClientGauge tests connection accounting
func TestHandleStake_ClientGauge(t *testing.T) {
	setup := setupTestSocket(t, nil)
	conn := setup.dial(t, nil)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(setup.metrics.SocketClients) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(setup.metrics.SocketClients) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

// TestHandleStake_Origin tests the origin allow list
func TestHandleStake_Origin(t *testing.T) {
	setup := setupTestSocket(t, nil)
	url := "ws" + strings.TrimPrefix(setup.server.URL, "http")

	allowed := http.Header{"Origin": []string{"http://localhost:3000"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, allowed)
	require.NoError(t, err)
	conn.Close()

	denied := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, denied)
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// TestHandleStake_ServerShutdown tests that canceling the handler context closes clients
func TestHandleStake_ServerShutdown(t *testing.T) {
	setup := setupTestSocket(t, nil)
	conn := setup.dial(t, nil)

	setup.cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

// TestOriginChecker tests origin matching rules
func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodGet, "/ws/stake", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:9999")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}

// TestErrorMessage tests error frame construction
func TestErrorMessage(t *testing.T) {
	msg := errorMessage("invalid_inputs", "bad")

	assert.Equal(t, MessageTypeError, msg.Type)
	assert.Equal(t, ErrorPayload{Code: "invalid_inputs", Message: "bad"}, msg.Payload)
	assert.WithinDuration(t, time.Now(), msg.Timestamp, time.Second)
}
