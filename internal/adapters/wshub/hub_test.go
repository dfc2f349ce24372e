package wshub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeTracker/internal/domain"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func stdHandler(hub *Hub) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	return mux
}

func TestHub_PublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	hub := NewHub(&mockLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish(ctx, domain.NewTradeUpdateEvent(nil))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no subscribers")
	}
}

func TestHub_DeliversEventToSubscriber(t *testing.T) {
	hub := NewHub(&mockLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(stdHandler(hub))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	trades := []*domain.Trade{{
		ID: 1, Symbol: "BTC", Quote: "USDT", Side: domain.SideLong,
		Status: domain.StatusOpen, EntryPrice: 100, TakeProfit: 110, StopLoss: 95,
		UnrealizedPct: 5,
	}}
	hub.Publish(ctx, domain.NewTradeUpdateEvent(trades))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event domain.TradeUpdateEvent
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, domain.EventTypeTradeUpdate, event.Type)
	require.Len(t, event.Payload, 1)
	assert.Equal(t, "BTC", event.Payload[0].Symbol)
	assert.Equal(t, domain.StatusOpen, event.Payload[0].Status)
	assert.InDelta(t, 5, event.Payload[0].UnrealizedPct, 1e-9)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(&mockLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(stdHandler(hub))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_LateSubscriberGetsNothingUntilNextPublish(t *testing.T) {
	hub := NewHub(&mockLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	// Published before anyone connects; not replayed.
	hub.Publish(ctx, domain.NewTradeUpdateEvent([]*domain.Trade{{ID: 99}}))

	srv := httptest.NewServer(stdHandler(hub))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err) // read timeout: nothing was replayed
}
