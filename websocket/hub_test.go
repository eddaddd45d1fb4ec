package websocket

import (
	"testing"

	contribws "github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestPushWithoutConnection(t *testing.T) {
	hub := NewHub(zap.NewNop())
	userID := uuid.New()
	if hub.Connected(userID) {
		t.Fatal("fresh hub reports a connection")
	}
	if hub.Push(userID, map[string]string{"title": "x"}) {
		t.Error("push to an offline user reported delivered")
	}
}

func TestUnregisterKeepsNewerConnection(t *testing.T) {
	hub := NewHub(zap.NewNop())
	userID := uuid.New()

	// distinct non-nil pointers stand in for two successive sockets
	first := &Client{UserID: userID, Conn: new(contribws.Conn)}
	second := &Client{UserID: userID, Conn: new(contribws.Conn)}

	hub.Register(first)
	hub.Register(second)
	hub.Unregister(first)
	if !hub.Connected(userID) {
		t.Fatal("stale unregister dropped the newer connection")
	}
	hub.Unregister(second)
	if hub.Connected(userID) {
		t.Error("connection still registered")
	}
}
