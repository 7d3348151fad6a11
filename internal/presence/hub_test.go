package presence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	hub := NewHub(NewRegistry(), nil, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if err := hub.ServeWS(w, r, uuid.New(), name); err != nil {
			t.Logf("upgrade failed: %v", err)
		}
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, name string) (*websocket.Conn, string) {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url+"?name="+name, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	welcome := read(t, conn)
	require.Equal(t, TypeWelcome, welcome.Type)
	snapshot := read(t, conn)
	require.Equal(t, TypeSnapshot, snapshot.Type)
	return conn, welcome.SessionID
}

func read(t *testing.T, conn *websocket.Conn) Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Outbound
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readPresence skips messages until a presence update for id arrives.
func readPresence(t *testing.T, conn *websocket.Conn, id uuid.UUID) Outbound {
	t.Helper()
	for {
		msg := read(t, conn)
		if msg.Type == TypePresence && msg.AssignmentID != nil && *msg.AssignmentID == id {
			return msg
		}
	}
}

func TestHubBroadcastsEditingToOtherSessions(t *testing.T) {
	_, url := startHub(t)
	alice, _ := dial(t, url, "alice")
	bob, _ := dial(t, url, "bob")
	x := uuid.New()

	require.NoError(t, alice.WriteJSON(Inbound{Type: TypeStartEditing, AssignmentID: x}))

	seenByBob := readPresence(t, bob, x)
	if assert.Len(t, seenByBob.Editors, 1) {
		assert.Equal(t, "alice", seenByBob.Editors[0].UserName)
	}
	seenByAlice := readPresence(t, alice, x)
	assert.Empty(t, seenByAlice.Editors)
}

func TestHubClearsPresenceOnDisconnect(t *testing.T) {
	hub, url := startHub(t)
	alice, _ := dial(t, url, "alice")
	bob, _ := dial(t, url, "bob")
	x := uuid.New()

	require.NoError(t, alice.WriteJSON(Inbound{Type: TypeStartEditing, AssignmentID: x}))
	readPresence(t, bob, x)

	require.NoError(t, alice.Close())

	cleared := readPresence(t, bob, x)
	assert.Empty(t, cleared.Editors)
	assert.False(t, hub.Registry().IsBeingEdited(x, ""))
}

func TestHubRejectsUnknownMessages(t *testing.T) {
	_, url := startHub(t)
	conn, _ := dial(t, url, "carol")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"dance"}`)))

	msg := read(t, conn)
	assert.Equal(t, TypeError, msg.Type)
	assert.NotEmpty(t, msg.Error)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://dispatch.example"})

	ok := httptest.NewRequest(http.MethodGet, "/", nil)
	ok.Header.Set("Origin", "https://dispatch.example")
	assert.True(t, check(ok))

	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(bad))
}
