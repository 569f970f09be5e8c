package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samuelfneumann/hillracing/environment/box2d/hillracing"
)

// eventually polls cond until it holds or a second has passed
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func newTestHub(t *testing.T) (*Hub, *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
		server.Close()
		cancel()
	})

	if !eventually(func() bool { return hub.Clients() == 1 }) {
		t.Fatalf("clients: want(1) have(%v)", hub.Clients())
	}
	return hub, conn
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		action string
		want   hillracing.Command
		valid  bool
	}{
		{"gas", hillracing.Gas, true},
		{"reverse", hillracing.Reverse, true},
		{"idle", hillracing.Idle, true},
		{"brake", hillracing.Idle, false},
		{"", hillracing.Idle, false},
	}

	for _, test := range tests {
		have, err := ParseCommand(test.action)
		if (err == nil) != test.valid {
			t.Errorf("%q valid: want(%v) have(%v)", test.action, test.valid,
				err == nil)
		}
		if have != test.want {
			t.Errorf("%q: want(%v) have(%v)", test.action, test.want, have)
		}
	}
}

func TestHubBroadcastsSnapshots(t *testing.T) {
	hub, conn := newTestHub(t)

	snapshot := hillracing.Snapshot{
		Terrain: [][2]float64{{0, 600}, {15, 610}},
		Chassis: [2]float64{200, 400},
		Info:    hillracing.Info{Score: 7},
	}
	if err := hub.Render(snapshot); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		t.Fatal(err)
	}
	if message.Event != "snapshot" || message.Snapshot == nil {
		t.Fatalf("message: have(%+v)", message)
	}
	if message.Snapshot.Info.Score != 7 {
		t.Errorf("score: want(7) have(%v)", message.Snapshot.Info.Score)
	}
	if message.Snapshot.Chassis != snapshot.Chassis {
		t.Errorf("chassis: want(%v) have(%v)", snapshot.Chassis,
			message.Snapshot.Chassis)
	}
}

func TestHubReceivesControls(t *testing.T) {
	hub, conn := newTestHub(t)

	if have := hub.LatestCommand(); have != hillracing.Idle {
		t.Errorf("initial command: want(%v) have(%v)", hillracing.Idle, have)
	}

	for _, control := range []string{
		`{"action":"gas"}`,
		`{"action":"brake"}`,
		`not json`,
	} {
		if err := conn.WriteMessage(websocket.TextMessage,
			[]byte(control)); err != nil {
			t.Fatal(err)
		}
	}

	if !eventually(func() bool { return hub.LatestCommand() == hillracing.Gas }) {
		t.Errorf("command: want(%v) have(%v)", hillracing.Gas,
			hub.LatestCommand())
	}

	conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"reverse"}`))
	if !eventually(func() bool {
		return hub.LatestCommand() == hillracing.Reverse
	}) {
		t.Errorf("command: want(%v) have(%v)", hillracing.Reverse,
			hub.LatestCommand())
	}
}

func TestHubUnregistersClosedViewers(t *testing.T) {
	hub, conn := newTestHub(t)
	conn.Close()

	if !eventually(func() bool { return hub.Clients() == 0 }) {
		t.Errorf("clients: want(0) have(%v)", hub.Clients())
	}
}
