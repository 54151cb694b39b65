package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/navwalk/internal/core/events/bus"
	"github.com/zeusync/navwalk/internal/core/locomotion"
	"github.com/zeusync/navwalk/internal/core/navmesh"
	"github.com/zeusync/navwalk/internal/core/observability/log"
	"github.com/zeusync/navwalk/internal/scene"
)

type fixture struct {
	session *scene.Session
	hud     *HUD
	url     string
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	events := bus.New()
	session := scene.New(navmesh.NewSurface(0), locomotion.DefaultParams(), events, log.Nop(), scene.DefaultOptions())
	m, err := navmesh.Quad(0, -50, -50, 50, 50)
	require.NoError(t, err)
	session.Deliver(navmesh.Delivery{Mesh: m, Source: "floor"})
	session.Advance(0)

	hud := NewHUD(cfg, session, events, log.Nop())
	require.NoError(t, hud.subscribe())
	t.Cleanup(hud.unsubscribe)

	srv := httptest.NewServer(hud.Handler())
	t.Cleanup(srv.Close)
	return &fixture{session: session, hud: hud, url: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"}
}

func (f *fixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.url+query, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return f.hud.Clients() > 0 }, time.Second, 5*time.Millisecond)
	return conn
}

func (f *fixture) step() { f.session.Advance(scene.DefaultOptions().Step) }

// next reads messages until one of the wanted type arrives.
func next(t *testing.T, conn *websocket.Conn, typ string) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == typ {
			return msg
		}
	}
}

func TestHUDStreamsFrames(t *testing.T) {
	f := newFixture(t, Config{})
	conn := f.dial(t, "")

	f.step()
	msg := next(t, conn, MessageFrame)
	require.NotNil(t, msg.Frame)
	assert.Equal(t, uint64(1), msg.Frame.Tick)
	assert.True(t, msg.Frame.Grounded)
	assert.True(t, msg.Frame.SurfaceReady)
	assert.Equal(t, "grounded", msg.Frame.State)
}

func TestHUDKeyCommandsMoveAvatar(t *testing.T) {
	f := newFixture(t, Config{})
	conn := f.dial(t, "")
	start := f.session.Avatar().Position

	require.NoError(t, conn.WriteJSON(Command{Type: CommandKey, Code: "KeyW", Down: true}))
	require.Eventually(t, func() bool {
		f.step()
		return f.session.Avatar().Position.X() < start.X()
	}, time.Second, 5*time.Millisecond)
}

func TestHUDForwardsEvents(t *testing.T) {
	f := newFixture(t, Config{})
	conn := f.dial(t, "")

	require.NoError(t, conn.WriteJSON(Command{Type: CommandWireframe}))
	msg := next(t, conn, MessageEvent)
	assert.Equal(t, scene.EventWireframe, msg.Event)
	assert.Equal(t, true, msg.Data)
}

func TestHUDTeleportAlongView(t *testing.T) {
	f := newFixture(t, Config{})
	conn := f.dial(t, "")

	require.NoError(t, conn.WriteJSON(Command{Type: CommandPointerLock, Locked: true}))
	require.NoError(t, conn.WriteJSON(Command{Type: CommandLook, DY: 600}))
	require.NoError(t, conn.WriteJSON(Command{Type: CommandTeleport}))

	start := f.session.Avatar().Position
	require.Eventually(t, func() bool {
		f.step()
		return f.session.Avatar().Position.X() < start.X()-0.5
	}, time.Second, 5*time.Millisecond)

	msg := next(t, conn, MessageEvent)
	assert.Equal(t, scene.EventAvatarTeleported, msg.Event)
	data, ok := msg.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data, "to")
}

func TestHUDRejectsBadCommands(t *testing.T) {
	f := newFixture(t, Config{})
	conn := f.dial(t, "")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"fly"}`)))
	msg := next(t, conn, MessageError)
	assert.Contains(t, msg.Error, ErrUnknownCommand.Error())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	msg = next(t, conn, MessageError)
	assert.Contains(t, msg.Error, ErrInvalidMessage.Error())

	require.NoError(t, conn.WriteJSON(Command{Type: CommandTouch, Phase: "hover"}))
	msg = next(t, conn, MessageError)
	assert.Contains(t, msg.Error, "touch phase")
}

func TestHUDToken(t *testing.T) {
	f := newFixture(t, Config{Token: "secret"})

	_, resp, err := websocket.DefaultDialer.Dial(f.url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, _, err = websocket.DefaultDialer.Dial(f.url+"?token=wrong", nil)
	require.Error(t, err)

	f.dial(t, "?token=secret")
}

func TestHUDMaxClients(t *testing.T) {
	f := newFixture(t, Config{MaxClients: 1})
	f.dial(t, "")

	_, resp, err := websocket.DefaultDialer.Dial(f.url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHUDMaxClientsUnderConcurrentDials(t *testing.T) {
	f := newFixture(t, Config{MaxClients: 2})

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
			if err != nil {
				return
			}
			ok.Add(1)
			t.Cleanup(func() { _ = conn.Close() })
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(2), ok.Load())
	require.Eventually(t, func() bool { return f.hud.Clients() == 2 }, time.Second, 5*time.Millisecond)
}

func TestHUDObservesDeliveries(t *testing.T) {
	f := newFixture(t, Config{})
	events := f.hud.events

	f.step()
	assert.GreaterOrEqual(t, events.GetMetrics().Published, uint64(1))

	_, err := events.Subscribe("test.fail", func(bus.Event) error { return errors.New("boom") })
	require.NoError(t, err)
	assert.Error(t, events.Publish(bus.NewEvent("test.fail", "test", nil, nil)))
	assert.Equal(t, uint64(1), f.hud.observer.failed.Load())
	assert.Equal(t, uint64(1), events.GetMetrics().Errors)

	f.hud.unsubscribe()
	published := events.GetMetrics().Published
	f.step()
	assert.Equal(t, published, events.GetMetrics().Published, "counters stop with the observer")
}

func TestHUDReleasesInputOnDisconnect(t *testing.T) {
	f := newFixture(t, Config{})
	conn := f.dial(t, "")

	require.NoError(t, conn.WriteJSON(Command{Type: CommandPointerLock, Locked: true}))
	require.NoError(t, conn.WriteJSON(Command{Type: CommandKey, Code: "KeyW", Down: true}))
	require.Eventually(t, f.session.PointerLocked, time.Second, 5*time.Millisecond)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return !f.session.PointerLocked() }, time.Second, 5*time.Millisecond)
	before := f.session.Avatar().Position
	f.step()
	assert.Equal(t, before.X(), f.session.Avatar().Position.X())
}

func TestFrameEndpoint(t *testing.T) {
	f := newFixture(t, Config{})
	srv := httptest.NewServer(f.hud.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/frame")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var frame scene.Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&frame))
	assert.True(t, frame.SurfaceReady)
	assert.InDelta(t, 30.0, frame.Position.X(), 1e-9)
}

func TestApplyDispatch(t *testing.T) {
	f := newFixture(t, Config{})
	require.NoError(t, apply(f.session, Command{Type: CommandResize, Width: 800}))
	assert.ErrorIs(t, apply(f.session, Command{Type: CommandResize}), ErrInvalidMessage)
	assert.ErrorIs(t, apply(f.session, Command{Type: CommandKey}), ErrInvalidMessage)
	require.NoError(t, apply(f.session, Command{Type: CommandJump}))
	f.step()
	assert.False(t, f.session.Avatar().Grounded)
}
