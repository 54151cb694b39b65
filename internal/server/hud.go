package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/zeusync/navwalk/internal/core/events/bus"
	"github.com/zeusync/navwalk/internal/core/observability/log"
	"github.com/zeusync/navwalk/internal/scene"
)

// Config holds HUD settings.
type Config struct {
	Addr           string
	Token          string
	MaxClients     int
	MaxMessageSize int64
	SendBuffer     int
	WriteTimeout   time.Duration
}

// DefaultConfig returns default HUD configuration.
func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:8080",
		MaxClients:     16,
		MaxMessageSize: 4 * 1024,
		SendBuffer:     64,
		WriteTimeout:   5 * time.Second,
	}
}

// broadcastEvents are forwarded to every client besides frames.
var broadcastEvents = []string{
	scene.EventSurfaceReady,
	scene.EventAvatarRecovered,
	scene.EventAvatarTeleported,
	scene.EventAvatarJumped,
	scene.EventWireframe,
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// HUD bridges websocket clients to a session: commands in, frames out.
type HUD struct {
	config   Config
	controls Controls
	events   bus.EventBus
	auth     TokenAuth
	logger   log.Log
	upgrader websocket.Upgrader

	mu       sync.Mutex
	clients  map[string]*client
	reserved int
	subs     []bus.Subscription
	observer *deliveryObserver

	running int32 // atomic bool
	closed  int32 // atomic bool
	dropped atomic.Uint64
}

// NewHUD creates a HUD for the given session controls.
func NewHUD(config Config, controls Controls, events bus.EventBus, logger log.Log) *HUD {
	d := DefaultConfig()
	if config.MaxClients <= 0 {
		config.MaxClients = d.MaxClients
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = d.MaxMessageSize
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = d.SendBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = d.WriteTimeout
	}
	return &HUD{
		config:   config,
		controls: controls,
		events:   events,
		auth:     TokenAuth{Token: config.Token},
		logger:   logger.With(log.String("component", "hud")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Handler serves /ws and a /frame snapshot endpoint.
func (h *HUD) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	mux.HandleFunc("/frame", h.handleFrame)
	return mux
}

// Run subscribes to session events and serves until ctx ends.
func (h *HUD) Run(ctx context.Context) error {
	if atomic.LoadInt32(&h.closed) == 1 {
		return ErrServerClosed
	}
	if !atomic.CompareAndSwapInt32(&h.running, 0, 1) {
		return ErrServerAlreadyRunning
	}
	defer atomic.StoreInt32(&h.closed, 1)

	if err := h.subscribe(); err != nil {
		return err
	}
	defer h.unsubscribe()

	ln, err := net.Listen("tcp", h.config.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}
	h.logger.Info("HUD listening", log.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err = <-errCh:
		h.closeClients()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.config.WriteTimeout)
	defer cancel()
	h.closeClients()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		h.logger.Warn("HUD shutdown", log.Error(err))
	}
	fields := []log.Field{log.Uint64("dropped_messages", h.dropped.Load())}
	if h.events != nil {
		m := h.events.GetMetrics()
		fields = append(fields,
			log.Uint64("events_published", m.Published),
			log.Uint64("event_errors", m.Errors))
	}
	h.logger.Info("HUD stopped", fields...)
	return nil
}

func (h *HUD) subscribe() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.events == nil || len(h.subs) > 0 {
		return nil
	}
	sub, err := h.events.Subscribe(scene.EventFrame, h.onFrame)
	if err != nil {
		return err
	}
	h.subs = append(h.subs, sub)
	for _, typ := range broadcastEvents {
		sub, err = h.events.Subscribe(typ, h.onEvent)
		if err != nil {
			return err
		}
		h.subs = append(h.subs, sub)
	}
	h.observer = &deliveryObserver{logger: h.logger}
	h.events.AddObserver(h.observer)
	return nil
}

func (h *HUD) unsubscribe() {
	h.mu.Lock()
	subs, obs := h.subs, h.observer
	h.subs, h.observer = nil, nil
	h.mu.Unlock()
	if obs != nil {
		h.events.RemoveObserver(obs)
	}
	for _, sub := range subs {
		_ = h.events.Unsubscribe(sub)
	}
}

func (h *HUD) onFrame(e bus.Event) error {
	f, ok := e.Data().(scene.Frame)
	if !ok {
		return ErrInvalidMessage
	}
	return h.Broadcast(Message{Type: MessageFrame, Frame: &f})
}

func (h *HUD) onEvent(e bus.Event) error {
	return h.Broadcast(Message{Type: MessageEvent, Event: e.Type(), Data: e.Data()})
}

// Broadcast queues msg for every client. Clients that are not keeping up
// miss it.
func (h *HUD) Broadcast(msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.dropped.Add(1)
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *HUD) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *HUD) handleFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.controls.Frame()); err != nil {
		h.logger.Warn("encode frame", log.Error(err))
	}
}

func (h *HUD) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.OnConnect(r); err != nil {
		h.logger.Warn("client rejected", log.Error(err))
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if !h.reserve() {
		h.logger.Warn("maximum clients reached, rejecting connection",
			log.String("remote_addr", r.RemoteAddr))
		http.Error(w, ErrMaxClientsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.release()
		h.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	conn.SetReadLimit(h.config.MaxMessageSize)

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, h.config.SendBuffer)}
	total := h.register(c)
	h.logger.Info("client connected",
		log.String("client_id", c.id),
		log.String("remote_addr", r.RemoteAddr),
		log.Int("total_clients", total))

	done := make(chan struct{})
	go h.writePump(c, done)
	h.readPump(c)
	close(done)

	if remaining := h.unregister(c); remaining == 0 {
		h.controls.ReleaseInput()
		h.controls.SetPointerLock(false)
	}
	_ = conn.Close()
	h.logger.Info("client disconnected", log.String("client_id", c.id))
}

// reserve claims a client slot before the upgrade so concurrent
// handshakes cannot exceed MaxClients.
func (h *HUD) reserve() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients)+h.reserved >= h.config.MaxClients {
		return false
	}
	h.reserved++
	return true
}

func (h *HUD) release() {
	h.mu.Lock()
	h.reserved--
	h.mu.Unlock()
}

// register turns a reserved slot into a client.
func (h *HUD) register(c *client) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reserved--
	h.clients[c.id] = c
	return len(h.clients)
}

func (h *HUD) unregister(c *client) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.id)
	return len(h.clients)
}

func (h *HUD) readPump(c *client) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("client read failed", log.String("client_id", c.id), log.Error(err))
			}
			return
		}

		cmd, err := decodeCommand(data)
		if err == nil {
			err = apply(h.controls, cmd)
		}
		if err != nil {
			h.logger.Debug("bad command", log.String("client_id", c.id), log.Error(err))
			h.reply(c, Message{Type: MessageError, Error: err.Error()})
		}
	}
}

func (h *HUD) reply(c *client, msg Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- b:
	default:
		h.dropped.Add(1)
	}
}

func (h *HUD) writePump(c *client, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				h.logger.Debug("client write failed", log.String("client_id", c.id), log.Error(err))
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (h *HUD) closeClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		_ = c.conn.Close()
	}
}
