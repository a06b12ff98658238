package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"log/slog"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/echoflaresat/globeview/hover"
	"github.com/echoflaresat/globeview/observability"
	"github.com/echoflaresat/globeview/panel"
	"github.com/echoflaresat/globeview/vectors"
	"github.com/echoflaresat/globeview/viewer"
)

const (
	textChSize     = 32
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// Message types sent to the browser as JSON text frames.
const (
	TypeTooltip     = "tooltip"
	TypeTooltipHide = "tooltip-hide"
	TypePanel       = "panel"
)

// TooltipMessage shows the info box at a viewport position.
type TooltipMessage struct {
	Type string `json:"type"`
	hover.Label
	Lines []string `json:"lines"`
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
}

// PanelMessage describes the debug panel.
type PanelMessage struct {
	Type     string          `json:"type"`
	Controls []panel.Control `json:"controls"`
}

// Viewer is the part of the frame loop the hub talks to.
type Viewer interface {
	Send(in viewer.Input) bool
	Controls() []panel.Control
}

var _ viewer.Sink = (*Hub)(nil)

// Hub fans viewer output out to every connected browser and feeds their
// input back. It implements viewer.Sink.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	frame   []byte // last encoded frame, for new clients
	tooltip []byte // current tooltip message, nil when hidden

	viewer   Viewer
	upgrader ws.Upgrader
	encoder  png.Encoder
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewHub returns a hub forwarding input to v.
func NewHub(v Viewer, logger *slog.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		viewer:  v,
		upgrader: ws.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
		logger:  logger,
		metrics: metrics,
	}
}

// SetViewer attaches the viewer after construction, for when the viewer
// itself needs the hub as its sink.
func (h *Hub) SetViewer(v Viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.viewer = v
}

// Clients returns the number of connected browsers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Frame encodes f once and offers it to every client. Slow clients skip
// frames; each only ever holds the newest one.
func (h *Hub) Frame(f viewer.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		h.frame = nil
		return
	}

	var buf bytes.Buffer
	if err := h.encoder.Encode(&buf, f.Image); err != nil {
		h.logger.Error("failed to encode frame", "seq", f.Seq, "error", err)
		return
	}
	h.frame = buf.Bytes()
	for c := range h.clients {
		c.offerFrame(h.frame)
	}
}

// Tooltip tells every client to show the info box.
func (h *Hub) Tooltip(label hover.Label, at vectors.Vec2) {
	data, err := json.Marshal(TooltipMessage{
		Type:  TypeTooltip,
		Label: label,
		Lines: label.Lines(),
		X:     at.X,
		Y:     at.Y,
	})
	if err != nil {
		h.logger.Error("failed to marshal tooltip", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tooltip = data
	h.broadcastText(data)
}

// TooltipHidden tells every client to remove the info box.
func (h *Hub) TooltipHidden() {
	data, _ := json.Marshal(map[string]string{"type": TypeTooltipHide})
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tooltip = nil
	h.broadcastText(data)
}

// Panel sends the current panel state to every client, so a change made in
// one browser shows up in the others.
func (h *Hub) Panel(controls []panel.Control) {
	data, err := json.Marshal(PanelMessage{Type: TypePanel, Controls: controls})
	if err != nil {
		h.logger.Error("failed to marshal panel", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastText(data)
}

// broadcastText must be called with h.mu held.
func (h *Hub) broadcastText(data []byte) {
	for c := range h.clients {
		c.sendText(data)
	}
}

// ServeHTTP upgrades the request to a WebSocket and serves one client until
// it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	c := newClient(conn, h.logger)

	h.mu.Lock()
	v := h.viewer
	h.mu.Unlock()

	if v != nil {
		panelMsg, _ := json.Marshal(PanelMessage{Type: TypePanel, Controls: v.Controls()})
		c.sendText(panelMsg)
	}
	h.register(c)
	go c.writeLoop()

	h.readLoop(c, v)
	h.unregister(c)
	c.close()
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if h.tooltip != nil {
		c.sendText(h.tooltip)
	}
	if h.frame != nil {
		c.offerFrame(h.frame)
	}
	if h.metrics != nil {
		h.metrics.Clients.Inc()
	}
	h.logger.Info("client connected", "remote", c.conn.RemoteAddr().String(), "clients", len(h.clients))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	if h.metrics != nil {
		h.metrics.Clients.Dec()
	}
	h.logger.Info("client disconnected", "remote", c.conn.RemoteAddr().String(), "clients", len(h.clients))
}

// readLoop decodes input messages until the connection fails.
func (h *Hub) readLoop(c *client, v Viewer) {
	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseNormalClosure, ws.CloseNoStatusReceived) {
				h.logger.Warn("WebSocket read error", "error", err)
			}
			return
		}
		var in viewer.Input
		if err := json.Unmarshal(message, &in); err != nil {
			h.logger.Debug("Non-input message received", "raw", string(message))
			continue
		}
		if v != nil {
			v.Send(in)
		}
	}
}

// client is one browser connection with a single write goroutine.
type client struct {
	conn   *ws.Conn
	frame  chan []byte // holds at most the newest frame
	text   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func newClient(conn *ws.Conn, logger *slog.Logger) *client {
	return &client{
		conn:   conn,
		frame:  make(chan []byte, 1),
		text:   make(chan []byte, textChSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// offerFrame replaces any frame still waiting to be written.
func (c *client) offerFrame(data []byte) {
	for {
		select {
		case c.frame <- data:
			return
		default:
		}
		select {
		case <-c.frame:
		default:
		}
	}
}

func (c *client) sendText(data []byte) {
	select {
	case c.text <- data:
	default:
		c.logger.Debug("Text channel full, dropping message")
	}
}

// writeLoop sends queued messages. Text messages go before frames so a
// tooltip never lags behind the picture it belongs to.
func (c *client) writeLoop() {
	for {
		var (
			kind int
			data []byte
		)
		select {
		case <-c.done:
			return
		case data = <-c.text:
			kind = ws.TextMessage
		default:
			select {
			case <-c.done:
				return
			case data = <-c.text:
				kind = ws.TextMessage
			case data = <-c.frame:
				kind = ws.BinaryMessage
			}
		}

		if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			c.logger.Warn("WebSocket SetWriteDeadline error", "error", err)
			c.close()
			return
		}
		if err := c.conn.WriteMessage(kind, data); err != nil {
			c.logger.Warn("WebSocket write error", "error", err)
			c.close()
			return
		}
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
