package page

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"tickerboard/internal/metrics"
)

// writeTimeout bounds a single websocket write.
const writeTimeout = 5 * time.Second

// ClientMessage is sent by browsers over the websocket.
type ClientMessage struct {
	Type    string `json:"type"`
	Visible bool   `json:"visible"`
}

// MessageVisibility reports document.visibilityState.
const MessageVisibility = "visibility"

// Client is one attached browser.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	subID   int
	updates <-chan Update
}

type visibilityChange struct {
	client  *Client
	visible bool
}

// Visibility is the consumer of the aggregate page visibility.
type Visibility interface {
	Visible() bool
	SetVisible(visible bool)
}

type noVisibility struct{}

func (noVisibility) Visible() bool   { return false }
func (noVisibility) SetVisible(bool) {}

// Hub streams page updates to attached browsers and folds their visibility
// reports into a single page-visible signal: the page counts as visible
// while at least one client reports visible.
type Hub struct {
	page    *Page
	vis     Visibility
	origins []string
	metrics *metrics.Metrics
	log     *slog.Logger

	clients    map[*Client]bool
	visible    bool
	register   chan *Client
	unregister chan *Client
	visibility chan visibilityChange
	done       chan struct{}
}

// NewHub creates a hub for p. The aggregate starts from vis.Visible(), and
// vis.SetVisible is called from the hub loop whenever it flips. origins are
// extra allowed Origin patterns.
func NewHub(p *Page, vis Visibility, origins []string, m *metrics.Metrics, log *slog.Logger) *Hub {
	if vis == nil {
		vis = noVisibility{}
	}
	return &Hub{
		page:       p,
		vis:        vis,
		visible:    vis.Visible(),
		origins:    origins,
		metrics:    m,
		log:        log.With("component", "hub"),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		visibility: make(chan visibilityChange),
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.page.Unsubscribe(c.subID)
				delete(h.clients, c)
			}
			h.metrics.SetClients(0)
			return
		case c := <-h.register:
			h.clients[c] = false
			h.metrics.SetClients(len(h.clients))
			h.log.Info("client attached", "clients", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				h.page.Unsubscribe(c.subID)
			}
			h.metrics.SetClients(len(h.clients))
			h.log.Info("client detached", "clients", len(h.clients))
		case v := <-h.visibility:
			if _, ok := h.clients[v.client]; ok {
				h.clients[v.client] = v.visible
			}
		}
		h.updateVisibility()
	}
}

func (h *Hub) updateVisibility() {
	visible := false
	for _, v := range h.clients {
		if v {
			visible = true
			break
		}
	}
	if visible != h.visible {
		h.visible = visible
		h.log.Debug("page visibility", "visible", visible)
		h.vis.SetVisible(visible)
	}
}

// ServeHTTP upgrades the request, replays the current page, then streams
// updates until either side closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.log.Warn("websocket accept", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before the snapshot so no commit falls between them.
	subID, updates := h.page.Subscribe(256)
	c := &Client{hub: h, conn: conn, subID: subID, updates: updates}

	select {
	case h.register <- c:
	case <-h.done:
		h.page.Unsubscribe(subID)
		conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}()

	go c.writeLoop(ctx, cancel, h.page.Snapshot().Updates())
	c.readLoop(ctx)
}

func (c *Client) writeLoop(ctx context.Context, cancel context.CancelFunc, initial []Update) {
	defer cancel()
	for _, u := range initial {
		if err := c.write(ctx, u); err != nil {
			return
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-c.updates:
			if !ok {
				return
			}
			if err := c.write(ctx, u); err != nil {
				c.hub.log.Debug("websocket write", "error", err)
				return
			}
		}
	}
}

func (c *Client) write(ctx context.Context, u Update) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, c.conn, u)
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			return
		}
		if msg.Type != MessageVisibility {
			continue
		}
		select {
		case c.hub.visibility <- visibilityChange{client: c, visible: msg.Visible}:
		case <-c.hub.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
