package http

import (
	"context"
	"strings"
	"time"

	"studio-cms/internal/cms/domain/model"
	"studio-cms/internal/cms/usecase"
	"studio-cms/internal/shared/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	changeBuffer = 32
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// WebSocketMessage is the envelope of every frame sent to a client
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ChangeFeedHandler streams collection changes over WebSocket.
type ChangeFeedHandler struct {
	feed usecase.ChangeFeedUsecase
	log  logger.Logger
}

// NewChangeFeedHandler creates a new ChangeFeedHandler.
func NewChangeFeedHandler(feed usecase.ChangeFeedUsecase, log logger.Logger) *ChangeFeedHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ChangeFeedHandler{feed: feed, log: log.WithComponent("changefeed-ws")}
}

// RegisterRoutes registers GET /ws/changes. The optional collections query
// parameter is a comma-separated filter.
func (h *ChangeFeedHandler) RegisterRoutes(router fiber.Router) {
	wsGroup := router.Group("/ws")

	wsGroup.Use("/changes", func(c *fiber.Ctx) error {
		if raw := c.Query("collections"); strings.TrimSpace(raw) != "" && len(parseCollections(raw)) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "collections filter names no known collection",
			})
		}
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	wsGroup.Get("/changes", websocket.New(h.handleConnection))
}

func (h *ChangeFeedHandler) handleConnection(conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	subscriberID := uuid.NewString()
	collections := parseCollections(conn.Query("collections"))
	events := make(chan model.ChangeEvent, changeBuffer)

	h.feed.Subscribe(ctx, subscriberID, collections, events)
	defer h.feed.Unsubscribe(ctx, subscriberID)
	h.log.Infof("Change feed connection %s opened", subscriberID)

	if err := h.write(conn, WebSocketMessage{
		Type: "subscribed",
		Data: fiber.Map{"subscriberId": subscriberID, "collections": collections},
	}); err != nil {
		return
	}

	// Clients only send control frames; a read error means they left.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Warnf("Change feed connection %s: %v", subscriberID, err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Infof("Change feed connection %s closed", subscriberID)
			return
		case event := <-events:
			if err := h.write(conn, WebSocketMessage{Type: "change", Data: event}); err != nil {
				h.log.Warnf("Failed to send change to %s: %v", subscriberID, err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (h *ChangeFeedHandler) write(conn *websocket.Conn, msg WebSocketMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

// parseCollections keeps the known collection names from a comma list. Nil
// means no filter; callers reject a non-empty list with no known names.
func parseCollections(raw string) []string {
	known := make(map[string]bool, len(model.Collections))
	for _, c := range model.Collections {
		known[c] = true
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if known[name] {
			out = append(out, name)
		}
	}
	return out
}
