// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"orgdesk/internal/models"
	"orgdesk/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const wsTicketTTL = 30 * time.Second

// IssueWSTicket handles POST /api/ws/ticket
// Browsers cannot set an Authorization header on WebSocket upgrades, so the
// client exchanges its JWT for a short-lived single-use ticket first.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(fmt.Errorf("realtime service unavailable")))
	}

	ticket := uuid.New().String()
	key := fmt.Sprintf("ws_ticket:%s", ticket)
	if err := s.redis.Set(c.Context(), key, fmt.Sprintf("%d", userID), wsTicketTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// wsInbound is the shape of client messages on the notification socket. The
// console subscribes to per-entity-type approval feeds to refresh open lists
// in place.
type wsInbound struct {
	Type       string `json:"type"`
	EntityType string `json:"entity_type"`
}

// WebsocketHandler handles WebSocket connections for real-time approval events
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		// Get userID from context locals (set by AuthRequired middleware)
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			log.Printf("WebSocket: Unauthenticated connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		if s.hub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket: Failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(cl *notifications.Client, message []byte) {
			var msg wsInbound
			if err := json.Unmarshal(message, &msg); err != nil {
				log.Printf("WebSocket: Invalid message format from user %d", userID)
				return
			}

			switch msg.Type {
			case "watch":
				entityType := models.ApprovalEntityType(msg.EntityType)
				if err := s.hub.Watch(cl, entityType); err != nil {
					resp, _ := json.Marshal(fiber.Map{"type": "error", "error": err.Error()})
					cl.TrySend(resp)
					return
				}
				resp, _ := json.Marshal(fiber.Map{"type": "watching", "entity_type": entityType})
				cl.TrySend(resp)

			case "unwatch":
				s.hub.Unwatch(cl, models.ApprovalEntityType(msg.EntityType))

			case "ping":
				resp, _ := json.Marshal(fiber.Map{"type": "pong"})
				cl.TrySend(resp)
			}
		}

		// Send welcome message
		if welcome, err := json.Marshal(fiber.Map{"type": "connected", "user_id": userID}); err == nil {
			client.TrySend(welcome)
		}

		// Start write pump in a goroutine
		go client.WritePump()

		// Read pump runs in the main handler goroutine (blocking)
		client.ReadPump()
	})
}

// GetOnlineReviewers handles GET /api/admin/reviewers/online (admin only)
func (s *Server) GetOnlineReviewers(c *fiber.Ctx) error {
	if s.hub == nil {
		return c.JSON(fiber.Map{"user_ids": []uint{}})
	}
	ids := s.hub.OnlineUserIDs(c.UserContext())
	return c.JSON(fiber.Map{"user_ids": ids})
}
