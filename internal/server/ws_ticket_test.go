package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"orgdesk/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueWSTicket_AndConsume(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s := &Server{
		config: &config.Config{JWTSecret: "test-secret"},
		redis:  rdb,
	}

	app := fiber.New()
	app.Post("/api/ws/ticket", asUser(42, s.IssueWSTicket))
	app.Get("/api/ws/test", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID")})
	})

	// Issue a ticket
	req := httptest.NewRequest(http.MethodPost, "/api/ws/ticket", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	_ = resp.Body.Close()
	ticket, _ := body["ticket"].(string)
	require.NotEmpty(t, ticket)

	ctx := context.Background()
	key := fmt.Sprintf("ws_ticket:%s", ticket)
	val, err := rdb.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "42", val)

	// First use authenticates
	wsReq := httptest.NewRequest(http.MethodGet, "/api/ws/test?ticket="+ticket, nil)
	wsResp, err := app.Test(wsReq)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, wsResp.StatusCode)

	var wsBody map[string]interface{}
	require.NoError(t, json.NewDecoder(wsResp.Body).Decode(&wsBody))
	_ = wsResp.Body.Close()
	assert.Equal(t, float64(42), wsBody["userID"])

	// Ticket is single-use
	exists, err := rdb.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)

	replay := httptest.NewRequest(http.MethodGet, "/api/ws/test?ticket="+ticket, nil)
	replayResp, err := app.Test(replay)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, replayResp.StatusCode)
	_ = replayResp.Body.Close()
}

func TestIssueWSTicket_TicketExpires(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := &Server{
		config: &config.Config{JWTSecret: "test-secret"},
		redis:  rdb,
	}

	app := fiber.New()
	app.Post("/api/ws/ticket", asUser(7, s.IssueWSTicket))
	app.Get("/api/ws/test", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/ws/ticket", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	_ = resp.Body.Close()
	ticket := body["ticket"].(string)

	// Fast-forward past the TTL
	mr.FastForward(wsTicketTTL + time.Second)

	wsReq := httptest.NewRequest(http.MethodGet, "/api/ws/test?ticket="+ticket, nil)
	wsResp, err := app.Test(wsReq)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, wsResp.StatusCode)
	_ = wsResp.Body.Close()
}
