package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"orgdesk/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	t.Parallel()
	s, db := newTestServer(t)

	app := fiber.New()
	app.Post("/signup", s.Signup)
	app.Post("/login", s.Login)

	t.Run("signup success", func(t *testing.T) {
		resp := postJSON(t, app, "/signup", fiber.Map{
			"username":  "newmember",
			"email":     "new@org.test",
			"password":  "SecurePass12!@",
			"full_name": "New Member",
		})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.NotEmpty(t, body["token"])

		user := body["user"].(map[string]interface{})
		assert.Equal(t, string(models.UserRoleMember), user["role"])
		// Password hash never leaves the server
		_, exposed := user["password"]
		assert.False(t, exposed)

		var persisted models.User
		require.NoError(t, db.Where("email = ?", "new@org.test").First(&persisted).Error)
		assert.NotEqual(t, "SecurePass12!@", persisted.Password)
	})

	t.Run("duplicate email", func(t *testing.T) {
		resp := postJSON(t, app, "/signup", fiber.Map{
			"username": "othermember",
			"email":    "new@org.test",
			"password": "SecurePass12!@",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("weak password rejected", func(t *testing.T) {
		resp := postJSON(t, app, "/signup", fiber.Map{
			"username": "weakling",
			"email":    "weak@org.test",
			"password": "short",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("login success", func(t *testing.T) {
		resp := postJSON(t, app, "/login", fiber.Map{
			"email":    "new@org.test",
			"password": "SecurePass12!@",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.NotEmpty(t, body["token"])
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := postJSON(t, app, "/login", fiber.Map{
			"email":    "new@org.test",
			"password": "WrongPass12!@",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("unknown email", func(t *testing.T) {
		resp := postJSON(t, app, "/login", fiber.Map{
			"email":    "ghost@org.test",
			"password": "SecurePass12!@",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestAdminRequired(t *testing.T) {
	t.Parallel()
	s, db := newTestServer(t)
	admin := createAdmin(t, db)
	member := createMember(t, db)

	app := fiber.New()
	app.Get("/admin-as/:id", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		c.Locals("userID", id)
		return s.AdminRequired()(c)
	}, func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	newGetRequest := func(userID uint) *http.Request {
		return httptest.NewRequest(http.MethodGet, fmt.Sprintf("/admin-as/%d", userID), nil)
	}

	t.Run("admin passes", func(t *testing.T) {
		resp, err := app.Test(newGetRequest(admin.ID), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("member forbidden", func(t *testing.T) {
		resp, err := app.Test(newGetRequest(member.ID), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestRefreshAndLogout(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s, db := newTestServer(t)
	s.redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	user := createMember(t, db)

	app := fiber.New()
	app.Post("/refresh", s.AuthRequired(), s.RefreshToken)
	app.Post("/logout", s.AuthRequired(), s.Logout)
	app.Get("/me", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	token, err := s.generateToken(user.ID, user.Username)
	require.NoError(t, err)

	authedRequest := func(method, path, bearer string) *http.Request {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+bearer)
		return req
	}

	t.Run("refresh issues a new token and revokes the old", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodPost, "/refresh", token), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)

		fresh, _ := body["token"].(string)
		require.NotEmpty(t, fresh)
		assert.NotEqual(t, token, fresh)

		// The old token no longer authenticates
		resp, err = app.Test(authedRequest(http.MethodGet, "/me", token), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()

		// The fresh one does
		resp, err = app.Test(authedRequest(http.MethodGet, "/me", fresh), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		token = fresh
	})

	t.Run("logout revokes the presented token", func(t *testing.T) {
		resp, err := app.Test(authedRequest(http.MethodPost, "/logout", token), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		resp, err = app.Test(authedRequest(http.MethodGet, "/me", token), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	})
}
