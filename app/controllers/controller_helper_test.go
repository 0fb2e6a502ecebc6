package controllers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		offset, limit := parsePagination(c, 20, 100)
		return c.JSON(fiber.Map{"offset": offset, "limit": limit})
	})

	cases := []struct {
		url        string
		wantOffset string
		wantLimit  string
	}{
		{"/items", `"offset":0`, `"limit":20`},
		{"/items?offset=40&limit=10", `"offset":40`, `"limit":10`},
		{"/items?offset=-5&limit=0", `"offset":0`, `"limit":20`},
		{"/items?limit=5000", `"offset":0`, `"limit":100`},
		{"/items?offset=abc&limit=xyz", `"offset":0`, `"limit":20`},
	}

	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", tc.url, nil), -1)
		require.NoError(t, err)
		body := make([]byte, 256)
		n, _ := resp.Body.Read(body)
		assert.Contains(t, string(body[:n]), tc.wantOffset, tc.url)
		assert.Contains(t, string(body[:n]), tc.wantLimit, tc.url)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "anna@example.com", normalizeEmail("  Anna@Example.COM "))
	assert.Equal(t, "", normalizeEmail("   "))
}

func TestGetClientIP(t *testing.T) {
	app := fiber.New()
	app.Get("/ip", func(c *fiber.Ctx) error {
		return c.SendString(GetClientIP(c))
	})

	req := httptest.NewRequest("GET", "/ip", nil)
	req.Header.Set("CF-Connecting-IP", "203.0.113.7")
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body := make([]byte, 64)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, "203.0.113.7", string(body[:n]))

	req = httptest.NewRequest("GET", "/ip", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	n, _ = resp.Body.Read(body)
	assert.Equal(t, "198.51.100.1", string(body[:n]))
}
