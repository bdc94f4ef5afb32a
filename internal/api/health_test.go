package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/polyphony-chat/symfonia-sub000/internal/gateway"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newHealthApp(t *testing.T, db, rdb Pinger) *fiber.App {
	t.Helper()
	reg := gateway.NewRegistry(gateway.NewRoleUserIndex(), 90*time.Second, 16, zerolog.Nop())
	app := fiber.New()
	app.Get("/healthz", NewHealthHandler(db, rdb, reg).Health)
	return app
}

func TestHealthOK(t *testing.T) {
	t.Parallel()

	app := newHealthApp(t, fakePinger{}, fakePinger{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body struct {
		Status  string `json:"status"`
		Gateway struct {
			Sessions int `json:"sessions"`
		} `json:"gateway"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want %q", body.Status, "ok")
	}
	if body.Gateway.Sessions != 0 {
		t.Errorf("sessions = %d, want 0", body.Gateway.Sessions)
	}
}

func TestHealthDegraded(t *testing.T) {
	t.Parallel()

	app := newHealthApp(t, fakePinger{err: errors.New("down")}, fakePinger{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}
