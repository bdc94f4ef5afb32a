package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/polyphony-chat/symfonia-sub000/internal/gateway"
)

// Pinger is the liveness probe satisfied by the PostgreSQL pool and the Valkey client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the health check endpoint.
type HealthHandler struct {
	db  Pinger
	rdb Pinger
	reg *gateway.Registry
}

// NewHealthHandler creates a health handler over the two backing stores and the session registry.
func NewHealthHandler(db, rdb Pinger, reg *gateway.Registry) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, reg: reg}
}

// Health pings PostgreSQL and Valkey and reports gateway session counts.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	pgStatus := "ok"
	if err := h.db.Ping(ctx); err != nil {
		pgStatus = "unavailable"
	}

	vkStatus := "ok"
	if err := h.rdb.Ping(ctx); err != nil {
		vkStatus = "unavailable"
	}

	overall := "ok"
	status := fiber.StatusOK
	if pgStatus != "ok" || vkStatus != "ok" {
		overall = "degraded"
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   overall,
		"postgres": pgStatus,
		"valkey":   vkStatus,
		"gateway": fiber.Map{
			"users":     h.reg.UserCount(),
			"sessions":  h.reg.SessionCount(),
			"resumable": h.reg.ResumableCount(),
		},
	})
}
