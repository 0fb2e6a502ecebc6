package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/carenest/CareNest/internal/pkg/statistics"
)

// HandleStart returns the marketplace landing data
func HandleStart(c *fiber.Ctx) error {
	go statistics.UpdateCacheIfNeeded()

	stats := statistics.GetStatistics()

	return c.JSON(fiber.Map{
		"name": "CareNest",
		"statistics": fiber.Map{
			"providers":      stats.TotalProviders,
			"bookings_today": stats.TodayBookings,
			"users":          stats.TotalUsers,
		},
		"logged_in": isLoggedIn(c),
		"username":  ExtractUsername(c),
	})
}

// HandleHealth is the liveness endpoint
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
