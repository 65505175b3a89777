package handler

import (
	"github.com/kassa-app/kassa-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, feedHandler *FeedHandler, entryHandler *EntryHandler, groupHandler *GroupHandler, tagHandler *TagHandler, recurringHandler *RecurringHandler, settingsHandler *SettingsHandler, receiptHandler *ReceiptHandler) {
	// API version 1
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Feed routes
	api.GET("/feed", feedHandler.GetFeed)
	api.PATCH("/feed/entries/toggle", entryHandler.ToggleFulfilled)
	api.POST("/feed/entries/edit", entryHandler.EditOccurrence)
	api.POST("/feed/entries/delete", entryHandler.DeleteOccurrence)

	// Entry routes
	api.POST("/entries", entryHandler.CreateEntry)
	api.POST("/entries/recurring", entryHandler.CreateRecurringEntry)
	api.POST("/entries/:id/receipt", receiptHandler.UploadReceipt)
	api.GET("/entries/:id/receipt", receiptHandler.GetReceiptURLs)
	api.DELETE("/entries/:id/receipt", receiptHandler.DeleteReceipt)

	// Recurring config routes
	api.GET("/recurring", recurringHandler.ListRecurring)

	// Group routes
	api.POST("/groups", groupHandler.CreateGroup)
	api.GET("/groups", groupHandler.ListGroups)
	api.DELETE("/groups/:id", groupHandler.DeleteGroup)

	// Tag routes
	api.POST("/tags", tagHandler.CreateTag)
	api.GET("/tags", tagHandler.ListTags)
	api.PATCH("/tags/:id/color", tagHandler.UpdateTagColor)
	api.DELETE("/tags/:id", tagHandler.DeleteTag)

	// Settings routes
	api.POST("/settings/erase", settingsHandler.EraseAll)
}
