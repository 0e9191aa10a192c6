// Package mcpadapter exposes the notification feed as MCP tools so assistants
// can ask which fleet documents need attention.
package mcpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/fleet-compliance/internal/core/domain"
	"github.com/kirillkom/fleet-compliance/internal/core/ports"
)

const (
	serverName    = "fleet-compliance"
	serverVersion = "1.0.0"

	toolNotifications = "expiry_notifications"
	toolBadge         = "expiry_badge"
)

type Handlers struct {
	notifications ports.NotificationService
	defaultLocale domain.Locale
}

func NewHandlers(notifications ports.NotificationService, defaultLocale domain.Locale) *Handlers {
	if defaultLocale == "" {
		defaultLocale = domain.LocaleArabic
	}
	return &Handlers{notifications: notifications, defaultLocale: defaultLocale}
}

// NewServer registers the read-only expiry tools.
func NewServer(h *Handlers) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool(toolNotifications,
		mcp.WithDescription("List expired and soon-to-expire fleet documents, most urgent first."),
		mcp.WithString("locale",
			mcp.Description("Language of titles and messages."),
			mcp.Enum(string(domain.LocaleArabic), string(domain.LocaleEnglish)),
		),
		mcp.WithString("vehicle_id",
			mcp.Description("Only return notifications for this vehicle."),
		),
	), h.Notifications)

	s.AddTool(mcp.NewTool(toolBadge,
		mcp.WithDescription("Return the notification bell badge: visibility, label and count."),
	), h.Badge)

	return s
}

func (h *Handlers) Notifications(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	locale := h.defaultLocale
	if raw := req.GetString("locale", ""); strings.TrimSpace(raw) != "" {
		parsed, err := domain.ParseLocale(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		locale = parsed
	}

	var (
		feed domain.Feed
		err  error
	)
	if vehicleID := strings.TrimSpace(req.GetString("vehicle_id", "")); vehicleID != "" {
		feed, err = h.notifications.VehicleFeed(ctx, vehicleID, locale)
	} else {
		feed, err = h.notifications.Feed(ctx, locale)
	}
	if err != nil {
		slog.Warn("mcp_tool_failed", "tool", toolNotifications, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(feed)
}

func (h *Handlers) Badge(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	badge, err := h.notifications.Badge(ctx)
	if err != nil {
		slog.Warn("mcp_tool_failed", "tool", toolBadge, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(badge)
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}
