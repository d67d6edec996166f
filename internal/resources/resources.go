package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/slotmatch/slotmatch/internal/server"
)

const (
	SettingsURI = "slotmatch://settings"
	HistoryURI  = "slotmatch://history"
)

// Settings is the content of the settings resource.
type Settings struct {
	Timezone      string `json:"timezone"`
	BusySource    string `json:"busySource"`
	RetentionDays int    `json:"retentionDays"`
	HistoryLimit  int    `json:"historyLimit"`
}

// HistoryEntry is one item of the history resource.
type HistoryEntry struct {
	EventID         string    `json:"eventId"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"durationMinutes"`
	CreatedAt       time.Time `json:"createdAt"`
	RemainingDays   int       `json:"remainingDays"`
}

// RegisterLocalResources registers the settings and history resources.
func RegisterLocalResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	settingsResource := mcp.NewResource(
		SettingsURI,
		"Scheduling Settings",
		mcp.WithResourceDescription("Timezone, busy-time source and retention used by this server"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(settingsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonContents(request.Params.URI, CurrentSettings(sc))
	})

	historyResource := mcp.NewResource(
		HistoryURI,
		"Created Events",
		mcp.WithResourceDescription("Events created from this machine that have not expired yet, newest first"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(historyResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		entries, err := RecentHistory(ctx, sc)
		if err != nil {
			return nil, err
		}
		return jsonContents(request.Params.URI, entries)
	})

	return nil
}

// CurrentSettings reports the settings sc runs with.
func CurrentSettings(sc *server.ServerContext) Settings {
	h := sc.History()
	return Settings{
		Timezone:      sc.Location().String(),
		BusySource:    sc.BusyName(),
		RetentionDays: int(h.Retention / (24 * time.Hour)),
		HistoryLimit:  h.Limit,
	}
}

// RecentHistory lists the unexpired history entries with their days left.
func RecentHistory(ctx context.Context, sc *server.ServerContext) ([]HistoryEntry, error) {
	now := sc.Now()
	items, err := sc.History().Recent(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	entries := make([]HistoryEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, HistoryEntry{
			EventID:         it.EventID,
			Title:           it.Title,
			DurationMinutes: it.DurationMinutes,
			CreatedAt:       it.CreatedAt,
			RemainingDays:   sc.History().RemainingDays(it.CreatedAt, now),
		})
	}
	return entries, nil
}

func jsonContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
