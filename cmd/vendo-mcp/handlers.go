package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
)

// handleGetStats implements the get_stats tool
func handleGetStats(storageManager interfaces.StorageManager, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := storageManager.Stats(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Stats failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Stats error: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatStats(stats)),
			},
		}, nil
	}
}

// handleListEndpoints implements the list_endpoints tool
func handleListEndpoints(logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatEndpoints(models.EndpointCatalog())),
			},
		}, nil
	}
}

// handleGetLatestResponses implements the get_latest_responses tool
func handleGetLatestResponses(responseStorage interfaces.ResponseStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Parse optional endpoint filter
		endpointID := request.GetString("endpoint", "")
		if endpointID != "" {
			if _, ok := models.EndpointByID(endpointID); !ok {
				return &mcp.CallToolResult{
					Content: []mcp.Content{
						mcp.NewTextContent(fmt.Sprintf("Error: unknown endpoint %q", endpointID)),
					},
				}, nil
			}
		}

		latest, err := responseStorage.GetLatestPerEndpoint(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("GetLatestPerEndpoint failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Read error: %v", err)),
				},
			}, nil
		}

		if endpointID != "" {
			record := latest[endpointID]
			latest = map[string]*models.ResponseRecord{}
			if record != nil {
				latest[endpointID] = record
			}
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatLatestResponses(latest)),
			},
		}, nil
	}
}

// handleListSnapshots implements the list_snapshots tool
func handleListSnapshots(snapshotStorage interfaces.SnapshotStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Parse limit (default: 20)
		limit := request.GetInt("limit", 20)

		snapshots, err := snapshotStorage.ListSnapshots(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("ListSnapshots failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Read error: %v", err)),
				},
			}, nil
		}

		total := len(snapshots)
		if limit > 0 && len(snapshots) > limit {
			snapshots = snapshots[:limit]
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatSnapshots(snapshots, total)),
			},
		}, nil
	}
}

// handleGetSnapshot implements the get_snapshot tool
func handleGetSnapshot(snapshotService interfaces.SnapshotService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Parse snapshot_id parameter (required)
		snapshotID, err := request.RequireString("snapshot_id")
		if err != nil || snapshotID == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: snapshot_id parameter is required"),
				},
			}, nil
		}

		resolved, err := snapshotService.Resolve(ctx, snapshotID)
		if err != nil {
			logger.Error().Err(err).Str("snapshot_id", snapshotID).Msg("Resolve failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Snapshot not found: %v", err)),
				},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(formatResolvedSnapshot(resolved)),
			},
		}, nil
	}
}
