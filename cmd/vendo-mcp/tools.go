package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createGetStatsTool returns the get_stats tool definition
func createGetStatsTool() mcp.Tool {
	return mcp.NewTool("get_stats",
		mcp.WithDescription("Summarize the Vendo store: endpoint coverage, response and snapshot counts, approximate size, most recent extraction"),
	)
}

// createListEndpointsTool returns the list_endpoints tool definition
func createListEndpointsTool() mcp.Tool {
	return mcp.NewTool("list_endpoints",
		mcp.WithDescription("List the Selling Partner API endpoints Vendo extracts, with their simulated paths"),
	)
}

// createGetLatestResponsesTool returns the get_latest_responses tool definition
func createGetLatestResponsesTool() mcp.Tool {
	return mcp.NewTool("get_latest_responses",
		mcp.WithDescription("Show the most recent captured response per endpoint, with a payload preview"),
		mcp.WithString("endpoint",
			mcp.Description("Filter to one endpoint ID: orders, inventory, finances, catalog, listings, reports, shipments, sellers"),
		),
	)
}

// createListSnapshotsTool returns the list_snapshots tool definition
func createListSnapshotsTool() mcp.Tool {
	return mcp.NewTool("list_snapshots",
		mcp.WithDescription("List extraction snapshots newest first, with trigger and response count"),
		mcp.WithNumber("limit",
			mcp.Description("Max snapshots to return (default: 20)"),
		),
	)
}

// createGetSnapshotTool returns the get_snapshot tool definition
func createGetSnapshotTool() mcp.Tool {
	return mcp.NewTool("get_snapshot",
		mcp.WithDescription("Resolve a snapshot to its captured response records"),
		mcp.WithString("snapshot_id",
			mcp.Required(),
			mcp.Description("Snapshot ID (format: snap_{uuid})"),
		),
	)
}
