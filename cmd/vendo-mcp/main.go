package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/vendo/internal/common"
	"github.com/ternarybob/vendo/internal/services/events"
	"github.com/ternarybob/vendo/internal/services/snapshots"
	storage "github.com/ternarybob/vendo/internal/storage/badger"
)

func main() {
	// Load configuration
	configPath := os.Getenv("VENDO_CONFIG")
	if configPath == "" {
		configPath = "vendo.toml"
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize minimal logger for MCP server (console only, no file output)
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn") // Minimal logging to avoid cluttering MCP stdio

	// Initialize storage. Badger is single-process, so point this at a store
	// the dashboard server is not holding open.
	storageManager, err := storage.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer storageManager.Close()

	// Snapshot resolution reuses the dashboard service; Resolve never
	// publishes, so the event service here stays idle.
	eventService := events.NewService(logger)
	snapshotService := snapshots.NewService(
		storageManager.ResponseStorage(),
		storageManager.SnapshotStorage(),
		eventService,
		config.Snapshots,
		logger,
	)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"vendo",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Register store inspection tools
	mcpServer.AddTool(createGetStatsTool(), handleGetStats(storageManager, logger))
	mcpServer.AddTool(createListEndpointsTool(), handleListEndpoints(logger))
	mcpServer.AddTool(createGetLatestResponsesTool(), handleGetLatestResponses(storageManager.ResponseStorage(), logger))
	mcpServer.AddTool(createListSnapshotsTool(), handleListSnapshots(storageManager.SnapshotStorage(), logger))
	mcpServer.AddTool(createGetSnapshotTool(), handleGetSnapshot(snapshotService, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
