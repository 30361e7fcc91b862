package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/vendo/internal/models"
)

// payloadPreviewLimit caps how much of a response body lands in tool output
const payloadPreviewLimit = 300

// formatStats formats store statistics as markdown
func formatStats(stats *models.StoreStats) string {
	var sb strings.Builder
	sb.WriteString("## Vendo Store Statistics\n\n")
	sb.WriteString(fmt.Sprintf("**Endpoints with data:** %d of %d\n", stats.EndpointCount, len(models.EndpointCatalog())))
	sb.WriteString(fmt.Sprintf("**Responses:** %d\n", stats.ResponseCount))
	sb.WriteString(fmt.Sprintf("**Snapshots:** %d\n", stats.SnapshotCount))
	sb.WriteString(fmt.Sprintf("**Approximate size:** %s (%d bytes)\n", stats.SizeHuman, stats.SizeBytes))

	if stats.LatestTimestamp > 0 {
		sb.WriteString(fmt.Sprintf("**Last extraction:** %s\n", formatMillis(stats.LatestTimestamp)))
	} else {
		sb.WriteString("**Last extraction:** never\n")
	}

	return sb.String()
}

// formatEndpoints formats the endpoint catalog as markdown
func formatEndpoints(endpoints []models.Endpoint) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Extraction Endpoints (%d)\n\n", len(endpoints)))

	for i, ep := range endpoints {
		sb.WriteString(fmt.Sprintf("%d. **%s** (`%s`)\n", i+1, ep.Name, ep.ID))
		sb.WriteString(fmt.Sprintf("   Path: %s\n", ep.Path))
		sb.WriteString(fmt.Sprintf("   %s\n\n", ep.Description))
	}

	return sb.String()
}

// formatLatestResponses formats the newest record per endpoint as markdown,
// in catalog order
func formatLatestResponses(latest map[string]*models.ResponseRecord) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Latest Responses (%d endpoints)\n\n", len(latest)))

	if len(latest) == 0 {
		sb.WriteString("No responses captured yet.\n")
		return sb.String()
	}

	for _, ep := range models.EndpointCatalog() {
		record, ok := latest[ep.ID]
		if !ok {
			continue
		}

		sb.WriteString(fmt.Sprintf("### %s\n", ep.Name))
		sb.WriteString(fmt.Sprintf("**Record:** %s\n", record.ID))
		sb.WriteString(fmt.Sprintf("**Captured:** %s\n", formatMillis(record.Timestamp)))

		if record.Success {
			sb.WriteString("**Status:** success\n\n")
			sb.WriteString("#### Payload:\n```json\n")
			sb.WriteString(previewPayload(record.Payload))
			sb.WriteString("\n```\n")
		} else {
			sb.WriteString(fmt.Sprintf("**Status:** failed (%s)\n", record.Error))
		}
		sb.WriteString("\n---\n\n")
	}

	return sb.String()
}

// formatSnapshots formats a snapshot listing as markdown
func formatSnapshots(snapshots []*models.Snapshot, total int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Snapshots (%d of %d)\n\n", len(snapshots), total))

	if len(snapshots) == 0 {
		sb.WriteString("No snapshots recorded.\n")
		return sb.String()
	}

	for i, snap := range snapshots {
		sb.WriteString(fmt.Sprintf("%d. **%s**\n", i+1, snap.ID))
		sb.WriteString(fmt.Sprintf("   Created: %s\n", formatMillis(snap.Timestamp)))
		sb.WriteString(fmt.Sprintf("   Trigger: %s, responses: %d\n\n", snap.Trigger, len(snap.ResponseIDs)))
	}

	return sb.String()
}

// formatResolvedSnapshot formats a snapshot with its records as markdown
func formatResolvedSnapshot(resolved *models.ResolvedSnapshot) string {
	var sb strings.Builder
	snap := resolved.Snapshot
	sb.WriteString(fmt.Sprintf("# Snapshot %s\n\n", snap.ID))
	sb.WriteString(fmt.Sprintf("**Created:** %s\n", formatMillis(snap.Timestamp)))
	sb.WriteString(fmt.Sprintf("**Trigger:** %s\n", snap.Trigger))
	sb.WriteString(fmt.Sprintf("**Responses:** %d resolved, %d missing\n\n", len(resolved.Records), len(resolved.Missing)))

	for _, record := range resolved.Records {
		sb.WriteString(fmt.Sprintf("### %s\n", record.ID))
		sb.WriteString(fmt.Sprintf("**Endpoint:** %s\n", record.EndpointID))
		sb.WriteString(fmt.Sprintf("**Captured:** %s\n", formatMillis(record.Timestamp)))
		if record.Success {
			sb.WriteString("**Status:** success\n\n")
			sb.WriteString("```json\n")
			sb.WriteString(previewPayload(record.Payload))
			sb.WriteString("\n```\n\n")
		} else {
			sb.WriteString(fmt.Sprintf("**Status:** failed (%s)\n\n", record.Error))
		}
	}

	if len(resolved.Missing) > 0 {
		sb.WriteString("## Missing Records\n\n")
		sb.WriteString("These response IDs were deleted after the snapshot was taken:\n\n")
		for _, id := range resolved.Missing {
			sb.WriteString(fmt.Sprintf("- %s\n", id))
		}
	}

	return sb.String()
}

// previewPayload truncates a raw payload for tool output
func previewPayload(payload []byte) string {
	s := string(payload)
	if len(s) > payloadPreviewLimit {
		return s[:payloadPreviewLimit] + "..."
	}
	return s
}

// formatMillis renders an epoch-millisecond timestamp
func formatMillis(ts int64) string {
	return time.UnixMilli(ts).Format(time.RFC3339)
}
