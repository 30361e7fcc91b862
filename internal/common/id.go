package common

import (
	"fmt"

	"github.com/google/uuid"
)

// NewSnapshotID generates a unique snapshot ID with the "snap_" prefix
// Format: snap_<uuid>
func NewSnapshotID() string {
	return "snap_" + uuid.New().String()
}

// ResponseID derives the storage key for a captured response. The key is
// deterministic so a re-capture in the same millisecond overwrites.
// Format: <endpointID>_<timestampMillis>
func ResponseID(endpointID string, timestampMillis int64) string {
	return fmt.Sprintf("%s_%d", endpointID, timestampMillis)
}
