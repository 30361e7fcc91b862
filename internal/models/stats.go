package models

// StoreStats aggregates what the local store currently holds. SizeBytes is
// approximate, computed from serialized record lengths rather than on-disk
// footprint.
type StoreStats struct {
	EndpointCount   int    `json:"endpoint_count"`
	ResponseCount   int    `json:"response_count"`
	SnapshotCount   int    `json:"snapshot_count"`
	LatestTimestamp int64  `json:"latest_timestamp"` // epoch milliseconds, 0 when empty
	SizeBytes       int64  `json:"size_bytes"`
	SizeHuman       string `json:"size_human"`
}
