package models

// Snapshot triggers recorded on each snapshot
const (
	SnapshotTriggerLogin      = "login"
	SnapshotTriggerExtraction = "extraction"
	SnapshotTriggerManual     = "manual"
)

// Snapshot marks the set of latest responses at a point in time. Snapshots
// are created whole and never mutated; ResponseIDs follows catalog order.
type Snapshot struct {
	ID          string   `json:"id" badgerhold:"key"`
	Timestamp   int64    `json:"timestamp" badgerhold:"index"` // creation time, epoch milliseconds
	ResponseIDs []string `json:"response_ids"`
	Trigger     string   `json:"trigger"`
}

// ResolvedSnapshot pairs a snapshot with its resolved records. Records keeps
// the stored ID order; IDs that no longer resolve are listed in Missing.
type ResolvedSnapshot struct {
	Snapshot *Snapshot        `json:"snapshot"`
	Records  []ResponseRecord `json:"records"`
	Missing  []string         `json:"missing,omitempty"`
}
