package models

// ExportBundle is the full store contents as written to an export download.
// Credentials are always the redacted copy; callers must never place raw
// credentials here.
type ExportBundle struct {
	Version     string           `json:"version"`
	ExportedAt  int64            `json:"exported_at"` // epoch milliseconds
	LastLogin   int64            `json:"last_login,omitempty"`
	Credentials *Credentials     `json:"credentials,omitempty"`
	Responses   []ResponseRecord `json:"responses"`
	Snapshots   []Snapshot       `json:"snapshots"`
}
