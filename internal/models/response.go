package models

import "encoding/json"

// ResponseRecord is one captured endpoint response, successful or failed.
// The key derives from endpoint and capture time, so re-capturing the same
// endpoint in the same millisecond overwrites rather than duplicates.
type ResponseRecord struct {
	ID         string          `json:"id" badgerhold:"key"`
	EndpointID string          `json:"endpoint_id" badgerhold:"index"`
	Timestamp  int64           `json:"timestamp" badgerhold:"index"` // capture time, epoch milliseconds
	Payload    json.RawMessage `json:"payload,omitempty"`
	Success    bool            `json:"success"`
	Error      string          `json:"error,omitempty"`
}

// SerializedSize approximates the stored footprint of the record.
func (r *ResponseRecord) SerializedSize() int64 {
	b, err := json.Marshal(r)
	if err != nil {
		return 0
	}
	return int64(len(b))
}
