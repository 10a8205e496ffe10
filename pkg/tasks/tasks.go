// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

import "time"

// IngestTask represents a queued request to ingest a web page into the knowledge base.
type IngestTask struct {
	JobID       string    `json:"job_id"`
	URL         string    `json:"url"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}
