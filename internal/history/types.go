package history

import "time"

// Event is one attempted write against the DNS provider.
type Event struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	Interface string    `json:"interface"`
	Zone      string    `json:"zone"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Op        string    `json:"op"`
	RecordID  string    `json:"recordId,omitempty"`
	Old       string    `json:"old,omitempty"`
	New       string    `json:"new"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}
