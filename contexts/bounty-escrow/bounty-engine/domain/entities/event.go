package entities

import "time"

// EventRecord is one committed line of the event log. Seq is assigned by the
// store and equals commit order.
type EventRecord struct {
	Seq         uint64
	Kind        string
	Line        string
	CreatedAt   time.Time
	PublishedAt *time.Time
	ArchivedAt  *time.Time
	ArchiveKey  string
}
