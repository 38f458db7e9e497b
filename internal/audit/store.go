package audit

import "context"

// Store defines the interface for persisting audit events.
type Store interface {
	SaveRecordCreated(ctx context.Context, event *RecordCreatedEvent) error
	SaveRecordDeleted(ctx context.Context, event *RecordDeletedEvent) error
	SaveRecordsPurged(ctx context.Context, event *RecordsPurgedEvent) error
}
