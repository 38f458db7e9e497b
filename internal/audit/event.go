package audit

import "time"

const (
	TopicRecordCreated  = "record.created"
	TopicRecordDeleted  = "record.deleted"
	TopicRecordsPurged  = "records.purged"
	defaultConsumerName = "audit"
)

// RecordCreatedEvent is emitted when a create request inserts a new record.
type RecordCreatedEvent struct {
	Keyword     string    `json:"keyword"`
	OriginalURL string    `json:"originalUrl"`
	Custom      bool      `json:"custom"`
	CreatedAt   time.Time `json:"createdAt"`
	ClientIP    string    `json:"clientIp"`
}

// RecordDeletedEvent is emitted after a record is deleted and its word released.
type RecordDeletedEvent struct {
	Keyword     string    `json:"keyword"`
	OriginalURL string    `json:"originalUrl"`
	Input       string    `json:"input"`
	DeletedAt   time.Time `json:"deletedAt"`
	ClientIP    string    `json:"clientIp"`
}

// RecordsPurgedEvent is emitted after every record is deleted at once.
type RecordsPurgedEvent struct {
	PurgedAt time.Time `json:"purgedAt"`
	ClientIP string    `json:"clientIp"`
}
