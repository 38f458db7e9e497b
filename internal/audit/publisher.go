package audit

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/wordlink/internal/messaging"
)

// Publishers holds one typed publish function per audit topic.
type Publishers struct {
	RecordCreated messaging.Publish[RecordCreatedEvent]
	RecordDeleted messaging.Publish[RecordDeletedEvent]
	RecordsPurged messaging.Publish[RecordsPurgedEvent]
}

// NewPublishers creates the audit publish functions on top of publisher.
func NewPublishers(publisher message.Publisher) Publishers {
	return Publishers{
		RecordCreated: messaging.NewPublishFunc[RecordCreatedEvent](publisher, TopicRecordCreated),
		RecordDeleted: messaging.NewPublishFunc[RecordDeletedEvent](publisher, TopicRecordDeleted),
		RecordsPurged: messaging.NewPublishFunc[RecordsPurgedEvent](publisher, TopicRecordsPurged),
	}
}
