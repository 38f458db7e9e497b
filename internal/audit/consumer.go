package audit

import "github.com/serroba/wordlink/internal/messaging"

// RegisterHandlers routes every audit topic into store.
func RegisterHandlers(router *messaging.Router, store Store) {
	messaging.AddHandler(router, defaultConsumerName+"."+TopicRecordCreated, TopicRecordCreated, store.SaveRecordCreated)
	messaging.AddHandler(router, defaultConsumerName+"."+TopicRecordDeleted, TopicRecordDeleted, store.SaveRecordDeleted)
	messaging.AddHandler(router, defaultConsumerName+"."+TopicRecordsPurged, TopicRecordsPurged, store.SaveRecordsPurged)
}
