package store

import (
	"context"

	"github.com/serroba/wordlink/internal/audit"
	"go.uber.org/zap"
)

// Log is an audit.Store that writes every event to the logger.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a new logging audit store.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger.Named("audit")}
}

func (l *Log) SaveRecordCreated(_ context.Context, event *audit.RecordCreatedEvent) error {
	l.logger.Info("record created",
		zap.String("keyword", event.Keyword),
		zap.String("originalUrl", event.OriginalURL),
		zap.Bool("custom", event.Custom),
		zap.Time("createdAt", event.CreatedAt),
		zap.String("clientIp", event.ClientIP),
	)

	return nil
}

func (l *Log) SaveRecordDeleted(_ context.Context, event *audit.RecordDeletedEvent) error {
	l.logger.Info("record deleted",
		zap.String("keyword", event.Keyword),
		zap.String("originalUrl", event.OriginalURL),
		zap.String("input", event.Input),
		zap.Time("deletedAt", event.DeletedAt),
		zap.String("clientIp", event.ClientIP),
	)

	return nil
}

func (l *Log) SaveRecordsPurged(_ context.Context, event *audit.RecordsPurgedEvent) error {
	l.logger.Warn("all records purged",
		zap.Time("purgedAt", event.PurgedAt),
		zap.String("clientIp", event.ClientIP),
	)

	return nil
}

// Compile-time check.
var _ audit.Store = (*Log)(nil)
