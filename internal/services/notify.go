// Package services implements the bill, income and expense operations on top
// of storage and announces every committed change.
package services

import (
	"context"
	"log/slog"

	"billing/internal/core"
)

// Publisher announces committed record changes. *amqp.Client implements it.
type Publisher interface {
	PublishRecordChanged(ctx context.Context, category core.Category, operation string, id int64) error
}

type notifier struct {
	publisher Publisher
}

// notify publishes a change event. Failures are logged and never returned:
// the write is already committed locally.
func (n notifier) notify(ctx context.Context, category core.Category, operation string, id int64) {
	if n.publisher == nil {
		return
	}
	if err := n.publisher.PublishRecordChanged(ctx, category, operation, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record change",
			"category", category,
			"operation", operation,
			"id", id,
			"error", err)
	}
}
