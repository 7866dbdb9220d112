package ledger

import (
	"context"
	"log/slog"

	"billetera/internal/events"
)

// publish notifies the export pipeline after a committed write. A
// publish failure is logged and swallowed, the periodic sweep picks up
// anything missed.
func publish(ctx context.Context, pub events.Publisher, ev events.LedgerEvent) {
	if pub == nil {
		return
	}
	if err := pub.PublishLedgerEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", ev.Kind,
			"entity_id", ev.EntityID,
			"error", err)
	}
}
