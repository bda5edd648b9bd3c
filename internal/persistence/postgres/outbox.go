package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TopicTaskEvents is the Kafka topic all taskflow events are routed to.
const TopicTaskEvents = "task_events"

// insertOutbox records an event row inside the caller's transaction. Events
// are keyed by user so a consumer sees one user's events in order. The
// dedupe key must be unique per occurrence: complete/reopen cycles of the
// same task are distinct events.
func insertOutbox(ctx context.Context, tx pgx.Tx, userID, aggregateType, aggregateID, eventType, dedupeKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	const stmt = `INSERT INTO outbox (user_id, aggregate_type, aggregate_id, event_type, topic, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (dedupe_key) DO NOTHING`

	_, err = tx.Exec(ctx, stmt,
		userID,
		aggregateType,
		aggregateID,
		eventType,
		TopicTaskEvents,
		userID,
		body,
		dedupeKey,
	)
	return err
}
