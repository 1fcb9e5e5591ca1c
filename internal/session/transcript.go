package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dangtuan21/hana-salon/internal/booking"
)

// TranscriptArchive copies finished conversations to PostgreSQL for
// long-term history. The live session stores are ephemeral; this is the
// durable record. A nil archive is valid and turns every method into a
// no-op, so the service runs without a database in development.
type TranscriptArchive struct {
	db *sql.DB
}

// NewTranscriptArchive wraps a database handle. Returns nil when db is
// nil.
func NewTranscriptArchive(db *sql.DB) *TranscriptArchive {
	if db == nil {
		return nil
	}
	return &TranscriptArchive{db: db}
}

// Archive stores the session's transcript and outcome. Idempotent per
// session: re-archiving replaces the earlier record.
func (a *TranscriptArchive) Archive(ctx context.Context, s *Session) error {
	if a == nil || a.db == nil {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("session: failed to begin archive tx: %w", err)
	}
	defer tx.Rollback()

	st := s.Booking
	bookingCreated := st != nil && st.Status == booking.StatusConfirmed
	var name, phone string
	if st != nil {
		name, phone = st.CustomerName, booking.NormalizePhone(st.CustomerPhone)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversation_archive (
			id, session_id, customer_name, customer_phone,
			booking_created, message_count, started_at, ended_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id) DO UPDATE SET
			customer_name = EXCLUDED.customer_name,
			customer_phone = EXCLUDED.customer_phone,
			booking_created = EXCLUDED.booking_created,
			message_count = EXCLUDED.message_count,
			ended_at = EXCLUDED.ended_at`,
		uuid.New(), s.ID, name, phone,
		bookingCreated, len(s.Messages), s.CreatedAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("session: failed to archive session %s: %w", s.ID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM conversation_archive_messages WHERE session_id = $1`, s.ID,
	); err != nil {
		return fmt.Errorf("session: failed to clear archived messages for %s: %w", s.ID, err)
	}
	for _, m := range s.Messages {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversation_archive_messages (
				id, session_id, role, content, created_at
			) VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), s.ID, m.Role, m.Content, m.Timestamp,
		); err != nil {
			return fmt.Errorf("session: failed to archive message for %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("session: failed to commit archive for %s: %w", s.ID, err)
	}
	return nil
}

// ArchivedCount reports how many conversations have been archived.
// Used by the stats endpoint when a database is configured.
func (a *TranscriptArchive) ArchivedCount(ctx context.Context) (int, error) {
	if a == nil || a.db == nil {
		return 0, nil
	}
	var n int
	err := a.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversation_archive`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("session: failed to count archive: %w", err)
	}
	return n, nil
}
