package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/leadbot/core/logger"
	"log/slog"
)

// PostgresRepository archives leads in Postgres via sqlx.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository wraps an open connection pool.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const insertLead = `
INSERT INTO leads (chat_id, username, language, name, contact_method, phone, note, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`

// Save inserts the lead and fills in its assigned id.
func (r *PostgresRepository) Save(ctx context.Context, lead *Lead) error {
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	err := r.db.QueryRowxContext(ctx, insertLead,
		lead.ChatID, lead.Username, lead.Language, lead.Name,
		lead.Method, lead.Phone, lead.Note, lead.CreatedAt,
	).Scan(&lead.ID)
	if err != nil {
		logger.Error(ctx, "leads", "leads.save.fail",
			slog.Int64("chat_id", lead.ChatID),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("leads: save: %w", err)
	}

	logger.Debug(ctx, "leads", "leads.saved",
		slog.String("status", "ok"),
		slog.Int64("lead_id", lead.ID),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}
