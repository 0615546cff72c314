package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sentiment-watchdog/internal/domain"
)

const ticketColumns = `id, source, sender, subject, message, status, sentiment, summary,
               confidence, keywords, created_at, processed_at, raw_metadata`

type postgresTicketRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketRepository instantiates the pgx-backed store.
func NewPostgresTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &postgresTicketRepository{pool: pool}
}

func (r *postgresTicketRepository) Insert(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (source, sender, subject, message, status, raw_metadata)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Source,
		ticket.Sender,
		ticket.Subject,
		ticket.Message,
		ticket.Status,
		ticket.RawMetadata,
	).Scan(&ticket.ID, &ticket.CreatedAt)
}

func (r *postgresTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)

	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Source,
		&ticket.Sender,
		&ticket.Subject,
		&ticket.Message,
		&ticket.Status,
		&ticket.Sentiment,
		&ticket.Summary,
		&ticket.Confidence,
		&ticket.Keywords,
		&ticket.CreatedAt,
		&ticket.ProcessedAt,
		&ticket.RawMetadata,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *postgresTicketRepository) ListPending(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE status=$1 ORDER BY created_at ASC, id ASC LIMIT %d`,
		ticketColumns, limit)

	rows, err := r.pool.Query(ctx, query, domain.TicketStatusNew)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *postgresTicketRepository) ListSnapshot(ctx context.Context, filter SnapshotFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Sentiments) > 0 {
		placeholders := make([]string, len(filter.Sentiments))
		for i, sentiment := range filter.Sentiments {
			args = append(args, sentiment)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("sentiment IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Sources) > 0 {
		placeholders := make([]string, len(filter.Sources))
		for i, source := range filter.Sources {
			args = append(args, source)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("source IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at ASC, id ASC`,
		ticketColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *postgresTicketRepository) UpdateStatus(ctx context.Context, id string, expected *domain.TicketStatus, update StatusUpdate) error {
	sets := []string{"status=$1"}
	args := []any{update.Status}

	if update.Classification != nil {
		c := update.Classification
		args = append(args, c.Sentiment)
		sets = append(sets, fmt.Sprintf("sentiment=$%d", len(args)))
		args = append(args, c.Summary)
		sets = append(sets, fmt.Sprintf("summary=$%d", len(args)))
		args = append(args, c.Confidence)
		sets = append(sets, fmt.Sprintf("confidence=$%d", len(args)))
		args = append(args, c.Keywords)
		sets = append(sets, fmt.Sprintf("keywords=$%d", len(args)))
	} else if update.ClearClassification {
		sets = append(sets, "sentiment=NULL", "summary=NULL", "confidence=NULL", "keywords=NULL", "processed_at=NULL")
	}
	if update.ProcessedAt != nil {
		args = append(args, *update.ProcessedAt)
		sets = append(sets, fmt.Sprintf("processed_at=$%d", len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tickets SET %s WHERE id=$%d", strings.Join(sets, ", "), len(args))
	if expected != nil {
		args = append(args, *expected)
		query = fmt.Sprintf("%s AND status=$%d", query, len(args))
	}

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}

	// Distinguish a missing ticket from a lost conditional write.
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Source,
			&ticket.Sender,
			&ticket.Subject,
			&ticket.Message,
			&ticket.Status,
			&ticket.Sentiment,
			&ticket.Summary,
			&ticket.Confidence,
			&ticket.Keywords,
			&ticket.CreatedAt,
			&ticket.ProcessedAt,
			&ticket.RawMetadata,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
