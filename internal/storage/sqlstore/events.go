package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const eventColumns = `id, content, owner_id, amount, event_date, status, created_at, updated_at`

func scanEvent(row rowScanner) (*models.Event, error) {
	event := &models.Event{}
	var date int64
	err := row.Scan(
		&event.ID,
		&event.Content,
		&event.OwnerID,
		&event.Amount,
		&date,
		&event.Status,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	event.Date = time.Unix(date, 0).UTC()
	return event, err
}

// CreateEvent persists a new event, its members and its contributions in one transaction.
func (s *SQLStore) CreateEvent(ctx context.Context, event *models.Event) error {
	// Generate ID if not set
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if event.CreatedAt == 0 {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	if event.Status == "" {
		event.Status = models.StatusWaiting
	}

	event.Members = sortedMembers(event.Members)

	return s.withinTx(ctx, func(ctx context.Context, t *txStore) error {
		_, err := t.exec(ctx,
			`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			event.ID, event.Content, event.OwnerID, event.Amount, event.Date.Unix(),
			event.Status, event.CreatedAt, event.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
		return t.insertEventChildren(ctx, event)
	})
}

// insertEventChildren writes members and contributions.
func (c conn) insertEventChildren(ctx context.Context, event *models.Event) error {
	for _, member := range event.Members {
		if _, err := c.exec(ctx,
			"INSERT INTO event_members (event_id, account_id) VALUES (?, ?)",
			event.ID, member,
		); err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}
	}

	insert := func(kind models.ContributionKind, contributions []models.Contribution) error {
		for i, contribution := range contributions {
			if _, err := c.exec(ctx,
				`INSERT INTO event_contributions (event_id, kind, position, account_id, amount, message)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				event.ID, kind, i, contribution.AccountID, contribution.Amount, contribution.Message,
			); err != nil {
				return fmt.Errorf("failed to insert %s contribution: %w", kind, err)
			}
		}
		return nil
	}
	if err := insert(models.ContributionSponsor, event.Sponsors); err != nil {
		return err
	}
	return insert(models.ContributionPrePaid, event.PrePaids)
}

// GetEvent retrieves an event by ID, including members and contributions.
func (s *SQLStore) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	return s.conn.getEvent(ctx, eventID)
}

func (c conn) getEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := scanEvent(c.queryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", eventID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", c.dialect.classify(err))
	}

	if err := c.loadEventChildren(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// loadEventChildren fills members and contributions. Each result set is drained and
// closed before the next query so this works on a single-connection pool.
func (c conn) loadEventChildren(ctx context.Context, event *models.Event) error {
	rows, err := c.query(ctx,
		"SELECT account_id FROM event_members WHERE event_id = ? ORDER BY account_id",
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get members: %w", err)
	}
	event.Members = nil
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan member: %w", err)
		}
		event.Members = append(event.Members, member)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate members: %w", err)
	}

	rows, err = c.query(ctx,
		`SELECT kind, account_id, amount, message FROM event_contributions
		 WHERE event_id = ? ORDER BY kind, position`,
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get contributions: %w", err)
	}
	event.Sponsors, event.PrePaids = nil, nil
	for rows.Next() {
		var kind models.ContributionKind
		var contribution models.Contribution
		if err := rows.Scan(&kind, &contribution.AccountID, &contribution.Amount, &contribution.Message); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan contribution: %w", err)
		}
		switch kind {
		case models.ContributionSponsor:
			event.Sponsors = append(event.Sponsors, contribution)
		case models.ContributionPrePaid:
			event.PrePaids = append(event.PrePaids, contribution)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate contributions: %w", err)
	}
	return nil
}

// UpdateWaitingEvent replaces the editable fields of an event that is still WAITING.
func (s *SQLStore) UpdateWaitingEvent(ctx context.Context, event *models.Event) error {
	now := time.Now().Unix()
	event.Members = sortedMembers(event.Members)

	err := s.withinTx(ctx, func(ctx context.Context, t *txStore) error {
		res, err := t.exec(ctx,
			`UPDATE events SET content = ?, owner_id = ?, amount = ?, event_date = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			event.Content, event.OwnerID, event.Amount, event.Date.Unix(), now,
			event.ID, models.StatusWaiting,
		)
		if err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		if err := t.checkEventTransition(ctx, res, event.ID); err != nil {
			return err
		}

		if _, err := t.exec(ctx, "DELETE FROM event_members WHERE event_id = ?", event.ID); err != nil {
			return fmt.Errorf("failed to delete members: %w", err)
		}
		if _, err := t.exec(ctx, "DELETE FROM event_contributions WHERE event_id = ?", event.ID); err != nil {
			return fmt.Errorf("failed to delete contributions: %w", err)
		}
		return t.insertEventChildren(ctx, event)
	})
	if err != nil {
		return err
	}
	event.UpdatedAt = now
	event.Status = models.StatusWaiting
	return nil
}

// ListEvents returns events newest first.
func (s *SQLStore) ListEvents(ctx context.Context, filter storage.EventFilter) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE 1 = 1`
	var args []any
	if filter.OwnerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, filter.OwnerID)
	}
	if filter.ExcludeStatus != "" {
		query += ` AND status <> ?`
		args = append(args, filter.ExcludeStatus)
	}
	query += ` ORDER BY created_at DESC, id` + limitClause(filter.Page)

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	for _, event := range events {
		if err := s.loadEventChildren(ctx, event); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// TransitionEventStatus performs the WAITING → terminal compare-and-swap.
func (t *txStore) TransitionEventStatus(ctx context.Context, eventID string, from, to models.Status) (*models.Event, error) {
	res, err := t.exec(ctx,
		"UPDATE events SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		to, time.Now().Unix(), eventID, from,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to transition event: %w", err)
	}
	if err := t.checkEventTransition(ctx, res, eventID); err != nil {
		return nil, err
	}
	return t.getEvent(ctx, eventID)
}

// checkEventTransition turns a zero-row conditional update into ErrNotFound or ErrConflict.
func (c conn) checkEventTransition(ctx context.Context, res sql.Result, eventID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	var status models.Status
	err = c.queryRow(ctx, "SELECT status FROM events WHERE id = ?", eventID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("event %s: %w", eventID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read event status: %w", c.dialect.classify(err))
	}
	return fmt.Errorf("event %s is %s: %w", eventID, status, storage.ErrConflict)
}

// sortedMembers returns a sorted copy without duplicates.
func sortedMembers(members []string) []string {
	out := make([]string, 0, len(members))
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}
