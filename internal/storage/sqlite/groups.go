package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/susu/internal/models"
	"github.com/mmynk/susu/internal/storage"
)

// CreateGroup persists a new group with its creator membership.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	// Generate ID if not set
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (id, name, created_by, next_collector, current_round, status,
		 contribution_amount, member_limit, cycle_frequency, start_date, created_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.Name, group.CreatedBy, group.NextCollector, group.CurrentRound, string(group.Status),
		group.ContributionAmount.String(), group.MemberLimit, string(group.CycleFrequency), group.StartDate,
		group.CreatedAt, group.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	if err := writeGroupChildren(ctx, tx, group); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetGroup retrieves a group by ID with members, pending requests and payments.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return loadGroup(ctx, s.db, groupID)
}

// ListGroupsForUser retrieves all groups the user belongs to, newest first.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = ?
		 ORDER BY g.created_at DESC, g.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	groups := make([]*models.Group, 0, len(ids))
	for _, id := range ids {
		group, err := loadGroup(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// SaveGroup writes the group's mutable state if its version is unchanged.
func (s *SQLiteStore) SaveGroup(ctx context.Context, group *models.Group) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE groups SET next_collector = ?, current_round = ?, status = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		group.NextCollector, group.CurrentRound, string(group.Status), group.ID, group.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM groups WHERE id = ?", group.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("group %s: %w", group.ID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check group existence: %w", err)
		}
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrVersionConflict)
	}

	for _, table := range []string{"group_members", "join_requests"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE group_id = ?", group.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := writeGroupChildren(ctx, tx, group); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	group.Version++
	return nil
}

// GetGroupByPaymentReference finds the group that owns a payment.
func (s *SQLiteStore) GetGroupByPaymentReference(ctx context.Context, reference string) (*models.Group, error) {
	var groupID string
	err := s.db.QueryRowContext(ctx, "SELECT group_id FROM payments WHERE reference = ?", reference).Scan(&groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %s: %w", reference, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up payment: %w", err)
	}
	return loadGroup(ctx, s.db, groupID)
}

// writeGroupChildren inserts members and requests and upserts payments.
// Payments are never deleted; only their status and settle time change.
func writeGroupChildren(ctx context.Context, tx *sql.Tx, group *models.Group) error {
	for i, userID := range group.CollectionOrder {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, user_id, position) VALUES (?, ?, ?)",
			group.ID, userID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}
	}

	for userID, requestedAt := range group.PendingRequests {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO join_requests (group_id, user_id, requested_at) VALUES (?, ?, ?)",
			group.ID, userID, requestedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert join request: %w", err)
		}
	}

	for i, p := range group.Payments {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO payments (reference, group_id, seq, payer, recipient, amount, round, status,
			 authorization_url, access_code, created_at, settled_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(reference) DO UPDATE SET status = excluded.status, settled_at = excluded.settled_at`,
			p.Reference, group.ID, i, p.Payer, p.Recipient, p.Amount.String(), p.Round, string(p.Status),
			p.AuthorizationURL, p.AccessCode, p.CreatedAt, p.SettledAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert payment: %w", err)
		}
	}
	return nil
}

func loadGroup(ctx context.Context, q querier, groupID string) (*models.Group, error) {
	group := &models.Group{PendingRequests: make(map[string]int64)}
	var status, frequency, amount string
	err := q.QueryRowContext(ctx,
		`SELECT id, name, created_by, next_collector, current_round, status, contribution_amount,
		 member_limit, cycle_frequency, start_date, created_at, version
		 FROM groups WHERE id = ?`,
		groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedBy, &group.NextCollector, &group.CurrentRound, &status, &amount,
		&group.MemberLimit, &frequency, &group.StartDate, &group.CreatedAt, &group.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	group.Status = models.GroupStatus(status)
	group.CycleFrequency = models.Frequency(frequency)
	if group.ContributionAmount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse contribution amount %q: %w", amount, err)
	}

	// Get members in join order
	rows, err := q.QueryContext(ctx,
		"SELECT user_id FROM group_members WHERE group_id = ? ORDER BY position",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		group.Members = append(group.Members, userID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	group.CollectionOrder = append([]string(nil), group.Members...)

	// Get pending join requests
	rows, err = q.QueryContext(ctx,
		"SELECT user_id, requested_at FROM join_requests WHERE group_id = ?",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get join requests: %w", err)
	}
	for rows.Next() {
		var userID string
		var requestedAt int64
		if err := rows.Scan(&userID, &requestedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan join request: %w", err)
		}
		group.PendingRequests[userID] = requestedAt
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate join requests: %w", err)
	}

	// Get payments in creation order
	rows, err = q.QueryContext(ctx,
		`SELECT reference, payer, recipient, amount, round, status, authorization_url, access_code,
		 created_at, settled_at
		 FROM payments WHERE group_id = ? ORDER BY seq`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p models.Payment
		var paymentAmount, paymentStatus string
		if err := rows.Scan(&p.Reference, &p.Payer, &p.Recipient, &paymentAmount, &p.Round, &paymentStatus,
			&p.AuthorizationURL, &p.AccessCode, &p.CreatedAt, &p.SettledAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		if p.Amount, err = decimal.NewFromString(paymentAmount); err != nil {
			return nil, fmt.Errorf("failed to parse payment amount %q: %w", paymentAmount, err)
		}
		p.Status = models.PaymentStatus(paymentStatus)
		group.Payments = append(group.Payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return group, nil
}
