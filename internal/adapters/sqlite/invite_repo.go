package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/stakeout/internal/core/guard"
	"github.com/example/stakeout/internal/ports/secondary"
)

// InviteRepository implements secondary.InviteRepository with SQLite.
type InviteRepository struct {
	db *sql.DB
}

// NewInviteRepository creates a new SQLite invite repository.
func NewInviteRepository(db *sql.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

// Create persists a new invite.
func (r *InviteRepository) Create(ctx context.Context, invite *secondary.InviteRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO operation_invites (id, operation_id, inviter_user_id, invitee_user_id, status,
		                                created_at, expires_at, responded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		invite.ID, invite.OperationID, invite.InviterUserID, invite.InviteeUserID, invite.Status,
		invite.CreatedAt, invite.ExpiresAt, nullTime(invite.RespondedAt),
	)
	if err != nil {
		return storeErr("create invite", err)
	}
	return nil
}

const inviteColumns = `id, operation_id, inviter_user_id, invitee_user_id, status,
	created_at, expires_at, responded_at`

// GetByID retrieves an invite by its ID.
func (r *InviteRepository) GetByID(ctx context.Context, id string) (*secondary.InviteRecord, error) {
	record, err := scanInvite(r.db.QueryRowContext(ctx,
		"SELECT "+inviteColumns+" FROM operation_invites WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("invite", id)
	}
	if err != nil {
		return nil, storeErr("get invite", err)
	}
	return record, nil
}

// List retrieves invites matching the given filters, newest first.
func (r *InviteRepository) List(ctx context.Context, filters secondary.InviteFilters) ([]*secondary.InviteRecord, error) {
	var conditions []string
	var args []any
	if filters.OperationID != "" {
		conditions = append(conditions, "operation_id = ?")
		args = append(args, filters.OperationID)
	}
	if filters.InviteeUserID != "" {
		conditions = append(conditions, "invitee_user_id = ?")
		args = append(args, filters.InviteeUserID)
	}
	if filters.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filters.Status)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+inviteColumns+" FROM operation_invites"+where(conditions)+" ORDER BY created_at DESC",
		args...)
	if err != nil {
		return nil, storeErr("list invites", err)
	}
	defer rows.Close()

	var invites []*secondary.InviteRecord
	for rows.Next() {
		record, err := scanInvite(rows)
		if err != nil {
			return nil, storeErr("scan invite", err)
		}
		invites = append(invites, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list invites", err)
	}
	return invites, nil
}

// Accept marks the invite accepted and adds the member in one transaction.
func (r *InviteRepository) Accept(ctx context.Context, inviteID string, respondedAt time.Time, member *secondary.MemberRecord) error {
	return withTx(ctx, r.db, "accept invite", func(tx *sql.Tx) error {
		if err := respond(ctx, tx, inviteID, "accepted", respondedAt); err != nil {
			return err
		}
		if _, err := upsertMember(ctx, tx, member); err != nil {
			return err
		}
		return nil
	})
}

// Decline marks the invite declined.
func (r *InviteRepository) Decline(ctx context.Context, inviteID string, respondedAt time.Time) error {
	return withTx(ctx, r.db, "decline invite", func(tx *sql.Tx) error {
		return respond(ctx, tx, inviteID, "declined", respondedAt)
	})
}

// respond moves a pending invite to a terminal status.
func respond(ctx context.Context, tx *sql.Tx, inviteID, status string, respondedAt time.Time) error {
	result, err := tx.ExecContext(ctx,
		"UPDATE operation_invites SET status = ?, responded_at = ? WHERE id = ? AND status = 'pending'",
		status, respondedAt, inviteID,
	)
	if err != nil {
		return storeErr("respond to invite", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: invite %s is not pending", guard.ErrInvalidTransition, inviteID)
	}
	return nil
}

func scanInvite(row scanner) (*secondary.InviteRecord, error) {
	var respondedAt sql.NullTime
	record := &secondary.InviteRecord{}
	err := row.Scan(&record.ID, &record.OperationID, &record.InviterUserID, &record.InviteeUserID,
		&record.Status, &record.CreatedAt, &record.ExpiresAt, &respondedAt)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.ExpiresAt = record.ExpiresAt.UTC()
	record.RespondedAt = timePtr(respondedAt)
	return record, nil
}

// Ensure InviteRepository implements the interface.
var _ secondary.InviteRepository = (*InviteRepository)(nil)
