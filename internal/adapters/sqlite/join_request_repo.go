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

// JoinRequestRepository implements secondary.JoinRequestRepository with SQLite.
type JoinRequestRepository struct {
	db *sql.DB
}

// NewJoinRequestRepository creates a new SQLite join request repository.
func NewJoinRequestRepository(db *sql.DB) *JoinRequestRepository {
	return &JoinRequestRepository{db: db}
}

// Create persists a new join request.
func (r *JoinRequestRepository) Create(ctx context.Context, request *secondary.JoinRequestRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO join_requests (id, operation_id, requester_user_id, status, created_at, expires_at,
		                            responded_at, responded_by_user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		request.ID, request.OperationID, request.RequesterUserID, request.Status,
		request.CreatedAt, request.ExpiresAt, nullTime(request.RespondedAt), nullString(request.RespondedByUserID),
	)
	if err != nil {
		return storeErr("create join request", err)
	}
	return nil
}

const joinRequestColumns = `id, operation_id, requester_user_id, status, created_at, expires_at,
	responded_at, responded_by_user_id`

// GetByID retrieves a join request by its ID.
func (r *JoinRequestRepository) GetByID(ctx context.Context, id string) (*secondary.JoinRequestRecord, error) {
	record, err := scanJoinRequest(r.db.QueryRowContext(ctx,
		"SELECT "+joinRequestColumns+" FROM join_requests WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("join request", id)
	}
	if err != nil {
		return nil, storeErr("get join request", err)
	}
	return record, nil
}

// List retrieves join requests matching the given filters, newest first.
func (r *JoinRequestRepository) List(ctx context.Context, filters secondary.JoinRequestFilters) ([]*secondary.JoinRequestRecord, error) {
	var conditions []string
	var args []any
	if filters.OperationID != "" {
		conditions = append(conditions, "operation_id = ?")
		args = append(args, filters.OperationID)
	}
	if filters.RequesterUserID != "" {
		conditions = append(conditions, "requester_user_id = ?")
		args = append(args, filters.RequesterUserID)
	}
	if filters.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filters.Status)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+joinRequestColumns+" FROM join_requests"+where(conditions)+" ORDER BY created_at DESC",
		args...)
	if err != nil {
		return nil, storeErr("list join requests", err)
	}
	defer rows.Close()

	var requests []*secondary.JoinRequestRecord
	for rows.Next() {
		record, err := scanJoinRequest(rows)
		if err != nil {
			return nil, storeErr("scan join request", err)
		}
		requests = append(requests, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list join requests", err)
	}
	return requests, nil
}

// Approve marks the request approved and adds the member in one transaction.
func (r *JoinRequestRepository) Approve(ctx context.Context, requestID, responderID string, respondedAt time.Time, member *secondary.MemberRecord) error {
	return withTx(ctx, r.db, "approve join request", func(tx *sql.Tx) error {
		if err := answer(ctx, tx, requestID, "approved", responderID, respondedAt); err != nil {
			return err
		}
		if _, err := upsertMember(ctx, tx, member); err != nil {
			return err
		}
		return nil
	})
}

// Deny marks the request denied.
func (r *JoinRequestRepository) Deny(ctx context.Context, requestID, responderID string, respondedAt time.Time) error {
	return withTx(ctx, r.db, "deny join request", func(tx *sql.Tx) error {
		return answer(ctx, tx, requestID, "denied", responderID, respondedAt)
	})
}

// answer moves a pending join request to a terminal status.
func answer(ctx context.Context, tx *sql.Tx, requestID, status, responderID string, respondedAt time.Time) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE join_requests SET status = ?, responded_at = ?, responded_by_user_id = ?
		 WHERE id = ? AND status = 'pending'`,
		status, respondedAt, responderID, requestID,
	)
	if err != nil {
		return storeErr("answer join request", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: join request %s is not pending", guard.ErrInvalidTransition, requestID)
	}
	return nil
}

func scanJoinRequest(row scanner) (*secondary.JoinRequestRecord, error) {
	var (
		respondedAt sql.NullTime
		respondedBy sql.NullString
	)
	record := &secondary.JoinRequestRecord{}
	err := row.Scan(&record.ID, &record.OperationID, &record.RequesterUserID, &record.Status,
		&record.CreatedAt, &record.ExpiresAt, &respondedAt, &respondedBy)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.ExpiresAt = record.ExpiresAt.UTC()
	record.RespondedAt = timePtr(respondedAt)
	record.RespondedByUserID = respondedBy.String
	return record, nil
}

// Ensure JoinRequestRepository implements the interface.
var _ secondary.JoinRequestRepository = (*JoinRequestRepository)(nil)
