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

// MemberRepository implements secondary.MemberRepository with SQLite.
type MemberRepository struct {
	db *sql.DB
}

// NewMemberRepository creates a new SQLite member repository.
func NewMemberRepository(db *sql.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberColumns = "operation_id, user_id, role, joined_at, left_at, is_active"

// Get retrieves one membership row, active or left.
func (r *MemberRepository) Get(ctx context.Context, operationID, userID string) (*secondary.MemberRecord, error) {
	record, err := scanMember(r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM operation_members WHERE operation_id = ? AND user_id = ?",
		operationID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("membership", operationID+"/"+userID)
	}
	if err != nil {
		return nil, storeErr("get membership", err)
	}
	return record, nil
}

// List retrieves the roster, case agent first, then by join time.
func (r *MemberRepository) List(ctx context.Context, operationID string, includeLeft bool) ([]*secondary.MemberRecord, error) {
	query := "SELECT " + memberColumns + " FROM operation_members WHERE operation_id = ?"
	if !includeLeft {
		query += " AND left_at IS NULL"
	}
	query += " ORDER BY role = 'case_agent' DESC, joined_at ASC, user_id ASC"

	rows, err := r.db.QueryContext(ctx, query, operationID)
	if err != nil {
		return nil, storeErr("list members", err)
	}
	defer rows.Close()

	var members []*secondary.MemberRecord
	for rows.Next() {
		record, err := scanMember(rows)
		if err != nil {
			return nil, storeErr("scan member", err)
		}
		members = append(members, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list members", err)
	}
	return members, nil
}

// CaseAgent returns the current case agent, or nil if none.
func (r *MemberRepository) CaseAgent(ctx context.Context, operationID string) (*secondary.MemberRecord, error) {
	record, err := scanMember(r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+` FROM operation_members
		 WHERE operation_id = ? AND role = 'case_agent' AND left_at IS NULL`,
		operationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get case agent", err)
	}
	return record, nil
}

// Add inserts memberships in one transaction, re-activating members who had
// left. Rows that are already current are left untouched and not counted.
func (r *MemberRepository) Add(ctx context.Context, members []*secondary.MemberRecord) (int, error) {
	added := 0
	err := withTx(ctx, r.db, "add members", func(tx *sql.Tx) error {
		for _, m := range members {
			ok, err := upsertMember(ctx, tx, m)
			if err != nil {
				return err
			}
			if ok {
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// MarkLeft sets left_at and clears is_active.
func (r *MemberRepository) MarkLeft(ctx context.Context, operationID, userID string, leftAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE operation_members SET left_at = ?, is_active = 0
		 WHERE operation_id = ? AND user_id = ? AND left_at IS NULL`,
		leftAt, operationID, userID,
	)
	if err != nil {
		return storeErr("mark member left", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %s is not a member of operation %s", guard.ErrNotAMember, userID, operationID)
	}
	return nil
}

// Transfer demotes fromID and promotes toID in one transaction, so the
// operation never has zero or two case agents.
func (r *MemberRepository) Transfer(ctx context.Context, operationID, fromID, toID string) error {
	return withTx(ctx, r.db, "transfer case agent", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE operation_members SET role = 'member'
			 WHERE operation_id = ? AND user_id = ? AND role = 'case_agent' AND left_at IS NULL`,
			operationID, fromID,
		)
		if err != nil {
			return storeErr("demote case agent", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: user %s is not the case agent of operation %s", guard.ErrNotCaseAgent, fromID, operationID)
		}

		result, err = tx.ExecContext(ctx,
			`UPDATE operation_members SET role = 'case_agent'
			 WHERE operation_id = ? AND user_id = ? AND left_at IS NULL`,
			operationID, toID,
		)
		if err != nil {
			return storeErr("promote case agent", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: user %s is not a member of operation %s", guard.ErrNotAMember, toID, operationID)
		}
		return nil
	})
}

// SetPublishing toggles whether a member is publishing location.
func (r *MemberRepository) SetPublishing(ctx context.Context, operationID, userID string, active bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE operation_members SET is_active = ? WHERE operation_id = ? AND user_id = ? AND left_at IS NULL",
		active, operationID, userID,
	)
	if err != nil {
		return storeErr("set publishing", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %s is not a member of operation %s", guard.ErrNotAMember, userID, operationID)
	}
	return nil
}

// upsertMember inserts a membership or re-activates a left one. It reports
// whether the row became a current member.
func upsertMember(ctx context.Context, tx *sql.Tx, m *secondary.MemberRecord) (bool, error) {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO operation_members (operation_id, user_id, role, joined_at, left_at, is_active)
		 VALUES (?, ?, ?, ?, NULL, ?)
		 ON CONFLICT(operation_id, user_id) DO UPDATE SET
			role = excluded.role,
			joined_at = excluded.joined_at,
			left_at = NULL,
			is_active = excluded.is_active
		 WHERE operation_members.left_at IS NOT NULL`,
		m.OperationID, m.UserID, m.Role, m.JoinedAt, m.IsActive,
	)
	if err != nil {
		return false, storeErr("add member", err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func scanMember(row scanner) (*secondary.MemberRecord, error) {
	var leftAt sql.NullTime
	record := &secondary.MemberRecord{}
	err := row.Scan(&record.OperationID, &record.UserID, &record.Role, &record.JoinedAt, &leftAt, &record.IsActive)
	if err != nil {
		return nil, err
	}
	record.JoinedAt = record.JoinedAt.UTC()
	record.LeftAt = timePtr(leftAt)
	return record, nil
}

// Ensure MemberRepository implements the interface.
var _ secondary.MemberRepository = (*MemberRepository)(nil)
