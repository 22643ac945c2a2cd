// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
package sqlite_test

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/example/stakeout/internal/db"
)

var baseTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	testDB.SetMaxOpenConns(1)

	_, err = testDB.Exec(db.GetSchemaSQL())
	require.NoError(t, err, "failed to create schema")

	t.Cleanup(func() {
		testDB.Close()
	})
	return testDB
}

// seedUsers inserts agency-1, team-1 and the given users on that team.
func seedUsers(t *testing.T, testDB *sql.DB, userIDs ...string) {
	t.Helper()
	_, err := testDB.Exec("INSERT INTO agencies (id, name, created_at) VALUES ('agency-1', 'Metro PD', ?)", baseTime)
	require.NoError(t, err)
	_, err = testDB.Exec("INSERT INTO teams (id, agency_id, name, created_at) VALUES ('team-1', 'agency-1', 'North', ?)", baseTime)
	require.NoError(t, err)
	for _, id := range userIDs {
		_, err = testDB.Exec(
			"INSERT INTO users (id, team_id, agency_id, name, created_at) VALUES (?, 'team-1', 'agency-1', ?, ?)",
			id, "User "+id, baseTime)
		require.NoError(t, err)
	}
}

// seedOperation inserts an operation with caseAgentID as its case agent.
func seedOperation(t *testing.T, testDB *sql.DB, id, state, caseAgentID string) {
	t.Helper()
	_, err := testDB.Exec(
		`INSERT INTO operations (id, name, state, created_by_user_id, team_id, agency_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 'team-1', 'agency-1', ?, ?)`,
		id, "Op "+id, state, caseAgentID, baseTime, baseTime)
	require.NoError(t, err)
	_, err = testDB.Exec(
		`INSERT INTO operation_members (operation_id, user_id, role, joined_at) VALUES (?, ?, 'case_agent', ?)`,
		id, caseAgentID, baseTime)
	require.NoError(t, err)
}

// seedMember adds a plain member to an operation.
func seedMember(t *testing.T, testDB *sql.DB, operationID, userID string) {
	t.Helper()
	_, err := testDB.Exec(
		`INSERT INTO operation_members (operation_id, user_id, role, joined_at) VALUES (?, ?, 'member', ?)`,
		operationID, userID, baseTime)
	require.NoError(t, err)
}
