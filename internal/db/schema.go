package db

// SchemaSQL is the complete schema for fresh stakeout installs.
// This schema reflects the current state after all migrations.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Adapter tests
// load it via GetSchemaSQL() instead of hardcoding CREATE TABLE statements, so
// a repository that references a missing column fails with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Identity
CREATE TABLE IF NOT EXISTS agencies (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS teams (
	id TEXT PRIMARY KEY,
	agency_id TEXT NOT NULL,
	name TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (agency_id) REFERENCES agencies(id)
);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	team_id TEXT NOT NULL,
	agency_id TEXT NOT NULL,
	name TEXT NOT NULL,
	callsign TEXT,
	vehicle_type TEXT,
	vehicle_color TEXT,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (team_id) REFERENCES teams(id),
	FOREIGN KEY (agency_id) REFERENCES agencies(id)
);

CREATE INDEX IF NOT EXISTS idx_users_team ON users(team_id);
CREATE INDEX IF NOT EXISTS idx_users_agency ON users(agency_id);

-- Operations
CREATE TABLE IF NOT EXISTS operations (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	incident_number TEXT,
	state TEXT NOT NULL CHECK(state IN ('draft', 'active', 'ended')) DEFAULT 'active',
	created_by_user_id TEXT NOT NULL,
	team_id TEXT,
	agency_id TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	starts_at DATETIME,
	ends_at DATETIME,
	FOREIGN KEY (created_by_user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_operations_agency_state ON operations(agency_id, state);

-- Roster. left_at set means the member left or was removed.
CREATE TABLE IF NOT EXISTS operation_members (
	operation_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	role TEXT NOT NULL CHECK(role IN ('case_agent', 'member')) DEFAULT 'member',
	joined_at DATETIME NOT NULL,
	left_at DATETIME,
	is_active INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (operation_id, user_id),
	FOREIGN KEY (operation_id) REFERENCES operations(id) ON DELETE CASCADE,
	FOREIGN KEY (user_id) REFERENCES users(id)
);

-- At most one current case agent per operation.
CREATE UNIQUE INDEX IF NOT EXISTS idx_operation_members_case_agent
	ON operation_members(operation_id) WHERE role = 'case_agent' AND left_at IS NULL;

-- Invites and join requests. Expiry is evaluated at read time, so pending
-- rows past expires_at stay pending in storage.
CREATE TABLE IF NOT EXISTS operation_invites (
	id TEXT PRIMARY KEY,
	operation_id TEXT NOT NULL,
	inviter_user_id TEXT NOT NULL,
	invitee_user_id TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('pending', 'accepted', 'declined', 'expired')) DEFAULT 'pending',
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL,
	responded_at DATETIME,
	FOREIGN KEY (operation_id) REFERENCES operations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_operation_invites_invitee ON operation_invites(invitee_user_id, status);
CREATE INDEX IF NOT EXISTS idx_operation_invites_operation ON operation_invites(operation_id);

CREATE TABLE IF NOT EXISTS join_requests (
	id TEXT PRIMARY KEY,
	operation_id TEXT NOT NULL,
	requester_user_id TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('pending', 'approved', 'denied', 'expired')) DEFAULT 'pending',
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL,
	responded_at DATETIME,
	responded_by_user_id TEXT,
	FOREIGN KEY (operation_id) REFERENCES operations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_join_requests_operation ON join_requests(operation_id, status);

-- Targets and their images
CREATE TABLE IF NOT EXISTS op_targets (
	id TEXT PRIMARY KEY,
	operation_id TEXT NOT NULL,
	kind TEXT NOT NULL CHECK(kind IN ('person', 'vehicle', 'location')),
	status TEXT NOT NULL CHECK(status IN ('pending', 'active', 'clear')) DEFAULT 'pending',
	fields TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL,
	FOREIGN KEY (operation_id) REFERENCES operations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_op_targets_operation ON op_targets(operation_id);

CREATE TABLE IF NOT EXISTS op_target_images (
	id TEXT PRIMARY KEY,
	target_id TEXT NOT NULL,
	storage_kind TEXT NOT NULL CHECK(storage_kind IN ('local', 'remote')),
	filename TEXT NOT NULL,
	remote_url TEXT,
	local_path TEXT,
	caption TEXT,
	width INTEGER,
	height INTEGER,
	byte_size INTEGER,
	position INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (target_id) REFERENCES op_targets(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_op_target_images_target ON op_target_images(target_id, position);

CREATE TABLE IF NOT EXISTS staging_points (
	id TEXT PRIMARY KEY,
	operation_id TEXT NOT NULL,
	label TEXT NOT NULL,
	address TEXT,
	lat REAL NOT NULL,
	lng REAL NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (operation_id) REFERENCES operations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_staging_points_operation ON staging_points(operation_id);

-- Assigned locations
CREATE TABLE IF NOT EXISTS assigned_locations (
	id TEXT PRIMARY KEY,
	operation_id TEXT NOT NULL,
	assigned_by_user_id TEXT NOT NULL,
	assigned_to_user_id TEXT NOT NULL,
	lat REAL NOT NULL,
	lng REAL NOT NULL,
	label TEXT,
	notes TEXT,
	status TEXT NOT NULL CHECK(status IN ('assigned', 'enRoute', 'arrived', 'cancelled')) DEFAULT 'assigned',
	assigned_at DATETIME NOT NULL,
	updated_at DATETIME,
	completed_at DATETIME,
	FOREIGN KEY (operation_id) REFERENCES operations(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_assigned_locations_assignee ON assigned_locations(operation_id, assigned_to_user_id, status);
`

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
