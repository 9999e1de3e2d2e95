package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// syncedTables lists the tables reported by TableCounts, in dependency order.
var syncedTables = []string{
	"members",
	"boards",
	"service_boards",
	"tickets",
	"time_entries",
	"projects",
	"project_tickets",
	"project_audits",
	"sync_ledger",
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS members (
	id          INTEGER PRIMARY KEY,
	identifier  TEXT NOT NULL,
	first_name  TEXT NOT NULL DEFAULT '',
	last_name   TEXT NOT NULL DEFAULT '',
	name        TEXT NOT NULL DEFAULT '',
	email       TEXT NOT NULL DEFAULT '',
	inactive    INTEGER NOT NULL DEFAULT 0,
	synced_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS boards (
	id          INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	category    TEXT NOT NULL CHECK (category IN ('service', 'project')),
	placeholder INTEGER NOT NULL DEFAULT 0,
	synced_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS service_boards (
	board_id    INTEGER PRIMARY KEY REFERENCES boards(id),
	name        TEXT NOT NULL,
	synced_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tickets (
	id              INTEGER PRIMARY KEY,
	summary         TEXT NOT NULL DEFAULT '',
	board_id        INTEGER NOT NULL REFERENCES boards(id),
	status          TEXT NOT NULL DEFAULT '',
	owner           TEXT NOT NULL DEFAULT '',
	company         TEXT NOT NULL DEFAULT '',
	type            TEXT NOT NULL DEFAULT '',
	priority        TEXT NOT NULL DEFAULT '',
	resources       TEXT NOT NULL DEFAULT '[]',
	date_entered    DATETIME,
	date_resolved   DATETIME,
	closed_date     DATETIME,
	closed          INTEGER NOT NULL DEFAULT 0,
	estimated_hours REAL,
	actual_hours    REAL,
	placeholder     INTEGER NOT NULL DEFAULT 0,
	synced_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS time_entries (
	id              INTEGER PRIMARY KEY,
	member_id       INTEGER NOT NULL REFERENCES members(id),
	ticket_id       INTEGER REFERENCES tickets(id),
	charge_to_type  TEXT NOT NULL DEFAULT '',
	hours           REAL NOT NULL DEFAULT 0,
	billable        INTEGER NOT NULL DEFAULT 0,
	notes           TEXT NOT NULL DEFAULT '',
	time_start      DATETIME,
	time_end        DATETIME,
	synced_at       DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id                 INTEGER PRIMARY KEY,
	name               TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT '',
	company            TEXT NOT NULL DEFAULT '',
	manager_identifier TEXT NOT NULL DEFAULT '',
	manager_name       TEXT NOT NULL DEFAULT '',
	board_name         TEXT NOT NULL DEFAULT '',
	estimated_start    DATETIME,
	estimated_end      DATETIME,
	actual_start       DATETIME,
	actual_end         DATETIME,
	percent_complete   REAL NOT NULL DEFAULT 0,
	actual_hours       REAL,
	budget_hours       REAL,
	closed             INTEGER NOT NULL DEFAULT 0,
	description        TEXT NOT NULL DEFAULT '',
	synced_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS project_tickets (
	id            INTEGER PRIMARY KEY,
	summary       TEXT NOT NULL DEFAULT '',
	project_id    INTEGER NOT NULL REFERENCES projects(id),
	project_name  TEXT NOT NULL DEFAULT '',
	phase_id      INTEGER,
	phase_name    TEXT NOT NULL DEFAULT '',
	board_id      INTEGER,
	board_name    TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT '',
	resources     TEXT NOT NULL DEFAULT '[]',
	budget_hours  REAL,
	actual_hours  REAL,
	date_entered  DATETIME,
	closed_date   DATETIME,
	closed        INTEGER NOT NULL DEFAULT 0,
	synced_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS project_audits (
	id              TEXT PRIMARY KEY,
	project_id      INTEGER NOT NULL REFERENCES projects(id),
	status          TEXT NOT NULL,
	previous_status TEXT NOT NULL DEFAULT '',
	changed_by      TEXT NOT NULL DEFAULT '',
	changed_at      DATETIME NOT NULL,
	message         TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_ledger (
	entity_type   TEXT PRIMARY KEY,
	last_sync_at  DATETIME,
	record_count  INTEGER NOT NULL DEFAULT 0,
	status        TEXT NOT NULL CHECK (status IN ('in_progress', 'success', 'failed')),
	error_message TEXT NOT NULL DEFAULT '',
	updated_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_members_identifier ON members(identifier COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_tickets_board_id ON tickets(board_id);
CREATE INDEX IF NOT EXISTS idx_time_entries_member_id ON time_entries(member_id);
CREATE INDEX IF NOT EXISTS idx_time_entries_ticket_id ON time_entries(ticket_id);
CREATE INDEX IF NOT EXISTS idx_projects_manager ON projects(manager_identifier COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_project_tickets_project_id ON project_tickets(project_id);
CREATE INDEX IF NOT EXISTS idx_project_audits_lookup ON project_audits(project_id, status, changed_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
