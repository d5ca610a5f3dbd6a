package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/miyata-dev/campuscrawl/internal/model"
)

// dbFileName is the SQLite file created under the data directory.
const dbFileName = "campuscrawl.db"

// IdentityDB provides SQLite-based storage for resolved identities and
// the crawl audit logs. One file holds everything a run produces, so a
// crawl can be resumed or reported on from a single artifact.
type IdentityDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures IdentityDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended: the crawl
	// writes audit rows from several workers at once.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an IdentityDB under the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an
// error is returned; the report command uses that mode so it never
// creates an empty store by accident.
func Open(dbDir string, opts Options) (*IdentityDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer; serialize everything through a single
	// connection rather than racing on the file lock.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	idb := &IdentityDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := idb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return idb, nil
}

// Close closes the database connection.
func (idb *IdentityDB) Close() error {
	return idb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (idb *IdentityDB) createTables() error {
	schema := `
	-- Identities are the deduplicated output of the crawl. The three
	-- UNIQUE columns are the dedupe mechanism: inserting an already
	-- crawled id, directory id, or email is a no-op.
	CREATE TABLE IF NOT EXISTS identities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		crawl_id INTEGER NOT NULL UNIQUE,
		lk_id TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL,
		has_phone INTEGER NOT NULL,
		type TEXT NOT NULL,
		last_name TEXT NOT NULL,
		first_name TEXT NOT NULL,
		middle_name TEXT NOT NULL,
		is_timetable_available INTEGER NOT NULL,
		is_subordinates_available INTEGER NOT NULL,
		birth_date TEXT,
		source_id TEXT,
		internal_id TEXT,
		campus TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_identities_type ON identities(type);

	-- Employment records; chief and navigation sub-records are
	-- flattened into nullable columns.
	CREATE TABLE IF NOT EXISTS staff_positions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		identity_id INTEGER NOT NULL REFERENCES identities(id),
		unit_name TEXT NOT NULL,
		unit_id INTEGER NOT NULL,
		is_main INTEGER NOT NULL,
		position_name TEXT NOT NULL,
		chief_id TEXT,
		chief_full_name TEXT,
		chief_birth_date TEXT,
		chief_email TEXT,
		chief_avatar_url TEXT,
		chief_description TEXT,
		chief_has_phone INTEGER,
		chief_type TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_positions_identity ON staff_positions(identity_id);

	CREATE TABLE IF NOT EXISTS staff_addresses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		identity_id INTEGER NOT NULL REFERENCES identities(id),
		label TEXT NOT NULL,
		room_code TEXT NOT NULL,
		is_main INTEGER NOT NULL,
		presence_type TEXT,
		presence_time TEXT,
		phone_internal_ext TEXT,
		phone_internal_full TEXT,
		phone_work TEXT,
		navigation_room INTEGER,
		navigation_floor INTEGER,
		campus TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_addresses_identity ON staff_addresses(identity_id);

	CREATE TABLE IF NOT EXISTS educations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		identity_id INTEGER NOT NULL REFERENCES identities(id),
		university_title TEXT NOT NULL,
		start_year TEXT NOT NULL,
		degree_level TEXT NOT NULL,
		program_id TEXT NOT NULL,
		program_title TEXT NOT NULL,
		faculty_title TEXT NOT NULL,
		campus TEXT NOT NULL,
		group_id TEXT NOT NULL,
		group_title TEXT NOT NULL,
		smart_plan_program_id TEXT NOT NULL,
		degree TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_educations_identity ON educations(identity_id);

	-- Audit log: one row per profile-page fetch, written regardless of
	-- the outcome. The result column carries the resolved name for
	-- successes and the label or message for everything else.
	CREATE TABLE IF NOT EXISTS web_request_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		crawl_id INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		result TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_web_requests_crawl ON web_request_log(crawl_id);

	-- Audit log: one row per directory search, matches rendered as a
	-- single comma-joined string.
	CREATE TABLE IF NOT EXISTS directory_search_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		result TEXT NOT NULL
	);

	-- Error log for per-id pipeline failures. crawl_id is raw, no FK:
	-- failed ids have no identity row.
	CREATE TABLE IF NOT EXISTS error_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		crawl_id INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		error_type TEXT NOT NULL,
		message TEXT NOT NULL,
		stack_trace TEXT NOT NULL
	);
	`

	_, err := idb.db.ExecContext(context.Background(), schema)
	return err
}

// StoreIdentity inserts a resolved identity and all its sub-records in
// one transaction. The returned bool reports whether a new row was
// written: false means a unique constraint (crawl id, directory id, or
// email) matched an existing identity and the whole insert was skipped.
func (idb *IdentityDB) StoreIdentity(ctx context.Context, crawlID int, profile *model.IdentityProfile) (bool, error) {
	tx, err := idb.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx, `
	INSERT OR IGNORE INTO identities (
		crawl_id, lk_id, full_name, email, description, has_phone, type,
		last_name, first_name, middle_name,
		is_timetable_available, is_subordinates_available,
		birth_date, source_id, internal_id, campus
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		crawlID,
		profile.ID,
		profile.FullName,
		profile.Email,
		profile.Description,
		profile.HasPhone,
		profile.Type,
		profile.Names.LastName,
		profile.Names.FirstName,
		profile.Names.MiddleName,
		profile.IsTimetableAvailable,
		profile.IsSubordinatesAvailable,
		profile.BirthDate,
		profile.SourceID,
		profile.InternalID,
		profile.Campus,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert identity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	if affected == 0 {
		// Constraint hit: already stored under another crawl id or email.
		return false, nil
	}

	identityID, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to read identity id: %w", err)
	}

	for _, position := range profile.StaffPositions {
		var chiefID, chiefFullName, chiefBirthDate, chiefEmail, chiefAvatarURL, chiefDescription, chiefType *string
		var chiefHasPhone *bool
		if chief := position.Chief; chief != nil {
			chiefID = &chief.ID
			chiefFullName = &chief.FullName
			chiefBirthDate = chief.BirthDate
			chiefEmail = &chief.Email
			chiefAvatarURL = chief.AvatarURL
			chiefDescription = &chief.Description
			chiefHasPhone = &chief.HasPhone
			chiefType = &chief.Type
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO staff_positions (
			identity_id, unit_name, unit_id, is_main, position_name,
			chief_id, chief_full_name, chief_birth_date, chief_email,
			chief_avatar_url, chief_description, chief_has_phone, chief_type
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			identityID,
			position.UnitName,
			position.UnitID,
			position.IsMain,
			position.PositionName,
			chiefID, chiefFullName, chiefBirthDate, chiefEmail,
			chiefAvatarURL, chiefDescription, chiefHasPhone, chiefType,
		); err != nil {
			return false, fmt.Errorf("failed to insert staff position: %w", err)
		}
	}

	for _, address := range profile.StaffAddresses {
		var navigationRoom, navigationFloor *int
		if nav := address.Navigation; nav != nil {
			navigationRoom = &nav.Room
			navigationFloor = &nav.Floor
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO staff_addresses (
			identity_id, label, room_code, is_main,
			presence_type, presence_time,
			phone_internal_ext, phone_internal_full, phone_work,
			navigation_room, navigation_floor, campus
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			identityID,
			address.Label,
			address.RoomCode,
			address.IsMain,
			address.PresenceType,
			address.PresenceTime,
			address.PhoneInternalExt,
			address.PhoneInternalFull,
			address.PhoneWork,
			navigationRoom,
			navigationFloor,
			address.Campus,
		); err != nil {
			return false, fmt.Errorf("failed to insert staff address: %w", err)
		}
	}

	for _, education := range profile.Education {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO educations (
			identity_id, university_title, start_year, degree_level,
			program_id, program_title, faculty_title, campus,
			group_id, group_title, smart_plan_program_id, degree
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			identityID,
			education.UniversityTitle,
			education.StartYear,
			education.DegreeLevel,
			education.ProgramID,
			education.ProgramTitle,
			education.FacultyTitle,
			education.Campus,
			education.GroupID,
			education.GroupTitle,
			education.SmartPlanProgramID,
			education.Degree,
		); err != nil {
			return false, fmt.Errorf("failed to insert education: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit identity: %w", err)
	}
	return true, nil
}

// LogWebRequest appends the audit row for one profile-page fetch.
func (idb *IdentityDB) LogWebRequest(ctx context.Context, crawlID int, outcome model.ResolutionOutcome) error {
	_, err := idb.db.ExecContext(ctx, `
	INSERT INTO web_request_log (crawl_id, timestamp, outcome, result)
	VALUES (?, ?, ?, ?)`,
		crawlID, time.Now().UnixMilli(), outcome.Kind(), outcome.Label())
	if err != nil {
		return fmt.Errorf("failed to log web request: %w", err)
	}
	return nil
}

// LogDirectorySearch appends the audit row for one directory search.
// The matches are rendered into a single string, empty for no matches.
func (idb *IdentityDB) LogDirectorySearch(ctx context.Context, name string, matches []model.DirectoryMatch) error {
	_, err := idb.db.ExecContext(ctx, `
	INSERT INTO directory_search_log (name, timestamp, result)
	VALUES (?, ?, ?)`,
		name, time.Now().UnixMilli(), model.JoinMatches(matches))
	if err != nil {
		return fmt.Errorf("failed to log directory search: %w", err)
	}
	return nil
}

// LogError appends one pipeline failure. stack may be empty; it is only
// populated for recovered panics.
func (idb *IdentityDB) LogError(ctx context.Context, crawlID int, errorType, message, stack string) error {
	_, err := idb.db.ExecContext(ctx, `
	INSERT INTO error_log (crawl_id, timestamp, error_type, message, stack_trace)
	VALUES (?, ?, ?, ?, ?)`,
		crawlID, time.Now().UnixMilli(), errorType, message, stack)
	if err != nil {
		return fmt.Errorf("failed to log error: %w", err)
	}
	return nil
}

// MaxCrawlID returns the highest crawl id with a stored identity, or 0
// when the store is empty. The orchestrator derives its checkpoint
// from it.
func (idb *IdentityDB) MaxCrawlID(ctx context.Context) (int, error) {
	var maxID sql.NullInt64
	err := idb.db.QueryRowContext(ctx, `SELECT MAX(crawl_id) FROM identities`).Scan(&maxID)
	if err != nil {
		return 0, fmt.Errorf("failed to query max crawl id: %w", err)
	}
	if !maxID.Valid {
		return 0, nil
	}
	return int(maxID.Int64), nil
}
