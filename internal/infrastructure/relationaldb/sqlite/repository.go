// Package sqlite provides a SQLite implementation of the CaseStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/provpack/internal/domain/entities"
	"github.com/ersonp/provpack/internal/infrastructure/config"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// Repository implements ports.CaseStore using SQLite.
type Repository struct {
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	// Pragmas in the DSN apply to every pooled connection, not just the first.
	dsn := cfg.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if cfg.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{
		db:   db,
		path: cfg.Path,
	}, nil
}

// NewRepositoryFromDB wraps an already opened database handle.
func NewRepositoryFromDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Cases (one per approved extraction)
	CREATE TABLE IF NOT EXISTS cases (
		id TEXT PRIMARY KEY,
		packet_id TEXT NOT NULL,
		deceased_name TEXT,
		person_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_cases_packet ON cases(packet_id);
	CREATE INDEX IF NOT EXISTS idx_cases_created ON cases(created_at);

	CREATE TABLE IF NOT EXISTS persons (
		id TEXT PRIMARY KEY,
		case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		primary_name TEXT NOT NULL,
		sort_key TEXT,
		gender TEXT NOT NULL CHECK (gender IN ('M', 'F', 'U')),
		birth_date TEXT,
		birth_place TEXT,
		death_date TEXT,
		death_place TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_persons_case ON persons(case_id);
	CREATE INDEX IF NOT EXISTS idx_persons_sort_key ON persons(sort_key);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		type TEXT NOT NULL,
		date TEXT,
		place TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_case ON events(case_id);

	CREATE TABLE IF NOT EXISTS event_participants (
		event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		person_id TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		PRIMARY KEY (event_id, position)
	);

	-- Relationships (directed edges between persons of one case)
	CREATE TABLE IF NOT EXISTS relationships (
		case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		type TEXT NOT NULL,
		from_person_id TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
		to_person_id TEXT NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
		PRIMARY KEY (case_id, position),
		CHECK (from_person_id <> to_person_id)
	);
	CREATE INDEX IF NOT EXISTS idx_relationships_from ON relationships(from_person_id);
	CREATE INDEX IF NOT EXISTS idx_relationships_to ON relationships(to_person_id);

	CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		repo TEXT NOT NULL,
		title TEXT NOT NULL,
		packet_id TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sources_case ON sources(case_id);

	CREATE TABLE IF NOT EXISTS citations (
		case_id TEXT NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		source_id TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
		page INTEGER NOT NULL CHECK (page > 0),
		field TEXT NOT NULL,
		bbox TEXT NOT NULL,
		confidence REAL NOT NULL CHECK (confidence >= 0 AND confidence <= 1),
		image_ref TEXT,
		PRIMARY KEY (case_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_citations_source ON citations(source_id);

	-- Audit log (tracks approvals and exports)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		case_id TEXT,
		details TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_case ON audit_log(case_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	CREATE INDEX IF NOT EXISTS idx_audit_log_created ON audit_log(created_at);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// CreateCase stores the whole case graph in one transaction. Any failure
// rolls the transaction back and is returned as *entities.PersistenceError.
func (r *Repository) CreateCase(ctx context.Context, c *entities.Case) (err error) {
	if c == nil {
		return errors.New("case is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &entities.PersistenceError{Op: "beginning transaction for", CaseID: c.CaseID, Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	summary := c.Summary()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO cases (id, packet_id, deceased_name, person_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.CaseID, c.PacketID, nullString(summary.DeceasedName), summary.PersonCount, timeNow(),
	); err != nil {
		return &entities.PersistenceError{Op: "inserting", CaseID: c.CaseID, Err: err}
	}

	for i, p := range c.Persons {
		var birthDate, birthPlace, deathDate, deathPlace sql.NullString
		if p.Birth != nil {
			birthDate, birthPlace = nullString(p.Birth.Date), nullString(p.Birth.Place)
		}
		if p.Death != nil {
			deathDate, deathPlace = nullString(p.Death.Date), nullString(p.Death.Place)
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO persons (id, case_id, position, primary_name, sort_key, gender, birth_date, birth_place, death_date, death_place)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, c.CaseID, i, p.PrimaryName, nullString(p.SortKey), string(p.Gender),
			birthDate, birthPlace, deathDate, deathPlace,
		); err != nil {
			return &entities.PersistenceError{Op: "inserting persons of", CaseID: c.CaseID, Err: err}
		}
	}

	for i, e := range c.Events {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO events (id, case_id, position, type, date, place) VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, c.CaseID, i, string(e.Type), nullString(e.Date), nullString(e.Place),
		); err != nil {
			return &entities.PersistenceError{Op: "inserting events of", CaseID: c.CaseID, Err: err}
		}
		for j, part := range e.Participants {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO event_participants (event_id, position, person_id, role) VALUES (?, ?, ?, ?)`,
				e.ID, j, part.PersonID, part.Role,
			); err != nil {
				return &entities.PersistenceError{Op: "inserting event participants of", CaseID: c.CaseID, Err: err}
			}
		}
	}

	for i, rel := range c.Relationships {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO relationships (case_id, position, type, from_person_id, to_person_id) VALUES (?, ?, ?, ?, ?)`,
			c.CaseID, i, string(rel.Type), rel.From, rel.To,
		); err != nil {
			return &entities.PersistenceError{Op: "inserting relationships of", CaseID: c.CaseID, Err: err}
		}
	}

	for i, s := range c.Sources {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO sources (id, case_id, position, repo, title, packet_id) VALUES (?, ?, ?, ?, ?, ?)`,
			s.ID, c.CaseID, i, s.Repo, s.Title, s.PacketID,
		); err != nil {
			return &entities.PersistenceError{Op: "inserting sources of", CaseID: c.CaseID, Err: err}
		}
	}

	for i, cit := range c.Citations {
		var bbox []byte
		bbox, err = json.Marshal(cit.BBox)
		if err != nil {
			return &entities.PersistenceError{Op: "encoding citations of", CaseID: c.CaseID, Err: err}
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO citations (case_id, position, source_id, page, field, bbox, confidence, image_ref)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.CaseID, i, cit.SourceID, cit.Page, cit.Field, string(bbox), cit.Confidence, nullString(cit.ImageRef),
		); err != nil {
			return &entities.PersistenceError{Op: "inserting citations of", CaseID: c.CaseID, Err: err}
		}
	}

	if err = tx.Commit(); err != nil {
		return &entities.PersistenceError{Op: "committing", CaseID: c.CaseID, Err: err}
	}
	return nil
}

// FindCase loads a case with its full graph.
func (r *Repository) FindCase(ctx context.Context, caseID string) (*entities.Case, error) {
	c := &entities.Case{CaseID: caseID}

	row := r.db.QueryRowContext(ctx, `SELECT packet_id FROM cases WHERE id = ?`, caseID)
	if err := row.Scan(&c.PacketID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("case %s: %w", caseID, entities.ErrCaseNotFound)
		}
		return nil, fmt.Errorf("scanning case: %w", err)
	}

	var err error
	if c.Persons, err = r.findPersons(ctx, caseID); err != nil {
		return nil, err
	}
	if c.Events, err = r.findEvents(ctx, caseID); err != nil {
		return nil, err
	}
	if c.Relationships, err = r.findRelationships(ctx, caseID); err != nil {
		return nil, err
	}
	if c.Sources, err = r.findSources(ctx, caseID); err != nil {
		return nil, err
	}
	if c.Citations, err = r.findCitations(ctx, caseID); err != nil {
		return nil, err
	}

	return c, nil
}

// ListCases lists stored cases, most recent first.
func (r *Repository) ListCases(ctx context.Context, limit, offset int) ([]entities.CaseSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT id, packet_id, deceased_name, person_count
		FROM cases
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}
	defer rows.Close()

	summaries := []entities.CaseSummary{}
	for rows.Next() {
		var s entities.CaseSummary
		var deceased sql.NullString
		if err := rows.Scan(&s.CaseID, &s.PacketID, &deceased, &s.PersonCount); err != nil {
			return nil, fmt.Errorf("scanning case summary: %w", err)
		}
		s.DeceasedName = deceased.String
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *Repository) findPersons(ctx context.Context, caseID string) ([]entities.Person, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, primary_name, sort_key, gender, birth_date, birth_place, death_date, death_place
		FROM persons
		WHERE case_id = ?
		ORDER BY position
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("querying persons: %w", err)
	}
	defer rows.Close()

	persons := []entities.Person{}
	for rows.Next() {
		var p entities.Person
		var gender string
		var sortKey, birthDate, birthPlace, deathDate, deathPlace sql.NullString
		if err := rows.Scan(&p.ID, &p.PrimaryName, &sortKey, &gender, &birthDate, &birthPlace, &deathDate, &deathPlace); err != nil {
			return nil, fmt.Errorf("scanning person: %w", err)
		}
		p.SortKey = sortKey.String
		p.Gender = entities.Gender(gender)
		p.Birth = vital(birthDate, birthPlace)
		p.Death = vital(deathDate, deathPlace)
		persons = append(persons, p)
	}
	return persons, rows.Err()
}

func (r *Repository) findEvents(ctx context.Context, caseID string) ([]entities.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, date, place
		FROM events
		WHERE case_id = ?
		ORDER BY position
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	events := []entities.Event{}
	index := make(map[string]int)
	for rows.Next() {
		var e entities.Event
		var eventType string
		var date, place sql.NullString
		if err := rows.Scan(&e.ID, &eventType, &date, &place); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Type = entities.EventType(eventType)
		e.Date = date.String
		e.Place = place.String
		e.Participants = []entities.Participant{}
		index[e.ID] = len(events)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := r.db.QueryContext(ctx, `
		SELECT ep.event_id, ep.person_id, ep.role
		FROM event_participants ep
		JOIN events e ON e.id = ep.event_id
		WHERE e.case_id = ?
		ORDER BY e.position, ep.position
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("querying event participants: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		var eventID string
		var p entities.Participant
		if err := prows.Scan(&eventID, &p.PersonID, &p.Role); err != nil {
			return nil, fmt.Errorf("scanning event participant: %w", err)
		}
		if i, ok := index[eventID]; ok {
			events[i].Participants = append(events[i].Participants, p)
		}
	}
	return events, prows.Err()
}

func (r *Repository) findRelationships(ctx context.Context, caseID string) ([]entities.Relationship, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT type, from_person_id, to_person_id
		FROM relationships
		WHERE case_id = ?
		ORDER BY position
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	rels := []entities.Relationship{}
	for rows.Next() {
		var rel entities.Relationship
		var relType string
		if err := rows.Scan(&relType, &rel.From, &rel.To); err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		rel.Type = entities.RelationType(relType)
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

func (r *Repository) findSources(ctx context.Context, caseID string) ([]entities.Source, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, repo, title, packet_id
		FROM sources
		WHERE case_id = ?
		ORDER BY position
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	sources := []entities.Source{}
	for rows.Next() {
		var s entities.Source
		if err := rows.Scan(&s.ID, &s.Repo, &s.Title, &s.PacketID); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func (r *Repository) findCitations(ctx context.Context, caseID string) ([]entities.Citation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT source_id, page, field, bbox, confidence, image_ref
		FROM citations
		WHERE case_id = ?
		ORDER BY position
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("querying citations: %w", err)
	}
	defer rows.Close()

	citations := []entities.Citation{}
	for rows.Next() {
		var cit entities.Citation
		var bbox string
		var imageRef sql.NullString
		if err := rows.Scan(&cit.SourceID, &cit.Page, &cit.Field, &bbox, &cit.Confidence, &imageRef); err != nil {
			return nil, fmt.Errorf("scanning citation: %w", err)
		}
		if err := json.Unmarshal([]byte(bbox), &cit.BBox); err != nil {
			return nil, fmt.Errorf("unmarshaling bbox: %w", err)
		}
		cit.ImageRef = imageRef.String
		citations = append(citations, cit)
	}
	return citations, rows.Err()
}

// LogAction logs an action to the audit log.
func (r *Repository) LogAction(ctx context.Context, action string, caseID string, details map[string]any) error {
	var detailsJSON sql.NullString
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `INSERT INTO audit_log (action, case_id, details, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, action, nullString(caseID), detailsJSON, timeNow())
	if err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// FindAuditLog finds audit log entries for a specific case.
func (r *Repository) FindAuditLog(ctx context.Context, caseID string) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, case_id, details, created_at
		FROM audit_log
		WHERE case_id = ?
		ORDER BY created_at DESC, id DESC
	`
	return r.queryAuditLog(ctx, query, caseID)
}

// FindAuditLogByAction finds audit log entries by action type.
func (r *Repository) FindAuditLogByAction(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	query := `
		SELECT id, action, case_id, details, created_at
		FROM audit_log
		WHERE action = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	return r.queryAuditLog(ctx, query, action, limit)
}

// queryAuditLog is a helper to execute audit log queries.
func (r *Repository) queryAuditLog(ctx context.Context, query string, args ...any) ([]entities.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var entry entities.AuditEntry
		var caseID, details sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&caseID,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		entry.CaseID = caseID.String

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func vital(date, place sql.NullString) *entities.Vital {
	if !date.Valid && !place.Valid {
		return nil
	}
	return &entities.Vital{Date: date.String, Place: place.String}
}
