package data

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/exhibit-guide/model"
	"github.com/khaledhikmat/exhibit-guide/service/config"
)

const (
	dbSqlite   = "sqlite"
	dbPostgres = "postgres"

	defaultRetrieveLimit = 50
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS exhibit_events (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		title TEXT,
		short_description TEXT,
		probability DOUBLE PRECISION NOT NULL,
		bounding_box TEXT NOT NULL,
		camera TEXT NOT NULL,
		snapshot_url TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_exhibit_events_label ON exhibit_events (label)`,
	`CREATE TABLE IF NOT EXISTS descriptions (
		id TEXT PRIMARY KEY,
		label TEXT,
		text TEXT NOT NULL,
		manual BOOLEAN NOT NULL,
		fallback BOOLEAN NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS errors (
		id TEXT PRIMARY KEY,
		processor TEXT,
		message TEXT NOT NULL,
		inner_error TEXT,
		stack_trace TEXT,
		misc TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stats (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
}

type sqlDBService struct {
	conn   *sql.DB
	dbType string
}

// NewSQL opens the configured database (sqlite or postgres) and makes sure
// the tables exist.
func NewSQL(cfgsvc config.IService) (IService, error) {
	params := cfgsvc.GetDatabaseParameters()

	var conn *sql.DB
	var err error

	switch params.Type {
	case dbSqlite:
		conn, err = sql.Open("sqlite3", params.Path)
	case dbPostgres:
		conn, err = sql.Open("pgx", params.DSN)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", params.Type)
	}
	if err != nil {
		return nil, xerrors.Errorf("failed to open database: %w", err)
	}

	if params.Type == dbSqlite {
		// sqlite serializes writers anyway
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, xerrors.Errorf("failed to ping database: %w", err)
	}

	svc := &sqlDBService{conn: conn, dbType: params.Type}
	if err := svc.createTables(); err != nil {
		conn.Close()
		return nil, xerrors.Errorf("failed to create tables: %w", err)
	}

	return svc, nil
}

func (svc *sqlDBService) createTables() error {
	for _, stmt := range schema {
		if _, err := svc.conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind turns ? placeholders into $n for postgres.
func (svc *sqlDBService) rebind(query string) string {
	if svc.dbType != dbPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (svc *sqlDBService) NewExhibitEvent(evt model.ExhibitEvent) error {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	box, err := json.Marshal(evt.BoundingBox)
	if err != nil {
		return xerrors.Errorf("failed to marshal bounding box: %w", err)
	}

	query := svc.rebind(`INSERT INTO exhibit_events (
		id, label, title, short_description, probability, bounding_box, camera, snapshot_url, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = svc.conn.Exec(query,
		evt.ID,
		evt.Label,
		evt.Title,
		evt.ShortDescription,
		evt.Probability,
		string(box),
		evt.Camera,
		evt.SnapshotURL,
		evt.Timestamp.UTC(),
	)
	if err != nil {
		return xerrors.Errorf("failed to insert exhibit event: %w", err)
	}

	return nil
}

func (svc *sqlDBService) RetrieveExhibitEvents(limit int) ([]model.ExhibitEvent, error) {
	query := svc.rebind(`SELECT id, label, title, short_description, probability, bounding_box, camera, snapshot_url, created_at
		FROM exhibit_events ORDER BY created_at DESC LIMIT ?`)
	return svc.queryExhibitEvents(query, normalizeLimit(limit))
}

func (svc *sqlDBService) RetrieveExhibitEventsByLabel(label string, limit int) ([]model.ExhibitEvent, error) {
	query := svc.rebind(`SELECT id, label, title, short_description, probability, bounding_box, camera, snapshot_url, created_at
		FROM exhibit_events WHERE LOWER(label) = LOWER(?) ORDER BY created_at DESC LIMIT ?`)
	return svc.queryExhibitEvents(query, label, normalizeLimit(limit))
}

func (svc *sqlDBService) queryExhibitEvents(query string, args ...interface{}) ([]model.ExhibitEvent, error) {
	rows, err := svc.conn.Query(query, args...)
	if err != nil {
		return nil, xerrors.Errorf("failed to query exhibit events: %w", err)
	}
	defer rows.Close()

	events := []model.ExhibitEvent{}
	for rows.Next() {
		var evt model.ExhibitEvent
		var title, short, snapshot sql.NullString
		var box string

		if err := rows.Scan(&evt.ID, &evt.Label, &title, &short, &evt.Probability, &box, &evt.Camera, &snapshot, &evt.Timestamp); err != nil {
			return nil, xerrors.Errorf("failed to scan exhibit event: %w", err)
		}

		if err := json.Unmarshal([]byte(box), &evt.BoundingBox); err != nil {
			return nil, xerrors.Errorf("failed to unmarshal bounding box: %w", err)
		}

		evt.Title = title.String
		evt.ShortDescription = short.String
		evt.SnapshotURL = snapshot.String
		events = append(events, evt)
	}

	return events, rows.Err()
}

func (svc *sqlDBService) NewDescription(d model.Description) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}

	query := svc.rebind(`INSERT INTO descriptions (id, label, text, manual, fallback, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)

	_, err := svc.conn.Exec(query, d.ID, d.Label, d.Text, d.Manual, d.Fallback, d.Timestamp.UTC())
	if err != nil {
		return xerrors.Errorf("failed to insert description: %w", err)
	}

	return nil
}

func (svc *sqlDBService) RetrieveDescriptions(limit int) ([]model.Description, error) {
	query := svc.rebind(`SELECT id, label, text, manual, fallback, created_at
		FROM descriptions ORDER BY created_at DESC LIMIT ?`)

	rows, err := svc.conn.Query(query, normalizeLimit(limit))
	if err != nil {
		return nil, xerrors.Errorf("failed to query descriptions: %w", err)
	}
	defer rows.Close()

	descriptions := []model.Description{}
	for rows.Next() {
		var d model.Description
		var label sql.NullString
		if err := rows.Scan(&d.ID, &label, &d.Text, &d.Manual, &d.Fallback, &d.Timestamp); err != nil {
			return nil, xerrors.Errorf("failed to scan description: %w", err)
		}
		d.Label = label.String
		descriptions = append(descriptions, d)
	}

	return descriptions, rows.Err()
}

// NewError persists anything that shows up on an error stream. CustomError
// values keep their processor, stack and misc fields.
func (svc *sqlDBService) NewError(err interface{}) error {
	var processor, message, inner, stack string
	var misc map[string]interface{}

	switch e := err.(type) {
	case model.CustomError:
		processor = e.Processor
		message = e.Message
		stack = e.StackTrace
		misc = e.Misc
		if e.Inner != nil {
			inner = e.Inner.Error()
		}
	case error:
		message = e.Error()
	default:
		message = fmt.Sprintf("%v", e)
	}

	miscJSON, jerr := json.Marshal(misc)
	if jerr != nil {
		miscJSON = []byte("{}")
	}

	query := svc.rebind(`INSERT INTO errors (id, processor, message, inner_error, stack_trace, misc, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, qerr := svc.conn.Exec(query, uuid.NewString(), processor, message, inner, stack, string(miscJSON), time.Now().UTC())
	if qerr != nil {
		return xerrors.Errorf("failed to insert error: %w", qerr)
	}

	return nil
}

func (svc *sqlDBService) NewDetectorStats(stats model.DetectorStats) error {
	return svc.newStats("detector", stats.Name, stats)
}

func (svc *sqlDBService) NewFramerStats(stats model.FramerStats) error {
	return svc.newStats("framer", stats.Name, stats)
}

func (svc *sqlDBService) NewAlerterStats(stats model.AlerterStats) error {
	return svc.newStats("alerter", stats.Name, stats)
}

func (svc *sqlDBService) newStats(kind, name string, stats interface{}) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return xerrors.Errorf("failed to marshal %s stats: %w", kind, err)
	}

	query := svc.rebind(`INSERT INTO stats (id, kind, name, payload, created_at) VALUES (?, ?, ?, ?, ?)`)
	if _, err := svc.conn.Exec(query, uuid.NewString(), kind, name, string(payload), time.Now().UTC()); err != nil {
		return xerrors.Errorf("failed to insert %s stats: %w", kind, err)
	}

	return nil
}

func (svc *sqlDBService) Close() error {
	return svc.conn.Close()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultRetrieveLimit
	}
	return limit
}
