package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	_ "modernc.org/sqlite"

	catalog "github.com/phillip/eventhub-go/catalog"
	models "github.com/phillip/eventhub-go/models"
)

const dateLayout = "2006-01-02"

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database and creates the schema if needed.
func NewSQLiteStore(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serialises writers and avoids "database is locked".
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		name TEXT NOT NULL,
		venue TEXT NOT NULL,
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		capacity INTEGER NOT NULL CHECK (capacity >= 0),
		description TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS registrants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		email_key TEXT NOT NULL,
		phone TEXT NOT NULL,
		registered_at DATETIME NOT NULL,
		UNIQUE(event_id, email_key)
	);

	CREATE TABLE IF NOT EXISTS photos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		uri TEXT NOT NULL
	);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, venue, date, time, capacity, description, status, created_at, updated_at
		FROM events ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	events := make([]models.Event, 0)
	index := map[string]int{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[ev.ID] = len(events)
		events = append(events, ev)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	regs, err := s.db.QueryContext(ctx, `SELECT event_id, name, email, phone, registered_at FROM registrants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list registrants: %w", err)
	}
	for regs.Next() {
		var eventID string
		var r models.Registrant
		if err := regs.Scan(&eventID, &r.Name, &r.Email, &r.Phone, &r.RegisteredAt); err != nil {
			regs.Close()
			return nil, err
		}
		if i, ok := index[eventID]; ok {
			events[i].RegisteredUsers = append(events[i].RegisteredUsers, r)
		}
	}
	regs.Close()
	if err := regs.Err(); err != nil {
		return nil, err
	}

	photos, err := s.db.QueryContext(ctx, `SELECT event_id, uri FROM photos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer photos.Close()
	for photos.Next() {
		var eventID, uri string
		if err := photos.Scan(&eventID, &uri); err != nil {
			return nil, err
		}
		if i, ok := index[eventID]; ok {
			events[i].Photos = append(events[i].Photos, uri)
		}
	}
	return events, photos.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (models.Event, error) {
	var ev models.Event
	var date string
	if err := row.Scan(&ev.ID, &ev.Name, &ev.Venue, &date, &ev.Time, &ev.Capacity,
		&ev.Description, &ev.Status, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Event{}, ErrNotFound
		}
		return models.Event{}, err
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return models.Event{}, fmt.Errorf("event %s: bad date %q: %w", ev.ID, date, err)
	}
	ev.Date = d
	return withDefaults(ev), nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (models.Event, error) {
	if _, err := parseID(id); err != nil {
		return models.Event{}, err
	}
	return s.get(ctx, s.db, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLiteStore) get(ctx context.Context, q querier, id string) (models.Event, error) {
	ev, err := scanEvent(q.QueryRowContext(ctx, `
		SELECT id, name, venue, date, time, capacity, description, status, created_at, updated_at
		FROM events WHERE id = ?`, id))
	if err != nil {
		return models.Event{}, err
	}

	regs, err := q.QueryContext(ctx, `
		SELECT name, email, phone, registered_at FROM registrants WHERE event_id = ? ORDER BY id`, id)
	if err != nil {
		return models.Event{}, fmt.Errorf("get registrants: %w", err)
	}
	for regs.Next() {
		var r models.Registrant
		if err := regs.Scan(&r.Name, &r.Email, &r.Phone, &r.RegisteredAt); err != nil {
			regs.Close()
			return models.Event{}, err
		}
		ev.RegisteredUsers = append(ev.RegisteredUsers, r)
	}
	regs.Close()
	if err := regs.Err(); err != nil {
		return models.Event{}, err
	}

	ev.Photos, err = s.photoURIs(ctx, q, id)
	if err != nil {
		return models.Event{}, err
	}
	return ev, nil
}

func (s *SQLiteStore) photoURIs(ctx context.Context, q querier, id string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT uri FROM photos WHERE event_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("get photos: %w", err)
	}
	defer rows.Close()
	uris := []string{}
	for rows.Next() {
		var uri string
		if err := rows.Scan(&uri); err != nil {
			return nil, err
		}
		uris = append(uris, uri)
	}
	return uris, rows.Err()
}

func (s *SQLiteStore) Create(ctx context.Context, in models.EventInput) (models.Event, error) {
	id := primitive.NewObjectID().Hex()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, seq, name, venue, date, time, capacity, description, status, created_at, updated_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM events), ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.Name, in.Venue, in.Date.Format(dateLayout), in.Time, in.Capacity, in.Description, in.Status, now, now)
	if err != nil {
		return models.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return s.get(ctx, s.db, id)
}

func (s *SQLiteStore) Update(ctx context.Context, id string, in models.EventInput) (models.Event, error) {
	if _, err := parseID(id); err != nil {
		return models.Event{}, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE events SET name = ?, venue = ?, date = ?, time = ?, capacity = ?, description = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		in.Name, in.Venue, in.Date.Format(dateLayout), in.Time, in.Capacity, in.Description, in.Status, time.Now().UTC(), id)
	if err != nil {
		return models.Event{}, fmt.Errorf("update event: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.Event{}, err
	} else if n == 0 {
		return models.Event{}, ErrNotFound
	}
	return s.get(ctx, s.db, id)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (models.Event, error) {
	if _, err := parseID(id); err != nil {
		return models.Event{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	ev, err := s.get(ctx, tx, id)
	if err != nil {
		return models.Event{}, err
	}
	for _, q := range []string{
		`DELETE FROM registrants WHERE event_id = ?`,
		`DELETE FROM photos WHERE event_id = ?`,
		`DELETE FROM events WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return models.Event{}, fmt.Errorf("delete event: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return models.Event{}, fmt.Errorf("commit: %w", err)
	}
	return ev, nil
}

func (s *SQLiteStore) Register(ctx context.Context, id string, r models.Registrant) (models.Event, error) {
	if _, err := parseID(id); err != nil {
		return models.Event{}, err
	}
	r.Email = strings.TrimSpace(r.Email)
	key := NormalizeEmail(r.Email)
	if r.RegisteredAt.IsZero() {
		r.RegisteredAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE id = ?`, id).Scan(&exists); err != nil {
		return models.Event{}, fmt.Errorf("check event: %w", err)
	}
	if exists == 0 {
		return models.Event{}, ErrNotFound
	}

	var dup int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrants WHERE event_id = ? AND email_key = ?`, id, key).Scan(&dup); err != nil {
		return models.Event{}, fmt.Errorf("check registrant: %w", err)
	}
	if dup > 0 {
		return models.Event{}, ErrAlreadyRegistered
	}

	// Conditional insert: only succeeds while the event still has room.
	res, err := tx.ExecContext(ctx, `
		INSERT INTO registrants (event_id, name, email, email_key, phone, registered_at)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE (SELECT COUNT(*) FROM registrants WHERE event_id = ?) < (SELECT capacity FROM events WHERE id = ?)`,
		id, r.Name, r.Email, key, r.Phone, r.RegisteredAt, id, id)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return models.Event{}, ErrAlreadyRegistered
		}
		return models.Event{}, fmt.Errorf("insert registrant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Event{}, err
	}
	if n == 0 {
		return models.Event{}, ErrEventFull
	}

	if _, err := tx.ExecContext(ctx, `UPDATE events SET updated_at = ? WHERE id = ?`, time.Now().UTC(), id); err != nil {
		return models.Event{}, fmt.Errorf("touch event: %w", err)
	}
	ev, err := s.get(ctx, tx, id)
	if err != nil {
		return models.Event{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Event{}, fmt.Errorf("commit: %w", err)
	}
	return ev, nil
}

func (s *SQLiteStore) AddPhotos(ctx context.Context, id string, uris []string) (models.Event, error) {
	if _, err := parseID(id); err != nil {
		return models.Event{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE events SET updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return models.Event{}, fmt.Errorf("touch event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Event{}, ErrNotFound
	}
	for _, uri := range uris {
		if _, err := tx.ExecContext(ctx, `INSERT INTO photos (event_id, uri) VALUES (?, ?)`, id, uri); err != nil {
			return models.Event{}, fmt.Errorf("insert photo: %w", err)
		}
	}
	ev, err := s.get(ctx, tx, id)
	if err != nil {
		return models.Event{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Event{}, fmt.Errorf("commit: %w", err)
	}
	return ev, nil
}

func (s *SQLiteStore) RemovePhoto(ctx context.Context, id string, index int) (string, error) {
	if _, err := parseID(id); err != nil {
		return "", err
	}
	if index < 0 {
		return "", catalog.ErrPhotoIndex
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE id = ?`, id).Scan(&exists); err != nil {
		return "", fmt.Errorf("check event: %w", err)
	}
	if exists == 0 {
		return "", ErrNotFound
	}

	var photoID int64
	var uri string
	err = tx.QueryRowContext(ctx,
		`SELECT id, uri FROM photos WHERE event_id = ? ORDER BY id LIMIT 1 OFFSET ?`, id, index).Scan(&photoID, &uri)
	if errors.Is(err, sql.ErrNoRows) {
		return "", catalog.ErrPhotoIndex
	}
	if err != nil {
		return "", fmt.Errorf("find photo: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, photoID); err != nil {
		return "", fmt.Errorf("delete photo: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE events SET updated_at = ? WHERE id = ?`, time.Now().UTC(), id); err != nil {
		return "", fmt.Errorf("touch event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return uri, nil
}
