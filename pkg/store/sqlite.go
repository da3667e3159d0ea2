package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/menta2k/face-analyzer/pkg/recognition"
	"github.com/menta2k/face-analyzer/pkg/types"
)

// DB persists analysis records and enrolled faces in SQLite
type DB struct {
	conn *sqlx.DB
	mu   sync.RWMutex
}

// recordRow is the analysis_data column set
type recordRow struct {
	Timestamp     time.Time `db:"timestamp"`
	Gender        string    `db:"gender"`
	HairColor     string    `db:"hair_color"`
	EyeColor      string    `db:"eye_color"`
	Emotion       string    `db:"emotion"`
	Age           int       `db:"age"`
	ClothingColor string    `db:"clothing_color"`
}

// knownFaceRow is the known_faces column set
type knownFaceRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Embedding string    `db:"embedding"`
	CreatedAt time.Time `db:"created_at"`
}

// QueryFilter narrows the stored records returned by Query
type QueryFilter struct {
	Gender  string
	Emotion string
	MinAge  int
	MaxAge  int
	Since   time.Time
	Limit   int
}

// New opens (or creates) the database at dbPath and applies the schema
func New(dbPath string) (*DB, error) {
	conn, err := sqlx.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// NewWithConn wraps an open connection without applying the schema
func NewWithConn(conn *sqlx.DB) *DB {
	return &DB{conn: conn}
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analysis_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		gender TEXT,
		hair_color TEXT,
		eye_color TEXT,
		emotion TEXT,
		age INTEGER,
		clothing_color TEXT
	);

	CREATE TABLE IF NOT EXISTS known_faces (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		embedding TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_analysis_timestamp ON analysis_data(timestamp);
	CREATE INDEX IF NOT EXISTS idx_known_faces_name ON known_faces(name);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// InsertRecords writes a batch of records in one transaction
func (db *DB) InsertRecords(ctx context.Context, records []types.AttributeRecord) error {
	if len(records) == 0 {
		return nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO analysis_data (timestamp, gender, hair_color, eye_color, emotion, age, clothing_color)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		ts := r.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, ts.UTC(), r.Gender, r.HairColor, r.EyeColor, r.Emotion, r.Age, r.ClothingColor.String()); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Query returns stored records, newest first. HairRGB and EyeRGB are not persisted.
func (db *DB) Query(ctx context.Context, filter QueryFilter) ([]types.AttributeRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	query := `
		SELECT timestamp, gender, hair_color, eye_color, emotion, age, clothing_color
		FROM analysis_data
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.Gender != "" {
		query += " AND gender = ?"
		args = append(args, filter.Gender)
	}
	if filter.Emotion != "" {
		query += " AND emotion = ?"
		args = append(args, filter.Emotion)
	}
	if filter.MinAge > 0 {
		query += " AND age >= ?"
		args = append(args, filter.MinAge)
	}
	if filter.MaxAge > 0 {
		query += " AND age <= ?"
		args = append(args, filter.MaxAge)
	}
	if !filter.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since.UTC())
	}

	query += " ORDER BY timestamp DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var rows []recordRow
	if err := db.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	records := make([]types.AttributeRecord, 0, len(rows))
	for _, row := range rows {
		clothing, _ := ParseRGB(row.ClothingColor)
		records = append(records, types.AttributeRecord{
			Timestamp:     row.Timestamp,
			Gender:        row.Gender,
			HairColor:     row.HairColor,
			EyeColor:      row.EyeColor,
			Emotion:       row.Emotion,
			Age:           row.Age,
			ClothingColor: clothing,
		})
	}

	return records, nil
}

// Count returns the number of stored records
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var count int
	if err := db.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM analysis_data`); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// SaveKnownFace stores an enrolled embedding
func (db *DB) SaveKnownFace(ctx context.Context, face recognition.KnownFace) error {
	embedding, err := json.Marshal(face.Embedding)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO known_faces (id, name, embedding, created_at)
		VALUES (?, ?, ?, ?)
	`, face.ID, face.Name, string(embedding), face.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert known face: %w", err)
	}
	return nil
}

// LoadKnownFaces returns every enrolled embedding in enrollment order
func (db *DB) LoadKnownFaces(ctx context.Context) ([]recognition.KnownFace, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var rows []knownFaceRow
	if err := db.conn.SelectContext(ctx, &rows, `
		SELECT id, name, embedding, created_at FROM known_faces ORDER BY created_at, id
	`); err != nil {
		return nil, fmt.Errorf("failed to query known faces: %w", err)
	}

	faces := make([]recognition.KnownFace, 0, len(rows))
	for _, row := range rows {
		f := recognition.KnownFace{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt}
		if err := json.Unmarshal([]byte(row.Embedding), &f.Embedding); err != nil {
			return nil, fmt.Errorf("failed to decode embedding for %s: %w", f.Name, err)
		}
		faces = append(faces, f)
	}

	return faces, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// ParseRGB parses the "RGB(r, g, b)" rendering of a color
func ParseRGB(s string) (types.Color, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "RGB(%d, %d, %d)", &r, &g, &b); err != nil {
		return types.Black, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return types.Color{R: r, G: g, B: b}, nil
}
