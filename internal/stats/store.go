package stats

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/ledwall/internal/display"
)

// Store records per-frame transport statistics in sqlite. One Store serves
// one render session; each session gets a UUID so multiple runs against the
// same database file stay distinguishable.
type Store struct {
	*sql.DB
	sessionID string
}

// FrameRecord is one transmitted frame's stats row.
type FrameRecord struct {
	SessionID  string
	Frame      int
	Mode       string
	Dirty      int
	Packets    int
	Bytes      int
	RenderTime time.Duration
	Timestamp  time.Time
}

// SessionSummary aggregates one session's rows.
type SessionSummary struct {
	SessionID   string
	Scene       string
	Frames      int
	TotalBytes  int64
	FullFrames  int
	SparseCount int
	StartedAt   time.Time
}

// NewStore opens (or creates) the stats database at path and starts a new
// session for the given scene name.
func NewStore(path, scene string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats db: %w", err)
	}

	s := &Store{
		DB:        db,
		sessionID: uuid.NewString(),
	}

	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	_, err = s.Exec(
		`INSERT INTO sessions (session_id, scene, started_at) VALUES (?, ?, ?)`,
		s.sessionID, scene, time.Now().UTC(),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return s, nil
}

// SessionID returns this store's session identifier.
func (s *Store) SessionID() string {
	return s.sessionID
}

// ensureSchema creates the base tables when migrations have not been run.
// The schema here must match migrations/000001_init.up.sql.
func (s *Store) ensureSchema() error {
	_, err := s.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id        TEXT PRIMARY KEY,
			scene             TEXT,
			started_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS frames (
			session_id        TEXT,
			frame             BIGINT,
			mode              TEXT,
			dirty             BIGINT,
			packets           BIGINT,
			bytes             BIGINT,
			render_time_ns    BIGINT,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE INDEX IF NOT EXISTS idx_frames_session ON frames(session_id, frame);
	`)
	if err != nil {
		return fmt.Errorf("failed to create stats schema: %w", err)
	}
	return nil
}

// RecordFrame inserts one frame row for the current session.
func (s *Store) RecordFrame(frame int, report display.FrameReport, renderTime time.Duration) error {
	_, err := s.Exec(
		`INSERT INTO frames (session_id, frame, mode, dirty, packets, bytes, render_time_ns, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.sessionID, frame, report.Mode, report.Dirty, report.Packets, report.Bytes,
		renderTime.Nanoseconds(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record frame %d: %v", frame, err)
	}
	return nil
}

// Frames returns all frame rows for a session, ordered by frame number.
func (s *Store) Frames(sessionID string) ([]FrameRecord, error) {
	rows, err := s.Query(
		`SELECT session_id, frame, mode, dirty, packets, bytes, render_time_ns, timestamp
		 FROM frames WHERE session_id = ? ORDER BY frame`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %v", err)
	}
	defer rows.Close()

	var records []FrameRecord
	for rows.Next() {
		var r FrameRecord
		var renderNs int64
		if err := rows.Scan(&r.SessionID, &r.Frame, &r.Mode, &r.Dirty, &r.Packets, &r.Bytes, &renderNs, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan frame row: %v", err)
		}
		r.RenderTime = time.Duration(renderNs)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Sessions returns a summary per session, most recent first.
func (s *Store) Sessions() ([]SessionSummary, error) {
	rows, err := s.Query(`
		SELECT s.session_id, s.scene, s.started_at,
		       COUNT(f.frame),
		       COALESCE(SUM(f.bytes), 0),
		       COALESCE(SUM(CASE WHEN f.mode = 'full' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN f.mode = 'sparse' THEN 1 ELSE 0 END), 0)
		FROM sessions s
		LEFT JOIN frames f ON f.session_id = s.session_id
		GROUP BY s.session_id
		ORDER BY s.started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %v", err)
	}
	defer rows.Close()

	var summaries []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.SessionID, &sum.Scene, &sum.StartedAt,
			&sum.Frames, &sum.TotalBytes, &sum.FullFrames, &sum.SparseCount); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %v", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// LatestSessionID returns the most recently started session.
func (s *Store) LatestSessionID() (string, error) {
	var id string
	err := s.QueryRow(`SELECT session_id FROM sessions ORDER BY started_at DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no sessions recorded")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest session: %v", err)
	}
	return id, nil
}

// OpenStore opens an existing stats database without starting a session.
// Used by reporting tools that only read.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats db: %w", err)
	}
	return &Store{DB: db}, nil
}
