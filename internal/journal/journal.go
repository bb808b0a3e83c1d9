// Package journal persists pre-edit file snapshots so edits can be reversed.
// Snapshots are stored in SQLite and keyed by (session, turn): one session
// per server process, one turn per host conversation turn.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // register sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS edit_journal (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	turn_id     INTEGER NOT NULL,
	file_path   TEXT NOT NULL,
	op          TEXT NOT NULL,
	old_content BLOB,
	diff        TEXT,
	created     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_turn ON edit_journal(session_id, turn_id);
`

// Journal records and replays file snapshots.
type Journal struct {
	mu        sync.Mutex
	db        *sql.DB
	sessionID string
	turnID    int64 // current turn; 0 = no active turn
}

// Open creates or opens the journal database at the given path.
func Open(dbPath, sessionID string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	// SQLite pragmas for performance.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Journal{db: db, sessionID: sessionID}, nil
}

// Close closes the database. Safe on a nil receiver.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.db.Close()
}

// BeginTurn sets the current turn ID. All subsequent Record* calls are
// associated with this turn until the next BeginTurn. Safe on nil.
func (j *Journal) BeginTurn(turnID int64) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.turnID = turnID
}

// TurnID returns the current turn ID, or 0 when no turn is active.
func (j *Journal) TurnID() int64 {
	if j == nil {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.turnID
}

// RecordModify stores the original content of a file before it is modified,
// along with the unified diff of the change. Only the first snapshot per
// file per turn is kept — later edits in the same turn already have their
// original on record. No-op on nil receiver or outside a turn.
func (j *Journal) RecordModify(filePath string, oldContent []byte, diff string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.turnID == 0 {
		return
	}
	var exists bool
	err := j.db.QueryRow(
		`SELECT 1 FROM edit_journal WHERE session_id = ? AND turn_id = ? AND file_path = ? LIMIT 1`,
		j.sessionID, j.turnID, filePath,
	).Scan(&exists)
	if err == nil && exists {
		return // already recorded
	}
	_, err = j.db.Exec(
		`INSERT INTO edit_journal (session_id, turn_id, file_path, op, old_content, diff, created)
		 VALUES (?, ?, ?, 'modify', ?, ?, ?)`,
		j.sessionID, j.turnID, filePath, oldContent, diff, time.Now().Unix(),
	)
	if err != nil {
		log.Warn().Err(err).Str("file", filePath).Msg("failed to record modify snapshot")
	}
}

// RecordCreate records that a file was created (old_content is NULL).
func (j *Journal) RecordCreate(filePath string) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.turnID == 0 {
		return
	}
	_, err := j.db.Exec(
		`INSERT INTO edit_journal (session_id, turn_id, file_path, op, old_content, diff, created)
		 VALUES (?, ?, ?, 'create', NULL, NULL, ?)`,
		j.sessionID, j.turnID, filePath, time.Now().Unix(),
	)
	if err != nil {
		log.Warn().Err(err).Str("file", filePath).Msg("failed to record create snapshot")
	}
}

// LatestTurn returns the most recent turn in this session that still has
// journal records, or 0 when there is nothing to undo.
func (j *Journal) LatestTurn() int64 {
	if j == nil {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	var turn int64
	err := j.db.QueryRow(
		`SELECT COALESCE(MAX(turn_id), 0) FROM edit_journal WHERE session_id = ?`,
		j.sessionID,
	).Scan(&turn)
	if err != nil {
		log.Warn().Err(err).Msg("failed to query latest turn")
		return 0
	}
	return turn
}

// Undo reverses all file changes for the given turn, in reverse order.
// Modify ops restore old content; create ops delete the file. Returns the
// list of affected absolute file paths.
func (j *Journal) Undo(turnID int64) ([]string, error) {
	if j == nil {
		return nil, nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.Query(
		`SELECT file_path, op, old_content FROM edit_journal
		 WHERE session_id = ? AND turn_id = ?
		 ORDER BY id DESC`,
		j.sessionID, turnID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var affected []string
	for rows.Next() {
		var filePath, op string
		var oldContent []byte
		if err := rows.Scan(&filePath, &op, &oldContent); err != nil {
			log.Warn().Err(err).Msg("failed to scan journal row")
			continue
		}
		affected = append(affected, filePath)
		switch op {
		case "modify":
			if err := os.WriteFile(filePath, oldContent, 0600); err != nil {
				log.Warn().Err(err).Str("file", filePath).Msg("undo: failed to restore file")
			}
		case "create":
			if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
				log.Warn().Err(err).Str("file", filePath).Msg("undo: failed to remove created file")
			}
		}
	}
	return affected, rows.Err()
}

// DeleteTurn removes all journal records for a turn.
func (j *Journal) DeleteTurn(turnID int64) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err := j.db.Exec(
		`DELETE FROM edit_journal WHERE session_id = ? AND turn_id = ?`,
		j.sessionID, turnID,
	)
	if err != nil {
		log.Warn().Err(err).Int64("turn", turnID).Msg("failed to delete turn records")
	}
}
