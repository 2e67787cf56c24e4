// Package ledger persists one ExportRecord per conversation in SQLite,
// giving later runs the low-water mark for append-mode exports.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/new-medium/claude-to-notion-exporter/models"
)

const DefaultDBName = "claude-to-notion.db"

type Ledger struct {
	db   *sql.DB
	path string
}

// Open opens or creates the ledger database at path. An empty path places
// the database next to the binary.
func Open(path string) (*Ledger, error) {
	if path == "" {
		execPath, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %w", err)
		}
		path = filepath.Join(filepath.Dir(execPath), DefaultDBName)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ledger := &Ledger{db: db, path: path}
	if err := ledger.ensureSchemaExists(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return ledger, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.path
}

// ensureSchemaExists checks if the schema exists and initializes it if not.
func (l *Ledger) ensureSchemaExists() error {
	var tableName string
	err := l.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='export_records'").Scan(&tableName)
	if err == sql.ErrNoRows {
		_, err = l.db.Exec(schema)
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}
	return nil
}

// Get returns the export record for a conversation, or nil when no export
// has been recorded yet.
func (l *Ledger) Get(conversationID string) (*models.ExportRecord, error) {
	var record models.ExportRecord
	var exportedAt string
	err := l.db.QueryRow(`
		SELECT conversation_id, title, exported_at, turn_count, page_id, container_id
		FROM export_records
		WHERE conversation_id = ?
	`, conversationID).Scan(
		&record.ConversationID,
		&record.Title,
		&exportedAt,
		&record.TurnCount,
		&record.PageID,
		&record.ContainerID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get export record: %w", err)
	}

	record.ExportedAt, err = time.Parse(time.RFC3339, exportedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse exported_at: %w", err)
	}
	return &record, nil
}

// Put stores a record, overwriting any prior record for the same
// conversation. Last writer wins; there are no merge semantics.
func (l *Ledger) Put(record models.ExportRecord) error {
	_, err := l.db.Exec(`
		INSERT INTO export_records (conversation_id, title, exported_at, turn_count, page_id, container_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET
			title = excluded.title,
			exported_at = excluded.exported_at,
			turn_count = excluded.turn_count,
			page_id = excluded.page_id,
			container_id = excluded.container_id
	`,
		record.ConversationID,
		record.Title,
		record.ExportedAt.UTC().Format(time.RFC3339),
		record.TurnCount,
		record.PageID,
		record.ContainerID,
	)
	if err != nil {
		return fmt.Errorf("failed to put export record: %w", err)
	}
	return nil
}

// List returns export records, most recent first. limit <= 0 means all.
func (l *Ledger) List(limit int) ([]models.ExportRecord, error) {
	query := `
		SELECT conversation_id, title, exported_at, turn_count, page_id, container_id
		FROM export_records
		ORDER BY exported_at DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := l.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list export records: %w", err)
	}
	defer rows.Close()

	var records []models.ExportRecord
	for rows.Next() {
		var record models.ExportRecord
		var exportedAt string
		if err := rows.Scan(&record.ConversationID, &record.Title, &exportedAt,
			&record.TurnCount, &record.PageID, &record.ContainerID); err != nil {
			return nil, fmt.Errorf("failed to scan export record: %w", err)
		}
		record.ExportedAt, err = time.Parse(time.RFC3339, exportedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse exported_at: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
