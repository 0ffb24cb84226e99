package status

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"histvault/internal/logger"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteTracker 把任务起止事件落到独立的 SQLite 文件，方便外部巡检。
// 跟踪失败只记日志，绝不影响主流程。
type SQLiteTracker struct {
	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteTracker(path string) (*SQLiteTracker, error) {
	if path == "" {
		return nil, fmt.Errorf("status tracker path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	const schema = `CREATE TABLE IF NOT EXISTS task_events (
		id TEXT PRIMARY KEY,
		task TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &SQLiteTracker{db: db}, nil
}

func (t *SQLiteTracker) Begin(task string) string {
	id := uuid.NewString()
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.db.Exec(
		"INSERT INTO task_events (id, task, started_at) VALUES (?, ?, ?)",
		id, task, time.Now().UTC()); err != nil {
		logger.Warnf("[status] 记录任务开始失败 task=%s: %v", task, err)
	}
	return id
}

func (t *SQLiteTracker) Complete(id string) {
	if id == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.db.Exec(
		"UPDATE task_events SET finished_at = ? WHERE id = ?",
		time.Now().UTC(), id); err != nil {
		logger.Warnf("[status] 记录任务完成失败 id=%s: %v", id, err)
	}
}

func (t *SQLiteTracker) Close() error {
	if t == nil || t.db == nil {
		return nil
	}
	return t.db.Close()
}
