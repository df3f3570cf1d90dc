package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mind-engage/plant-eval/internal/db"
)

// Event types.
const (
	EventResultSaved       = "ResultSaved"
	EventBlockChanged      = "ExamBlockChanged"
	EventTemplateSaved     = "TemplateSaved"
	EventPermissionChanged = "PermissionChanged"
)

type Event struct {
	Seq       int64           `json:"seq"`
	SiteID    string          `json:"site_id"`
	Type      string          `json:"type"`
	Ref       string          `json:"ref"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"created_at"`
}

// Execer is satisfied by *sql.DB and *sql.Tx so events can share the
// transaction of the change they record.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type EventRepo struct {
	db     *sql.DB
	driver db.Driver
	site   string
}

func NewEventRepo(conn *sql.DB, driver db.Driver, siteID string) *EventRepo {
	if siteID == "" {
		siteID = "local"
	}
	return &EventRepo{db: conn, driver: driver, site: siteID}
}

// Append records an event through ex, or the repo's own DB when ex is nil.
func (r *EventRepo) Append(ctx context.Context, ex Execer, typ, ref string, payload any) error {
	if ex == nil {
		ex = r.db
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, db.Rebind(r.driver,
		`INSERT INTO event_log (site_id, typ, ref, data, created_at) VALUES ($1,$2,$3,$4,$5)`),
		r.site, typ, ref, string(data), time.Now().Unix())
	return err
}

// Since lists events after seq, oldest first.
func (r *EventRepo) Since(ctx context.Context, seq int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, db.Rebind(r.driver,
		`SELECT seq, site_id, typ, ref, data, created_at FROM event_log WHERE seq > $1 ORDER BY seq LIMIT $2`),
		seq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		var data string
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Ref, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}
