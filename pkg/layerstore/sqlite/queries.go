package sqlite

import (
	"context"
	"database/sql"
	"time"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type LayerChange struct {
	ID        int64
	Layer     string
	ChangedAt time.Time
}

const insertLayerChange = `
INSERT INTO layer_changes (layer, changed_at) VALUES (?, ?)
`

type InsertLayerChangeParams struct {
	Layer     string
	ChangedAt time.Time
}

func (q *Queries) InsertLayerChange(ctx context.Context, arg InsertLayerChangeParams) error {
	_, err := q.db.ExecContext(ctx, insertLayerChange, arg.Layer, arg.ChangedAt)
	return err
}

const listLayerChanges = `
SELECT id, layer, changed_at FROM layer_changes ORDER BY id DESC LIMIT ?
`

func (q *Queries) ListLayerChanges(ctx context.Context, limit int64) ([]LayerChange, error) {
	rows, err := q.db.QueryContext(ctx, listLayerChanges, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []LayerChange
	for rows.Next() {
		var i LayerChange
		if err := rows.Scan(&i.ID, &i.Layer, &i.ChangedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
