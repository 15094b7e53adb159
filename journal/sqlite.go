package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordOrder(r OrderRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO orders
		(client_order_id, symbol, side, type, notional, qty, trail_percent, status, reason, time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ClientOrderID, r.Symbol, r.Side, r.Type, r.Notional,
		r.Qty, r.TrailPercent, r.Status, r.Reason, r.Time,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity (time, cash, portfolio_value, last_equity)
		VALUES (?, ?, ?, ?)`,
		e.Time, e.Cash, e.PortfolioValue, e.LastEquity,
	)
	return err
}

// Orders loads every recorded order, oldest first.
func (j *SQLiteJournal) Orders() ([]OrderRecord, error) {
	rows, err := j.db.Query(`
		SELECT client_order_id, symbol, side, type, notional, qty, trail_percent, status, reason, time
		FROM orders ORDER BY time, client_order_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		var r OrderRecord
		var ts time.Time
		if err := rows.Scan(&r.ClientOrderID, &r.Symbol, &r.Side, &r.Type,
			&r.Notional, &r.Qty, &r.TrailPercent, &r.Status, &r.Reason, &ts); err != nil {
			return nil, err
		}
		r.Time = ts
		out = append(out, r)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
