package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"

	"github.com/pthm/hxgrid"
	"github.com/pthm/hxgrid/lib/sqlprovider"
)

// Order is a row of the demo grid.
type Order struct {
	ID       int
	Customer string
	Region   string
	Amount   float64
	Paid     bool
	Placed   string
}

const schema = `
CREATE TABLE orders (
	id       INTEGER PRIMARY KEY,
	customer TEXT NOT NULL,
	region   TEXT NOT NULL,
	amount   REAL NOT NULL,
	paid     INTEGER NOT NULL DEFAULT 0,
	placed   TEXT NOT NULL
)`

var seedOrders = []Order{
	{1, "Acme Corp", "North", 1250.00, true, "2024-01-04"},
	{2, "Globex", "South", 310.50, false, "2024-01-09"},
	{3, "Initech", "West", 89.99, true, "2024-01-15"},
	{4, "Umbrella", "East", 4020.00, true, "2024-02-02"},
	{5, "Hooli", "West", 640.25, false, "2024-02-11"},
	{6, "Stark Industries", "North", 15999.00, true, "2024-02-20"},
	{7, "Wayne Enterprises", "East", 720.00, false, "2024-03-01"},
	{8, "Soylent", "South", 45.10, true, "2024-03-08"},
	{9, "Tyrell", "West", 2300.00, true, "2024-03-19"},
	{10, "Cyberdyne", "North", 980.75, false, "2024-04-02"},
	{11, "Massive Dynamic", "East", 133.00, true, "2024-04-10"},
	{12, "Vandelay Industries", "South", 560.40, false, "2024-04-22"},
}

// openStore opens an in-memory database seeded with the demo orders.
func openStore(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every connection would get its own in-memory database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	for _, o := range seedOrders {
		_, err := db.ExecContext(ctx,
			`INSERT INTO orders (id, customer, region, amount, paid, placed) VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID, o.Customer, o.Region, o.Amount, o.Paid, o.Placed)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("seed orders: %w", err)
		}
	}
	return db, nil
}

func orderProvider(db *sql.DB) *sqlprovider.Provider[Order] {
	return &sqlprovider.Provider[Order]{
		DB:      db,
		Table:   "orders",
		Columns: []string{"id", "customer", "region", "amount", "paid", "placed"},
		Attrs: map[string]string{
			"id":       "id",
			"customer": "customer",
			"region":   "region",
			"amount":   "amount",
			"placed":   "placed",
		},
		Scan: func(rows *sql.Rows) (Order, error) {
			var o Order
			err := rows.Scan(&o.ID, &o.Customer, &o.Region, &o.Amount, &o.Paid, &o.Placed)
			return o, err
		},
		DefaultSort: hxgrid.Sort{Attr: "id"},
	}
}

// updateCustomer applies an inline edit of the customer column.
func updateCustomer(ctx context.Context, db *sql.DB, key, value string) error {
	id, err := strconv.Atoi(key)
	if err != nil {
		return fmt.Errorf("invalid order key %q", key)
	}
	res, err := db.ExecContext(ctx, `UPDATE orders SET customer = ? WHERE id = ?`, value, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("order %d: %w", id, hxgrid.ErrNotFound)
	}
	return nil
}
