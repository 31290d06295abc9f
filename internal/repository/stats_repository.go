package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

// Stats is the admin dashboard summary.  Revenue counts settled orders only.
type Stats struct {
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	OrderCount       int             `json:"orderCount"`
	UserCount        int             `json:"userCount"`
	ReservationCount int             `json:"reservationCount"`
}

// SalesPoint is one day of settled revenue.
type SalesPoint struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}

type StatsRepo struct{ db *sql.DB }

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// Summary aggregates revenue, orders, users and live reservations.
func (r *StatsRepo) Summary(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total), 0) FROM orders WHERE status = 'settlement'`).
		Scan(&s.OrderCount, &s.TotalRevenue)
	if err != nil {
		return s, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&s.UserCount); err != nil {
		return s, err
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE status NOT IN ('cancelled', 'no-show')`).
		Scan(&s.ReservationCount)
	return s, err
}

// SalesChart returns settled revenue per day for the most recent days,
// oldest first.
func (r *StatsRepo) SalesChart(ctx context.Context, days int) ([]SalesPoint, error) {
	const q = `SELECT d, total FROM (
                 SELECT DATE_FORMAT(DATE(order_date), '%Y-%m-%d') AS d, SUM(total) AS total
                 FROM orders
                 WHERE status = 'settlement'
                 GROUP BY DATE(order_date)
                 ORDER BY DATE(order_date) DESC
                 LIMIT ?
               ) recent ORDER BY d ASC`
	rows, err := r.db.QueryContext(ctx, q, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]SalesPoint, 0)
	for rows.Next() {
		var p SalesPoint
		if err := rows.Scan(&p.Date, &p.Total); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
