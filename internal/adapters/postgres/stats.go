package postgres

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type Stats struct {
	Users        int64
	Courts       int64
	Reservations int64
}

// Stats runs the three counts concurrently, each on its own pool connection.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT count(*) FROM users`).Scan(&s.Users)
	})
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT count(*) FROM courts`).Scan(&s.Courts)
	})
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT count(*) FROM reservations`).Scan(&s.Reservations)
	})
	if err := g.Wait(); err != nil {
		return nil, r.wrap("stats", err)
	}
	return &s, nil
}
