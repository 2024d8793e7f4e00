package postgres

import (
	"context"

	"merchantetl/internal/warehouse"
)

// newRepository is replaced in tests to avoid opening real connections.
var newRepository = NewRepository

func init() {
	warehouse.Register("postgres", func(ctx context.Context, dsn string) (warehouse.Repository, error) {
		r, err := newRepository(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}
