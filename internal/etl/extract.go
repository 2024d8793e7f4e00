package etl

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"merchantetl/internal/datasource"
	csvparser "merchantetl/internal/parser/csv"
	"merchantetl/internal/schema"
	"merchantetl/pkg/records"
)

// openSource is a seam for tests; production points at datasource.ForPath.
var openSource = datasource.ForPath

// extract reads one CSV input and checks its header against the contract.
// Rows come back untyped; malformed lines are logged and counted by the
// parser rather than failing the input. A missing required column surfaces
// as a *SchemaError before any row processing happens.
func extract(ctx context.Context, location string, contract schema.Contract, log zerolog.Logger) ([]records.Record, error) {
	src := openSource(location)

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	p := csvparser.NewParser(csvparser.Options{
		TrimSpace: true,
		OnSkip: func(line int, err error) {
			log.Warn().Str("source", src.Name()).Int("line", line).Err(err).Msg("malformed row skipped")
		},
	})
	recs, header, skipped, err := p.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src.Name(), err)
	}

	if missing := contract.MissingColumns(header); len(missing) > 0 {
		return nil, &SchemaError{Source: src.Name(), Missing: missing}
	}

	log.Info().
		Str("source", src.Name()).
		Str("contract", contract.Name).
		Int("rows", len(recs)).
		Int("skipped", skipped).
		Msg("extracted")
	return recs, nil
}
