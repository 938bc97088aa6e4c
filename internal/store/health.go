package store

import (
	"context"
	"errors"
	"os"
)

// Health captures diagnostic information about the document database.
type Health struct {
	Path          string
	Exists        bool
	ReadOnly      bool
	SchemaVersion int
	IntegrityOK   bool
	Collections   map[string]int
	Error         string
}

// CheckHealth inspects the database without modifying it.
func (s *Store) CheckHealth(ctx context.Context) Health {
	health := Health{Path: s.path, ReadOnly: s.readOnly, Collections: map[string]int{}}
	if _, err := os.Stat(s.path); err == nil {
		health.Exists = true
	}

	var errs []error
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&health.SchemaVersion); err != nil {
		errs = append(errs, err)
	}

	var integrity string
	if err := s.db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&integrity); err != nil {
		errs = append(errs, err)
	} else {
		health.IntegrityOK = integrity == "ok"
	}

	rows, err := s.db.QueryContext(ctx, "SELECT collection, COUNT(1) FROM documents GROUP BY collection")
	if err != nil {
		errs = append(errs, err)
	} else {
		defer rows.Close()
		for rows.Next() {
			var (
				name  string
				count int
			)
			if err := rows.Scan(&name, &count); err != nil {
				errs = append(errs, err)
				break
			}
			health.Collections[name] = count
		}
		if err := rows.Err(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		health.Error = err.Error()
	}
	return health
}
