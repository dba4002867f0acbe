package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Collection describes one JSONB document table.
type Collection struct {
	Table  string
	Unique []string
}

type migrationStep struct {
	Name string
	SQL  string
}

// steps renders the DDL: the schema, then per collection the table, an
// insertion-time index used for list ordering and one unique expression index
// per unique field.
func steps(schema string, collections []Collection) []migrationStep {
	out := []migrationStep{{
		Name: "create_schema_" + schema,
		SQL:  fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s;`, pgx.Identifier{schema}.Sanitize()),
	}}
	for _, c := range collections {
		table := pgx.Identifier{schema, c.Table}.Sanitize()
		out = append(out,
			migrationStep{
				Name: "create_table_" + c.Table,
				SQL: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id         TEXT        PRIMARY KEY,
  doc        JSONB       NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`, table),
			},
			migrationStep{
				Name: "create_index_" + c.Table + "_created_at",
				SQL: fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (created_at);`,
					pgx.Identifier{"idx_" + c.Table + "_created_at"}.Sanitize(), table),
			},
		)
		for _, field := range c.Unique {
			out = append(out, migrationStep{
				Name: "create_unique_index_" + c.Table + "_" + field,
				SQL: fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s ((doc->>'%s'));`,
					pgx.Identifier{c.Table + "_" + field + "_key"}.Sanitize(), table, field),
			})
		}
	}
	return out
}

// EnsureMigrated checks whether the first collection's table exists in schema
// and runs all steps if it doesn't. An empty schema means public.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger, schema string, collections ...Collection) error {
	if len(collections) == 0 {
		return nil
	}
	start := time.Now()
	if schema == "" {
		schema = "public"
	}
	log = log.With(zap.String("component", "database"), zap.String("db_schema", schema))

	log.Info("db_migration_check", zap.String("status", "starting"))

	var exists bool
	sentinel := pgx.Identifier{schema, collections[0].Table}.Sanitize()
	if err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", sentinel).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			zap.String("status", "error"),
			zap.Error(err),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			zap.String("status", "success"),
			zap.String("detail", "schema already exists, skipping migration"),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	log.Info("db_migration_start", zap.String("status", "in_progress"))

	for _, step := range steps(schema, collections) {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				zap.String("status", "error"),
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			zap.String("status", "success"),
			zap.String("migration_step", step.Name),
			zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	log.Info("db_migration_success",
		zap.String("status", "success"),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}
