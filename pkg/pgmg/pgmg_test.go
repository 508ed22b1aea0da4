// SPDX-License-Identifier: Apache-2.0

package pgmg_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ZakSingh/pgmg/pkg/pgmg"
	"github.com/ZakSingh/pgmg/pkg/pgmgconfig"
	"github.com/ZakSingh/pgmg/pkg/pgmglog"
	"github.com/ZakSingh/pgmg/pkg/testutils"
)

func TestMain(m *testing.M) {
	testutils.SharedTestMain(m)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPlanAndApplyEndToEnd(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(sqlDB *sql.DB, connStr string) {
		root := t.TempDir()
		migrationsDir := filepath.Join(root, "migrations")
		codeDir := filepath.Join(root, "code")

		writeFile(t, filepath.Join(migrationsDir, "001_users.sql"), "CREATE TABLE users (id int, username text);")
		writeFile(t, filepath.Join(codeDir, "views.sql"), "CREATE VIEW user_view AS SELECT id, username FROM users;")

		cfg := &pgmgconfig.Config{
			ConnectionString:    connStr,
			MigrationsDir:       migrationsDir,
			CodeDir:             codeDir,
			CatalogSchema:       testutils.CatalogSchema,
			AdvisoryLockTimeout: 5 * time.Second,
		}

		ctx := context.Background()
		log := pgmglog.NewNoop()

		planResult, err := pgmg.Plan(ctx, cfg, log, "")
		require.NoError(t, err)
		require.Equal(t, []string{"001_users.sql"}, planResult.NewMigrations)
		require.Len(t, planResult.Changes, 1)
		require.Equal(t, "create", planResult.Changes[0].Action)
		require.Equal(t, "public.user_view", planResult.Changes[0].Name)

		applyResult, err := pgmg.Apply(ctx, cfg, log)
		require.NoError(t, err)
		require.Equal(t, []string{"001_users.sql"}, applyResult.MigrationsApplied)
		require.Equal(t, []string{"public.user_view"}, applyResult.ObjectsCreated)

		var exists bool
		row := sqlDB.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM pg_views WHERE viewname = 'user_view')")
		require.NoError(t, row.Scan(&exists))
		require.True(t, exists)

		// A second plan with an unchanged filesystem is empty (spec.md §8
		// idempotence invariant).
		secondPlan, err := pgmg.Plan(ctx, cfg, log, "")
		require.NoError(t, err)
		require.Empty(t, secondPlan.NewMigrations)
		require.Empty(t, secondPlan.Changes)

		secondApply, err := pgmg.Apply(ctx, cfg, log)
		require.NoError(t, err)
		require.Empty(t, secondApply.MigrationsApplied)
		require.Empty(t, secondApply.ObjectsCreated)
		require.Empty(t, secondApply.ObjectsUpdated)
		require.Empty(t, secondApply.ObjectsDeleted)
	})
}

func TestPlanWritesDependencyGraphDOT(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(sqlDB *sql.DB, connStr string) {
		root := t.TempDir()
		migrationsDir := filepath.Join(root, "migrations")
		codeDir := filepath.Join(root, "code")
		writeFile(t, filepath.Join(migrationsDir, "001_users.sql"), "CREATE TABLE users (id int);")
		writeFile(t, filepath.Join(codeDir, "views.sql"), "CREATE VIEW user_view AS SELECT id FROM users;")

		cfg := &pgmgconfig.Config{
			ConnectionString:    connStr,
			MigrationsDir:       migrationsDir,
			CodeDir:             codeDir,
			CatalogSchema:       testutils.CatalogSchema,
			AdvisoryLockTimeout: 5 * time.Second,
		}

		dotPath := filepath.Join(root, "graph.dot")
		_, err := pgmg.Plan(context.Background(), cfg, pgmglog.NewNoop(), dotPath)
		require.NoError(t, err)

		data, err := os.ReadFile(dotPath)
		require.NoError(t, err)
		require.Contains(t, string(data), "digraph pgmg")
	})
}
