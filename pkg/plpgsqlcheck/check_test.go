// SPDX-License-Identifier: Apache-2.0

package plpgsqlcheck_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ZakSingh/pgmg/pkg/db"
	"github.com/ZakSingh/pgmg/pkg/pgmglog"
	"github.com/ZakSingh/pgmg/pkg/pgobj"
	"github.com/ZakSingh/pgmg/pkg/plpgsqlcheck"
	"github.com/ZakSingh/pgmg/pkg/testutils"
)

func TestMain(m *testing.M) {
	testutils.SharedTestMain(m)
}

// The test container image doesn't ship the plpgsql_check extension, which
// exercises the "not installed" no-op path every environment hits until an
// operator installs the extension (spec.md §4.8).
func TestCheckNoOpsWhenExtensionNotInstalled(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(sqlDB *sql.DB, connStr string) {
		ctx := context.Background()
		_, err := sqlDB.ExecContext(ctx, `
			CREATE FUNCTION double_it(n int) RETURNS int AS $$
			BEGIN
				RETURN n * 2;
			END;
			$$ LANGUAGE plpgsql`)
		require.NoError(t, err)

		rdb, err := db.Open(connStr)
		require.NoError(t, err)
		defer rdb.Close()

		objects := []*pgobj.SqlObject{{
			Kind:          pgobj.KindFunction,
			QualifiedName: pgobj.NewQualifiedName("public", "double_it"),
			Location:      pgobj.Location{File: "code/double_it.sql", StartLine: 1, EndLine: 5},
		}}

		findings, err := plpgsqlcheck.Check(ctx, rdb, objects, pgmglog.NewNoop())
		require.NoError(t, err)
		require.Empty(t, findings)
	})
}

func TestCheckSkipsNonProceduralKinds(t *testing.T) {
	t.Parallel()

	testutils.WithConnectionToContainer(t, func(sqlDB *sql.DB, connStr string) {
		ctx := context.Background()

		rdb, err := db.Open(connStr)
		require.NoError(t, err)
		defer rdb.Close()

		objects := []*pgobj.SqlObject{{
			Kind:          pgobj.KindView,
			QualifiedName: pgobj.NewQualifiedName("public", "active_users"),
		}}

		findings, err := plpgsqlcheck.Check(ctx, rdb, objects, pgmglog.NewNoop())
		require.NoError(t, err)
		require.Empty(t, findings)
	})
}
