// SPDX-License-Identifier: Apache-2.0

package state_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
	"github.com/ZakSingh/pgmg/pkg/state"
	"github.com/ZakSingh/pgmg/pkg/testutils"
)

func TestMain(m *testing.M) {
	testutils.SharedTestMain(m)
}

func TestInitIsIdempotent(t *testing.T) {
	t.Parallel()

	testutils.WithStateAndConnectionToContainer(t, func(st *state.State, db *sql.DB) {
		ctx := context.Background()

		require.NoError(t, st.Init(ctx))
		require.NoError(t, st.Init(ctx))

		applied, err := st.AppliedMigrations(ctx)
		require.NoError(t, err)
		assert.Empty(t, applied)
	})
}

func TestRecordAndReadMigrations(t *testing.T) {
	t.Parallel()

	testutils.WithStateAndConnectionToContainer(t, func(st *state.State, db *sql.DB) {
		ctx := context.Background()

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)

		require.NoError(t, st.RecordMigration(ctx, tx, "001_init.sql"))
		require.NoError(t, st.RecordMigration(ctx, tx, "002_add_column.sql"))
		require.NoError(t, tx.Commit())

		applied, err := st.AppliedMigrations(ctx)
		require.NoError(t, err)
		assert.True(t, applied["001_init.sql"])
		assert.True(t, applied["002_add_column.sql"])
		assert.False(t, applied["003_not_applied.sql"])
	})
}

func TestObjectUpsertAndDelete(t *testing.T) {
	t.Parallel()

	testutils.WithStateAndConnectionToContainer(t, func(st *state.State, db *sql.DB) {
		ctx := context.Background()
		key := pgobj.Key{Kind: pgobj.KindView, QualifiedName: pgobj.NewQualifiedName("public", "active_users")}

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, st.UpsertObject(ctx, tx, key, "hash-one"))
		require.NoError(t, tx.Commit())

		objects, err := st.LoadObjects(ctx)
		require.NoError(t, err)
		rec, ok := objects[state.RowKeyOf(key)]
		require.True(t, ok)
		assert.Equal(t, "hash-one", rec.DDLHash)

		// Upsert with the same key updates in place rather than duplicating.
		tx, err = db.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, st.UpsertObject(ctx, tx, key, "hash-two"))
		require.NoError(t, tx.Commit())

		objects, err = st.LoadObjects(ctx)
		require.NoError(t, err)
		assert.Equal(t, "hash-two", objects[state.RowKeyOf(key)].DDLHash)
		assert.Len(t, objects, 1)

		tx, err = db.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, st.DeleteObject(ctx, tx, key))
		require.NoError(t, tx.Commit())

		objects, err = st.LoadObjects(ctx)
		require.NoError(t, err)
		assert.Empty(t, objects)
	})
}

func TestVersionCompatibility(t *testing.T) {
	t.Parallel()

	testutils.WithStateAndConnectionToContainer(t, func(st *state.State, db *sql.DB) {
		ctx := context.Background()

		compat, err := st.VersionCompatibility(ctx, "1.2.0")
		require.NoError(t, err)
		assert.Equal(t, state.VersionCompatNotInitialized, compat)

		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, st.RecordVersion(ctx, tx, "1.2.0"))
		require.NoError(t, tx.Commit())

		compat, err = st.VersionCompatibility(ctx, "1.2.0")
		require.NoError(t, err)
		assert.Equal(t, state.VersionCompatSchemaEqual, compat)

		compat, err = st.VersionCompatibility(ctx, "1.3.0")
		require.NoError(t, err)
		assert.Equal(t, state.VersionCompatSchemaOlder, compat)

		compat, err = st.VersionCompatibility(ctx, "1.1.0")
		require.NoError(t, err)
		assert.Equal(t, state.VersionCompatSchemaNewer, compat)
	})
}
