// SPDX-License-Identifier: Apache-2.0

package scanner_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZakSingh/pgmg/pkg/pgmglog"
	"github.com/ZakSingh/pgmg/pkg/pgobj"
	"github.com/ZakSingh/pgmg/pkg/scanner"
)

func TestScanMigrationsOrdersLexicographically(t *testing.T) {
	dir := fstest.MapFS{
		"003_add_index.sql":  {Data: []byte("CREATE INDEX ON t (a);")},
		"001_init.sql":        {Data: []byte("CREATE TABLE t (a int);")},
		"002_add_column.sql":  {Data: []byte("ALTER TABLE t ADD COLUMN b int;")},
		"readme.md":           {Data: []byte("not a migration")},
	}

	files, err := scanner.ScanMigrations(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, []string{"001_init.sql", "002_add_column.sql", "003_add_index.sql"},
		[]string{files[0].Name, files[1].Name, files[2].Name})
}

func TestScanCodeIdentifiesObjects(t *testing.T) {
	dir := fstest.MapFS{
		"views/active_users.sql": {Data: []byte(
			"CREATE VIEW public.active_users AS SELECT id FROM public.users WHERE active;",
		)},
		"views/active_users.test.sql": {Data: []byte(
			"SELECT * FROM public.active_users; -- fixture, skipped entirely",
		)},
	}

	objects, err := scanner.ScanCode(dir, pgmglog.NewNoop())
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, pgobj.KindView, objects[0].Kind)
	assert.Equal(t, "active_users", objects[0].Name)
	assert.NotEmpty(t, objects[0].Fingerprint)
}

func TestScanCodeRejectsDuplicateObjects(t *testing.T) {
	dir := fstest.MapFS{
		"a.sql": {Data: []byte("CREATE VIEW public.v1 AS SELECT 1;")},
		"b.sql": {Data: []byte("CREATE VIEW public.v1 AS SELECT 2;")},
	}

	_, err := scanner.ScanCode(dir, pgmglog.NewNoop())
	require.Error(t, err)
}

func TestScanCodeSkipsUnrecognizedStatementsWithoutFailing(t *testing.T) {
	dir := fstest.MapFS{
		"grants.sql": {Data: []byte("GRANT SELECT ON public.users TO reporting;")},
	}

	objects, err := scanner.ScanCode(dir, pgmglog.NewNoop())
	require.NoError(t, err)
	assert.Empty(t, objects)
}
