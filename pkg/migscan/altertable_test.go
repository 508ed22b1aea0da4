// SPDX-License-Identifier: Apache-2.0

package migscan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZakSingh/pgmg/pkg/migscan"
	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

func TestAlteredTablesExtractsAlterTableTargetsOnly(t *testing.T) {
	sql := `
		CREATE TABLE public.orders (id int);
		ALTER TABLE public.orders ADD COLUMN total numeric;
		ALTER TABLE billing.invoices DROP COLUMN legacy_note;
		DROP TABLE public.scratch;
		INSERT INTO public.orders (id) VALUES (1);
	`

	tables, err := migscan.AlteredTables(sql)
	require.NoError(t, err)
	assert.Len(t, tables, 2)
	assert.True(t, tables[pgobj.NewQualifiedName("public", "orders")])
	assert.True(t, tables[pgobj.NewQualifiedName("billing", "invoices")])
	assert.False(t, tables[pgobj.NewQualifiedName("public", "scratch")])
}

func TestAlteredTablesEmptyForNonAlterMigration(t *testing.T) {
	tables, err := migscan.AlteredTables("CREATE TABLE public.t (id int);")
	require.NoError(t, err)
	assert.Empty(t, tables)
}
