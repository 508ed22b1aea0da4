// SPDX-License-Identifier: Apache-2.0

package sqlfront_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
	"github.com/ZakSingh/pgmg/pkg/sqlfront"
)

// hasDep reports whether deps contains a reference matching kind/schema/name,
// regardless of ordering (RawDependencies order is an implementation detail
// of which constraint/clause was walked first).
func hasDep(deps []pgobj.DependencyRef, kind pgobj.Kind, schema, name string) bool {
	for _, d := range deps {
		if d.KindHint == kind && d.Schema == schema && d.Name == name {
			return true
		}
	}
	return false
}

func TestIdentifyTableTracksForeignKeyAndCheckFunctionDeps(t *testing.T) {
	sql := `CREATE TABLE public.orders (
		id int PRIMARY KEY,
		customer_id int REFERENCES public.customers(id),
		amount numeric CHECK (public.is_valid_amount(amount))
	)`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.Equal(t, pgobj.KindTable, obj.Kind)
	assert.Equal(t, pgobj.NewQualifiedName("public", "orders"), obj.QualifiedName)
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindTable, "public", "customers"))
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindFunction, "public", "is_valid_amount"))
	assert.NotEmpty(t, obj.NormalizedDDL)
}

func TestIdentifyViewTracksRelationAndFunctionDeps(t *testing.T) {
	sql := `CREATE VIEW public.active_customers AS
		SELECT id FROM public.customers WHERE public.is_active(id)`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.Equal(t, pgobj.KindView, obj.Kind)
	assert.Equal(t, pgobj.NewQualifiedName("public", "active_customers"), obj.QualifiedName)
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindTable, "public", "customers"))
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindFunction, "public", "is_active"))
}

func TestIdentifyMaterializedViewTracksRelationDeps(t *testing.T) {
	sql := `CREATE MATERIALIZED VIEW public.order_totals AS
		SELECT customer_id, sum(amount) FROM public.orders GROUP BY customer_id`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.Equal(t, pgobj.KindMaterializedView, obj.Kind)
	assert.Equal(t, pgobj.NewQualifiedName("public", "order_totals"), obj.QualifiedName)
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindTable, "public", "orders"))
}

func TestIdentifyFunctionTracksArgAndReturnTypeDeps(t *testing.T) {
	sql := `CREATE FUNCTION public.to_display(amount public.money_type) RETURNS public.display_amount
		LANGUAGE sql AS $$ SELECT amount $$`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.Equal(t, pgobj.KindFunction, obj.Kind)
	assert.Equal(t, pgobj.NewQualifiedName("public", "to_display"), obj.QualifiedName)
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindType, "public", "money_type"))
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindType, "public", "display_amount"))
}

func TestIdentifyProcedureIsKindProcedureNotFunction(t *testing.T) {
	sql := `CREATE PROCEDURE public.log_event(msg text) LANGUAGE plpgsql AS $$
		BEGIN
		INSERT INTO public.event_log (message) VALUES (msg);
		END;
		$$`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.Equal(t, pgobj.KindProcedure, obj.Kind)
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindTable, "public", "event_log"))
}

// TestIdentifyFunctionSQLBodyExtractsRefsViaDirectSplit covers the primary
// extractBodyRefs path: a LANGUAGE sql body is valid standalone SQL on its
// own, so Split succeeds directly and no fallback is needed.
func TestIdentifyFunctionSQLBodyExtractsRefsViaDirectSplit(t *testing.T) {
	sql := `CREATE FUNCTION public.current_balance(cust_id int) RETURNS numeric
		LANGUAGE sql AS $$ SELECT balance FROM public.accounts WHERE customer_id = cust_id $$`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindTable, "public", "accounts"))
}

// TestIdentifyFunctionPlpgsqlBodyFallsBackToStatementByStatementParsing covers
// the bestEffortBodyRefs fallback: the body as a whole contains a bare
// RETURN, which is never valid outside a function body, so the single
// whole-body parse Split attempts fails and extraction falls back to parsing
// each semicolon-delimited chunk independently, keeping only the ones that
// parse as standalone SQL (the UPDATE) and discarding the rest (BEGIN/RETURN/
// END parse individually as transaction control or fail outright, but
// contribute no dependency refs either way).
func TestIdentifyFunctionPlpgsqlBodyFallsBackToStatementByStatementParsing(t *testing.T) {
	sql := `CREATE FUNCTION public.adjust_balance() RETURNS void LANGUAGE plpgsql AS $$
		BEGIN; UPDATE public.accounts SET balance = balance + 1; RETURN; END;
		$$`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindTable, "public", "accounts"))
}

func TestIdentifyCompositeTypeTracksColumnTypeDeps(t *testing.T) {
	sql := `CREATE TYPE public.full_name AS (first_name public.name_part, last_name public.name_part)`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.Equal(t, pgobj.KindType, obj.Kind)
	assert.Equal(t, pgobj.NewQualifiedName("public", "full_name"), obj.QualifiedName)
	require.Len(t, obj.RawDependencies, 1)
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindType, "public", "name_part"))
}

func TestIdentifyEnumTypeHasNoDeps(t *testing.T) {
	sql := `CREATE TYPE public.order_status AS ENUM ('pending', 'shipped', 'cancelled')`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.Equal(t, pgobj.KindType, obj.Kind)
	assert.Equal(t, pgobj.NewQualifiedName("public", "order_status"), obj.QualifiedName)
	assert.Empty(t, obj.RawDependencies)
}

func TestIdentifyDomainTracksBaseTypeDep(t *testing.T) {
	sql := `CREATE DOMAIN public.positive_amount AS public.money_type CHECK (VALUE > 0)`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.Equal(t, pgobj.KindDomain, obj.Kind)
	assert.Equal(t, pgobj.NewQualifiedName("public", "positive_amount"), obj.QualifiedName)
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindType, "public", "money_type"))
}

func TestIdentifyIndexTracksRelationDep(t *testing.T) {
	sql := `CREATE INDEX idx_orders_customer ON public.orders (customer_id)`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.Equal(t, pgobj.KindIndex, obj.Kind)
	assert.Equal(t, pgobj.NewQualifiedName("public", "idx_orders_customer"), obj.QualifiedName)
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindTable, "public", "orders"))
}

func TestIdentifyExpressionIndexTracksFunctionDep(t *testing.T) {
	sql := `CREATE INDEX idx_norm_email ON public.customers (public.normalize_email(email))`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindTable, "public", "customers"))
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindFunction, "public", "normalize_email"))
}

func TestIdentifyTriggerIsKeyedByNameAndTable(t *testing.T) {
	sql := `CREATE TRIGGER trg_notify_order AFTER INSERT ON public.orders
		FOR EACH ROW EXECUTE FUNCTION public.notify_order()`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.Equal(t, pgobj.KindTrigger, obj.Kind)
	assert.Equal(t, "trg_notify_order", obj.Name)
	assert.Equal(t, pgobj.NewQualifiedName("public", "orders"), obj.TriggerTable)
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindTable, "public", "orders"))
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindFunction, "public", "notify_order"))

	key := obj.Key()
	assert.Equal(t, pgobj.TriggerKey("trg_notify_order", pgobj.NewQualifiedName("public", "orders")), key)
}

func TestIdentifyTableCommentTracksParentTable(t *testing.T) {
	sql := `COMMENT ON TABLE public.accounts IS 'holds customer balances'`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.Equal(t, pgobj.KindComment, obj.Kind)
	assert.Equal(t, pgobj.KindTable, obj.CommentParentKind)
	assert.Equal(t, pgobj.NewQualifiedName("public", "accounts"), obj.QualifiedName)
	assert.Empty(t, obj.Column)
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindTable, "public", "accounts"))

	key := obj.Key()
	assert.Equal(t, pgobj.CommentKey(pgobj.KindTable, pgobj.NewQualifiedName("public", "accounts"), ""), key)
}

func TestIdentifyColumnCommentTracksColumnAndParentTable(t *testing.T) {
	sql := `COMMENT ON COLUMN public.accounts.balance IS 'current balance'`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.Equal(t, pgobj.KindComment, obj.Kind)
	assert.Equal(t, pgobj.KindTable, obj.CommentParentKind)
	assert.Equal(t, pgobj.NewQualifiedName("public", "accounts"), obj.QualifiedName)
	assert.Equal(t, "balance", obj.Column)

	key := obj.Key()
	assert.Equal(t, pgobj.CommentKey(pgobj.KindTable, pgobj.NewQualifiedName("public", "accounts"), "balance"), key)
}

// TestIdentifyTriggerCommentTargetIsAnAcceptedLimitation locks down the
// documented accepted limitation (DESIGN.md): COMMENT ON TRIGGER encodes its
// object as a flat any-name list indistinguishable in shape from a plain
// table reference, so commentTarget resolves the last component (the
// trigger's own name) as if it were the parent object's name rather than
// separating out the owning table.
func TestIdentifyTriggerCommentTargetIsAnAcceptedLimitation(t *testing.T) {
	sql := `COMMENT ON TRIGGER trg_notify_order ON public.orders IS 'fires after insert'`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.Equal(t, pgobj.KindComment, obj.Kind)
	assert.Equal(t, pgobj.KindTrigger, obj.CommentParentKind)
	assert.Equal(t, "trg_notify_order", obj.QualifiedName.Name)
}

func TestIdentifyCommentOnUnmodeledObjectTypeIsUnrecognized(t *testing.T) {
	sql := `COMMENT ON DATABASE postgres IS 'primary database'`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	assert.Nil(t, obj)
}

func TestIdentifyCronJobNamedOverloadIsKeyedByJobName(t *testing.T) {
	sql := `SELECT cron.schedule('nightly-cleanup', '0 3 * * *', 'DELETE FROM public.audit_log;')`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.Equal(t, pgobj.KindCronJob, obj.Kind)
	assert.Equal(t, pgobj.NewQualifiedName("cron", "nightly-cleanup"), obj.QualifiedName)
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindTable, "public", "audit_log"))
}

func TestIdentifyCronJobUnnamedOverloadIsUnrecognized(t *testing.T) {
	sql := `SELECT cron.schedule('0 3 * * *', 'VACUUM;')`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	assert.Nil(t, obj)
}

func TestIdentifyAggregateTracksSfuncAndStypeDeps(t *testing.T) {
	sql := `CREATE AGGREGATE public.running_total (numeric) (
		SFUNC = public.running_total_accum,
		STYPE = public.running_total_state
	)`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.Equal(t, pgobj.KindAggregate, obj.Kind)
	assert.Equal(t, pgobj.NewQualifiedName("public", "running_total"), obj.QualifiedName)
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindFunction, "public", "running_total_accum"))
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindType, "public", "running_total_state"))
}

func TestIdentifyOperatorIsKeyedBySymbolAndOperands(t *testing.T) {
	sql := `CREATE OPERATOR public.#=# (
		LEFTARG = public.money_type,
		RIGHTARG = public.money_type,
		PROCEDURE = public.money_eq
	)`

	obj, err := sqlfront.Identify(sql)
	require.NoError(t, err)
	require.NotNil(t, obj)

	assert.Equal(t, pgobj.KindOperator, obj.Kind)
	assert.Equal(t, "money_type", obj.OperatorLeftArg)
	assert.Equal(t, "money_type", obj.OperatorRightArg)
	assert.True(t, hasDep(obj.RawDependencies, pgobj.KindFunction, "public", "money_eq"))

	key := obj.Key()
	assert.Equal(t, pgobj.OperatorKey("public", "#=#", "money_type", "money_type"), key)
}

func TestIdentifyReturnsNilForUnmodeledStatement(t *testing.T) {
	obj, err := sqlfront.Identify(`GRANT SELECT ON public.accounts TO reporting`)
	require.NoError(t, err)
	assert.Nil(t, obj)
}

func TestIdentifyRejectsMultipleStatements(t *testing.T) {
	_, err := sqlfront.Identify(`CREATE TABLE public.a (id int); CREATE TABLE public.b (id int)`)
	assert.Error(t, err)
}
