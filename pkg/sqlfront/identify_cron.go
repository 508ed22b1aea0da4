// SPDX-License-Identifier: Apache-2.0

package sqlfront

import (
	pgq "github.com/xataio/pg_query_go/v6"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// cronScheduleFuncs names the pg_cron scheduling entry points recognized as
// CronJob declarations (spec.md §4.1: "Cron-scheduling statements recognized
// by their invocation of a known scheduling function → CronJob"). Only the
// named-job overload (job_name, schedule, command) carries a stable identity
// the engine can reconcile against; the unnamed two-argument overload has no
// key to diff on and is left unmodeled.
var cronScheduleFuncs = map[string]bool{
	"cron.schedule":             true,
	"cron.schedule_in_database": true,
}

// isCronScheduleCall reports whether node is a bare SELECT of a single
// pg_cron scheduling call, e.g. `SELECT cron.schedule('nightly-vacuum',
// '0 3 * * *', 'VACUUM;')`.
func isCronScheduleCall(node *pgq.Node) bool {
	return cronScheduleCall(node) != nil
}

// cronScheduleCall extracts the FuncCall node if node is a recognized cron
// scheduling statement, or nil otherwise.
func cronScheduleCall(node *pgq.Node) *pgq.FuncCall {
	sel := node.GetSelectStmt()
	if sel == nil || len(sel.GetTargetList()) != 1 {
		return nil
	}
	res := sel.GetTargetList()[0].GetResTarget()
	if res == nil {
		return nil
	}
	fc := res.GetVal().GetFuncCall()
	if fc == nil {
		return nil
	}
	schema, name := splitAnyName(fc.GetFuncname())
	if schema == "" {
		schema = "cron"
	}
	if !cronScheduleFuncs[schema+"."+name] {
		return nil
	}
	return fc
}

// identifyCronJob classifies a recognized cron scheduling call. It is keyed
// by job name (the function's first argument in the named-job overload);
// dependencies are whatever relations and functions the scheduled command
// itself references.
func identifyCronJob(node *pgq.Node) (*pgobj.SqlObject, error) {
	fc := cronScheduleCall(node)
	if fc == nil {
		return nil, nil
	}
	args := fc.GetArgs()
	if len(args) < 3 {
		return nil, nil
	}

	jobName := args[0].GetAConst().GetSval().GetSval()
	command := args[2].GetAConst().GetSval().GetSval()
	if jobName == "" {
		return nil, nil
	}

	var deps []pgobj.DependencyRef
	if cmdRefs, err := extractBodyRefs(command); err == nil {
		deps = cmdRefs
	}

	return &pgobj.SqlObject{
		Kind:            pgobj.KindCronJob,
		QualifiedName:   pgobj.NewQualifiedName("cron", jobName),
		RawDependencies: mergeRefs(deps),
	}, nil
}
