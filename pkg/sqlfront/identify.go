// SPDX-License-Identifier: Apache-2.0

package sqlfront

import (
	"fmt"

	pgq "github.com/xataio/pg_query_go/v6"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// Identify parses a single SQL statement and classifies it into a
// pgobj.SqlObject. It returns (nil, nil) for statements the engine does not
// model (DML, GRANT, SET, transaction control, ANALYZE, ...) — callers
// (the scanner, C4) log these at warn level rather than treating them as
// errors.
func Identify(sql string) (*pgobj.SqlObject, error) {
	result, err := pgq.Parse(sql)
	if err != nil {
		return nil, err
	}
	stmts := result.GetStmts()
	if len(stmts) != 1 {
		return nil, fmt.Errorf("identify: expected exactly one statement, got %d", len(stmts))
	}

	node := stmts[0].GetStmt()
	obj, err := identifyNode(node)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, nil
	}

	ddl, err := deparseOne(node)
	if err != nil {
		// Fall back to the original text verbatim; fingerprinting still
		// works off whatever text we have, just without reserialization.
		ddl = sql
	}
	obj.NormalizedDDL = ddl
	return obj, nil
}

func identifyNode(node *pgq.Node) (*pgobj.SqlObject, error) {
	switch {
	case node.GetCreateStmt() != nil:
		return identifyCreateTable(node.GetCreateStmt())
	case node.GetViewStmt() != nil:
		return identifyView(node.GetViewStmt())
	case node.GetCreateTableAsStmt() != nil && node.GetCreateTableAsStmt().GetRelkind() == pgq.ObjectType_OBJECT_MATVIEW:
		return identifyMaterializedView(node.GetCreateTableAsStmt())
	case node.GetCreateFunctionStmt() != nil:
		return identifyFunction(node.GetCreateFunctionStmt())
	case node.GetCompositeTypeStmt() != nil:
		return identifyCompositeType(node.GetCompositeTypeStmt())
	case node.GetCreateEnumStmt() != nil:
		return identifyEnumType(node.GetCreateEnumStmt())
	case node.GetCreateDomainStmt() != nil:
		return identifyDomain(node.GetCreateDomainStmt())
	case node.GetIndexStmt() != nil:
		return identifyIndex(node.GetIndexStmt())
	case node.GetCreateTrigStmt() != nil:
		return identifyTrigger(node.GetCreateTrigStmt())
	case node.GetCommentStmt() != nil:
		return identifyComment(node.GetCommentStmt())
	case node.GetDefineStmt() != nil:
		return identifyDefine(node.GetDefineStmt())
	default:
		if isCronScheduleCall(node) {
			return identifyCronJob(node)
		}
		return nil, nil
	}
}

// deparseOne reserializes a single parsed statement back into canonical SQL
// text, used by the fingerprinter so that formatting differences never
// affect object identity.
func deparseOne(node *pgq.Node) (string, error) {
	tree := &pgq.ParseResult{
		Version: 160000,
		Stmts: []*pgq.RawStmt{
			{Stmt: node},
		},
	}
	return pgq.Deparse(tree)
}
