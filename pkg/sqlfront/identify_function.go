// SPDX-License-Identifier: Apache-2.0

package sqlfront

import (
	"strings"

	pgq "github.com/xataio/pg_query_go/v6"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// procedurialLanguages names the LANGUAGE values whose function body is
// itself SQL/PL that must be parsed a second time to extract the relations,
// types, and functions it references (spec.md §4.1).
var procedurialLanguages = map[string]bool{
	"plpgsql": true,
	"sql":     true,
}

// identifyFunction classifies a CREATE [OR REPLACE] FUNCTION|PROCEDURE
// statement. Dependencies include argument and return types, and — when the
// body is procedural — any relations, types, and functions named in the
// body via a second parse of the body string.
func identifyFunction(stmt *pgq.CreateFunctionStmt) (*pgobj.SqlObject, error) {
	name := stmt.GetFuncname()
	schema, fname := splitAnyName(name)
	if fname == "" {
		return nil, nil
	}

	kind := pgobj.KindFunction
	if stmt.GetIsProcedure() {
		kind = pgobj.KindProcedure
	}

	var deps []pgobj.DependencyRef
	for _, p := range stmt.GetParameters() {
		fp := p.GetFunctionParameter()
		if fp == nil || fp.GetArgType() == nil {
			continue
		}
		deps = append(deps, collectTypeRefs(&pgq.Node{Node: &pgq.Node_TypeName{TypeName: fp.GetArgType()}})...)
	}
	if stmt.GetReturnType() != nil {
		deps = append(deps, collectTypeRefs(&pgq.Node{Node: &pgq.Node_TypeName{TypeName: stmt.GetReturnType()}})...)
	}

	language, body := functionLanguageAndBody(stmt)
	if procedurialLanguages[language] && body != "" {
		bodyRefs, err := extractBodyRefs(body)
		if err == nil {
			deps = append(deps, bodyRefs...)
		}
		// A body the inner parser rejects (e.g. dialect quirks the
		// front-end doesn't fully model) is not itself a SqlParse failure
		// for the CREATE FUNCTION statement: dependencies simply aren't
		// extracted from it.
	}

	return &pgobj.SqlObject{
		Kind:            kind,
		QualifiedName:   pgobj.NewQualifiedName(schema, fname),
		RawDependencies: mergeRefs(deps),
	}, nil
}

// functionLanguageAndBody extracts the LANGUAGE option and the literal body
// text (the "AS" clause) from a CREATE FUNCTION/PROCEDURE statement's
// option list.
func functionLanguageAndBody(stmt *pgq.CreateFunctionStmt) (language, body string) {
	for _, opt := range stmt.GetOptions() {
		def := opt.GetDefElem()
		if def == nil {
			continue
		}
		switch def.GetDefname() {
		case "language":
			language = def.GetArg().GetString_().GetSval()
		case "as":
			items := def.GetArg().GetList().GetItems()
			if len(items) > 0 {
				body = items[0].GetString_().GetSval()
			}
		}
	}
	return language, body
}

// extractBodyRefs parses a procedural function body as a sequence of
// statements and collects every relation, type, and function it
// references. A PL/pgSQL body commonly contains multiple statements
// (DECLARE/BEGIN blocks aren't directly parseable by the SQL grammar), so
// this walks the body with a permissive best-effort statement splitter and
// only keeps the statements that do parse as plain SQL.
func extractBodyRefs(body string) ([]pgobj.DependencyRef, error) {
	var refs []pgobj.DependencyRef
	stmts, err := Split(body)
	if err != nil {
		// PL/pgSQL control-flow syntax (IF/LOOP/DECLARE) isn't valid bare
		// SQL; fall back to parsing each semicolon-delimited chunk of the
		// body on its own (bestEffortBodyRefs below).
		return bestEffortBodyRefs(body), nil
	}
	for _, s := range stmts {
		result, err := pgq.Parse(s.SQL)
		if err != nil {
			continue
		}
		for _, raw := range result.GetStmts() {
			refs = append(refs, collectRelationRefs(raw.GetStmt())...)
			refs = append(refs, collectFuncRefs(raw.GetStmt())...)
			refs = append(refs, collectTypeRefs(raw.GetStmt())...)
		}
	}
	return dedupeRefs(refs), nil
}

// bestEffortBodyRefs scans a PL/pgSQL body that the SQL parser rejects
// outright (e.g. a full DECLARE/BEGIN/END block) by parsing each
// semicolon-delimited chunk independently and ignoring the chunks that
// aren't valid standalone SQL (IF/LOOP/RETURN and friends).
func bestEffortBodyRefs(body string) []pgobj.DependencyRef {
	var refs []pgobj.DependencyRef
	for _, chunk := range splitNaive(body) {
		// A block's opening BEGIN shares its chunk with the statement after
		// it ("BEGIN INSERT ..."), which is not valid standalone SQL, so the
		// keyword is dropped before parsing.
		if fields := strings.Fields(chunk); len(fields) > 1 && strings.EqualFold(fields[0], "BEGIN") {
			chunk = strings.TrimSpace(chunk)[len(fields[0]):]
		}
		result, err := pgq.Parse(chunk)
		if err != nil {
			continue
		}
		for _, raw := range result.GetStmts() {
			refs = append(refs, collectRelationRefs(raw.GetStmt())...)
			refs = append(refs, collectFuncRefs(raw.GetStmt())...)
			refs = append(refs, collectTypeRefs(raw.GetStmt())...)
		}
	}
	return dedupeRefs(refs)
}

// splitNaive performs a plain semicolon split, used only as the last-resort
// fallback in bestEffortBodyRefs above (full dollar-quote/comment-aware
// splitting is Split's job and requires text the outer parser accepts).
func splitNaive(body string) []string {
	var out []string
	start := 0
	for i, r := range body {
		if r == ';' {
			out = append(out, body[start:i])
			start = i + 1
		}
	}
	if start < len(body) {
		out = append(out, body[start:])
	}
	return out
}
