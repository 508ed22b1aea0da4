// SPDX-License-Identifier: Apache-2.0

// Package sqlfront is the SQL front-end (C1): it splits a file's content
// into individually addressable statements with line spans, and classifies
// each statement into a typed pgobj.SqlObject.
//
// Splitting and classification are both driven by
// github.com/xataio/pg_query_go/v6, the real libpg_query binding — this
// avoids re-implementing a SQL tokenizer that would otherwise need to
// understand dollar-quoted bodies, nested block comments, and string
// literals correctly.
package sqlfront

import (
	"strings"

	pgq "github.com/xataio/pg_query_go/v6"
)

// Statement is one top-level statement extracted from a file, with its
// 1-based, inclusive line span.
type Statement struct {
	Index     int
	SQL       string
	StartLine int
	EndLine   int
}

// Split parses content as a sequence of semicolon-separated statements and
// returns each non-empty one with its source line span. Empty statements
// (stray semicolons, whitespace-only segments) are discarded.
func Split(content string) ([]Statement, error) {
	result, err := pgq.Parse(content)
	if err != nil {
		return nil, err
	}

	stmts := make([]Statement, 0, len(result.GetStmts()))
	for i, raw := range result.GetStmts() {
		start := int(raw.GetStmtLocation())
		length := int(raw.GetStmtLen())
		if length <= 0 {
			length = len(content) - start
		}
		end := start + length
		if end > len(content) {
			end = len(content)
		}

		text := strings.TrimSpace(content[start:end])
		if text == "" {
			continue
		}

		stmts = append(stmts, Statement{
			Index:     i,
			SQL:       text,
			StartLine: lineAt(content, start),
			EndLine:   lineAt(content, end),
		})
	}

	return stmts, nil
}

// lineAt returns the 1-based line number of byte offset pos in content.
func lineAt(content string, pos int) int {
	if pos > len(content) {
		pos = len(content)
	}
	return strings.Count(content[:pos], "\n") + 1
}

// Preview returns an 80-character preview of sql, used in logs and error
// messages for statements the front-end could not parse or classify.
func Preview(sql string) string {
	sql = strings.Join(strings.Fields(sql), " ")
	const maxLen = 80
	if len(sql) <= maxLen {
		return sql
	}
	return sql[:maxLen-1] + "…"
}
