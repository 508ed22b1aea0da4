// SPDX-License-Identifier: Apache-2.0

// Package fingerprint computes the stable content digest that defines
// object identity for diffing (spec.md §4.2). The SQL front-end
// (pkg/sqlfront) already re-serializes each statement from its parse tree
// into SqlObject.NormalizedDDL, which folds unquoted identifiers to
// lowercase as part of that re-serialization (Postgres does the case
// folding at parse time; the deparser only ever re-emits what the parse
// tree already stored). This package's remaining job per spec.md §4.2 is
// stripping `--` line comments — which pg_query_go's deparser preserves
// verbatim, including inside dollar-quoted function/procedure bodies — and
// then collapsing whitespace, before hashing.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// whitespaceRun collapses any run of whitespace (including newlines) into a
// single space, so that reformatting a declarative file never changes an
// object's fingerprint (spec.md §4.2, §8 "Update identity").
var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize strips line-ending comments and collapses whitespace in
// already-deparsed DDL text (spec.md §4.2). Comment stripping must run
// before whitespace collapsing: a `-- comment` runs to the next newline, and
// collapsing that newline to a space first would merge whatever code
// followed it into the comment, silently deleting it both from the
// fingerprint and — since pkg/applyengine executes NormalizedDDL directly —
// from the statement actually sent to Postgres. stripLineComments tracks
// single-quoted strings, double-quoted identifiers, and dollar-quoted
// bodies so a literal "--" inside any of those is never mistaken for a
// comment marker.
func Normalize(ddl string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(stripLineComments(ddl), " "))
}

// stripLineComments removes `-- ...` comments that run to the end of their
// line, recursing into dollar-quoted bodies (themselves SQL/plpgsql source
// with their own comments and nested string literals) while leaving the
// contents of single-quoted string literals and double-quoted identifiers
// untouched.
func stripLineComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	n := len(s)
	for i := 0; i < n; {
		c := s[i]
		switch {
		case c == '-' && i+1 < n && s[i+1] == '-':
			j := i + 2
			for j < n && s[j] != '\n' {
				j++
			}
			i = j

		case c == '\'':
			j := skipQuoted(s, i, '\'')
			b.WriteString(s[i:j])
			i = j

		case c == '"':
			j := skipQuoted(s, i, '"')
			b.WriteString(s[i:j])
			i = j

		case c == '$':
			if tagEnd, ok := dollarTagEnd(s, i); ok {
				closer := s[i:tagEnd]
				if end := strings.Index(s[tagEnd:], closer); end >= 0 {
					body := s[tagEnd : tagEnd+end]
					b.WriteString(closer)
					b.WriteString(stripLineComments(body))
					b.WriteString(closer)
					i = tagEnd + end + len(closer)
					continue
				}
			}
			b.WriteByte(c)
			i++

		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// skipQuoted returns the index just past the closing quote of a quoted run
// starting at s[start] (s[start] == quote), honoring the SQL convention that
// a doubled quote character is an escaped literal quote, not a terminator.
func skipQuoted(s string, start int, quote byte) int {
	n := len(s)
	j := start + 1
	for j < n {
		if s[j] == quote {
			if j+1 < n && s[j+1] == quote {
				j += 2
				continue
			}
			return j + 1
		}
		j++
	}
	return n
}

// dollarTagEnd reports the index just past a dollar-quote opening tag
// (`$$` or `$tag$`) starting at s[start] (s[start] == '$'), if one is
// well-formed there.
func dollarTagEnd(s string, start int) (int, bool) {
	n := len(s)
	j := start + 1
	for j < n && s[j] != '$' && (isAlnum(s[j]) || s[j] == '_') {
		j++
	}
	if j < n && s[j] == '$' {
		return j + 1, true
	}
	return 0, false
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// Fingerprint computes the stable hex digest for obj, sets
// obj.NormalizedDDL to the whitespace-collapsed form, and returns the
// digest. Comparing two objects' fingerprints — not their raw source text —
// is the authoritative "are they the same" test (spec.md §4.2).
func Fingerprint(obj *pgobj.SqlObject) string {
	normalized := Normalize(obj.NormalizedDDL)
	obj.NormalizedDDL = normalized
	sum := sha256.Sum256([]byte(normalized))
	digest := hex.EncodeToString(sum[:])
	obj.Fingerprint = digest
	return digest
}

// Of is a convenience for hashing arbitrary text directly, without a
// SqlObject: it normalizes the text the same way Fingerprint does, so equal
// inputs yield the digest Fingerprint would store.
func Of(normalizedDDL string) string {
	sum := sha256.Sum256([]byte(Normalize(normalizedDDL)))
	return hex.EncodeToString(sum[:])
}
