// SPDX-License-Identifier: Apache-2.0

package fingerprint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZakSingh/pgmg/pkg/fingerprint"
	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	a := fingerprint.Normalize("CREATE  VIEW   foo AS\n\nSELECT 1;")
	b := fingerprint.Normalize("CREATE VIEW foo AS SELECT 1;")
	assert.Equal(t, a, b)
	assert.Equal(t, "CREATE VIEW foo AS SELECT 1;", a)
}

func TestNormalizeStripsLineEndingComment(t *testing.T) {
	ddl := "CREATE FUNCTION f() RETURNS int AS $$\nBEGIN\n  -- increment the counter\n  RETURN 1;\nEND;\n$$ LANGUAGE plpgsql;"

	got := fingerprint.Normalize(ddl)

	assert.NotContains(t, got, "increment the counter")
	assert.Contains(t, got, "RETURN 1;")
	assert.Contains(t, got, "END;")
}

func TestNormalizeCommentStrippingIsStableAcrossReformatting(t *testing.T) {
	withComment := "CREATE FUNCTION f() RETURNS int AS $$\nBEGIN\n  -- explain this\n  RETURN 1;\nEND;\n$$ LANGUAGE plpgsql;"
	withoutComment := "CREATE FUNCTION f() RETURNS int AS $$\nBEGIN\n  RETURN 1;\nEND;\n$$ LANGUAGE plpgsql;"

	assert.Equal(t, fingerprint.Normalize(withoutComment), fingerprint.Normalize(withComment))
}

func TestNormalizeLeavesDashesInsideStringLiteralsAlone(t *testing.T) {
	ddl := "CREATE TABLE t (id int, note text DEFAULT 'a -- not a comment')"

	got := fingerprint.Normalize(ddl)

	assert.Contains(t, got, "a -- not a comment")
}

func TestNormalizeLeavesDashesInsideDoubleQuotedIdentifiersAlone(t *testing.T) {
	ddl := `CREATE VIEW v AS SELECT 1 AS "weird--name"`

	got := fingerprint.Normalize(ddl)

	assert.Contains(t, got, `"weird--name"`)
}

func TestNormalizeStripsCommentsInsideNamedDollarQuote(t *testing.T) {
	ddl := "CREATE FUNCTION f() RETURNS int AS $body$\nBEGIN\n  -- notice this\n  RAISE NOTICE 'literal -- stays';\n  RETURN 1;\nEND;\n$body$ LANGUAGE plpgsql;"

	got := fingerprint.Normalize(ddl)

	assert.NotContains(t, got, "notice this")
	assert.Contains(t, got, "literal -- stays")
	assert.Contains(t, got, "RETURN 1;")
}

func TestFingerprintSetsNormalizedDDLAndIsStableAcrossFormatting(t *testing.T) {
	objA := &pgobj.SqlObject{NormalizedDDL: "CREATE VIEW foo AS\nSELECT 1; -- trailing remark"}
	objB := &pgobj.SqlObject{NormalizedDDL: "CREATE VIEW foo AS SELECT 1;"}

	digestA := fingerprint.Fingerprint(objA)
	digestB := fingerprint.Fingerprint(objB)

	require.Equal(t, digestA, digestB)
	assert.Equal(t, "CREATE VIEW foo AS SELECT 1;", objA.NormalizedDDL)
	assert.Equal(t, objA.NormalizedDDL, objB.NormalizedDDL)
}

func TestOfMatchesFingerprintForEquivalentText(t *testing.T) {
	obj := &pgobj.SqlObject{NormalizedDDL: "CREATE VIEW foo AS SELECT 1; -- note"}
	digest := fingerprint.Fingerprint(obj)

	assert.Equal(t, digest, fingerprint.Of("CREATE VIEW foo AS SELECT 1;"))
}
