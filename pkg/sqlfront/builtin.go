// SPDX-License-Identifier: Apache-2.0

package sqlfront

import "strings"

// builtinSchemas enumerates the system schemas whose members are never part
// of a scan: references into them are dropped rather than retained as
// external-to-scan vertices (spec.md §4.1, §4.5).
var builtinSchemas = map[string]bool{
	"pg_catalog":         true,
	"information_schema": true,
	"pg_toast":           true,
}

// builtinFuncs and builtinTypes enumerate the standard language-provided
// functions and types that may appear unqualified in any statement. This is
// not an exhaustive catalog of Postgres builtins — it covers the names that
// show up routinely in DDL (defaults, casts, trigger functions, common
// argument/return types) so that a reference to them is correctly filtered
// out instead of being retained as a dangling external dependency.
var builtinFuncs = map[string]bool{
	"now": true, "current_timestamp": true, "current_date": true, "current_time": true,
	"current_user": true, "session_user": true, "current_setting": true,
	"gen_random_uuid": true, "uuid_generate_v4": true, "nextval": true, "currval": true,
	"lower": true, "upper": true, "length": true, "coalesce": true, "greatest": true, "least": true,
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"array_agg": true, "json_build_object": true, "jsonb_build_object": true,
	"make_interval": true, "extract": true, "to_char": true, "to_timestamp": true,
}

var builtinTypes = map[string]bool{
	"int": true, "int2": true, "int4": true, "int8": true, "smallint": true, "integer": true, "bigint": true,
	"text": true, "varchar": true, "character varying": true, "char": true, "character": true,
	"bool": true, "boolean": true, "numeric": true, "decimal": true, "real": true, "float4": true,
	"double precision": true, "float8": true, "date": true, "time": true, "timestamp": true,
	"timestamptz": true, "timestamp with time zone": true, "timestamp without time zone": true,
	"uuid": true, "json": true, "jsonb": true, "bytea": true, "interval": true, "money": true,
	"inet": true, "cidr": true, "macaddr": true, "point": true, "void": true, "trigger": true,
	"anyelement": true, "anyarray": true, "record": true, "name": true, "oid": true, "regclass": true,
	"regproc": true, "regtype": true,
}

// isBuiltinSchema reports whether schema is a system schema whose contents
// are never tracked by the scanner.
func isBuiltinSchema(schema string) bool {
	return builtinSchemas[strings.ToLower(schema)]
}

// isBuiltinFunc reports whether an unqualified function reference names a
// standard, language-provided function.
func isBuiltinFunc(name string) bool {
	return builtinFuncs[strings.ToLower(name)]
}

// isBuiltinType reports whether an unqualified type reference names a
// standard, language-provided type.
func isBuiltinType(name string) bool {
	return builtinTypes[strings.ToLower(name)]
}
