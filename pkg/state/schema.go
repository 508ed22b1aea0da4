// SPDX-License-Identifier: Apache-2.0

package state

// sqlInit creates the two catalog tables plus a version-stamp table in a
// dedicated schema (spec.md §4.3), mirroring the teacher's single
// format-string DDL blob (pkg/state/state.go's sqlInit) applied through
// fmt.Sprintf against a quoted schema identifier.
const sqlInit = `
CREATE SCHEMA IF NOT EXISTS %[1]s;

CREATE TABLE IF NOT EXISTS %[1]s.pgmg_migrations (
	name		text PRIMARY KEY,
	applied_at	timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS %[1]s.pgmg_state (
	object_type		text NOT NULL,
	object_name		text NOT NULL,
	ddl_hash		text NOT NULL,
	last_applied	timestamptz NOT NULL DEFAULT now(),

	PRIMARY KEY (object_type, object_name)
);

CREATE TABLE IF NOT EXISTS %[1]s.pgmg_meta (
	engine_version	text NOT NULL,
	initialized_at	timestamptz NOT NULL DEFAULT now()
);
`
