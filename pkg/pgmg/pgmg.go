// SPDX-License-Identifier: Apache-2.0

// Package pgmg is the embeddable programmatic surface spec.md §6 names:
// Plan and Apply, each taking a Config and wiring together every other
// package (scanner, depgraph, planner, state, applyengine) into one call.
// Grounded on the teacher's pkg/roll package, whose Roll type is the same
// kind of single entry-point wiring every lower-level piece into Start/
// Complete/Rollback.
package pgmg

import (
	"context"
	"fmt"
	"os"

	"github.com/ZakSingh/pgmg/pkg/applyengine"
	"github.com/ZakSingh/pgmg/pkg/db"
	"github.com/ZakSingh/pgmg/pkg/depgraph"
	"github.com/ZakSingh/pgmg/pkg/pgmgconfig"
	"github.com/ZakSingh/pgmg/pkg/pgmglog"
	"github.com/ZakSingh/pgmg/pkg/pgobj"
	"github.com/ZakSingh/pgmg/pkg/planner"
	"github.com/ZakSingh/pgmg/pkg/scanner"
	"github.com/ZakSingh/pgmg/pkg/state"
)

// Version is the running pgmg engine version, stamped into pgmg_meta on
// catalog creation and compared against on every subsequent run (spec.md
// §4.1-4.10). Overridden at build time via -ldflags by cmd/root.go.
var Version = "development"

// Config re-exports pgmgconfig.Config as the single configuration type this
// package's callers need; Load reads it from file/env (spec.md §6).
type Config = pgmgconfig.Config

// Load reads configuration the way pgmgconfig.Load does.
func Load() (*Config, error) {
	return pgmgconfig.Load()
}

// PlanResult reports a plan's shape without executing it (spec.md §6
// PlanResult).
type PlanResult struct {
	NewMigrations    []string
	Changes          []ChangeSummary
	DependencyGraph  *depgraph.Graph
	Warnings         []string
}

// ChangeSummary is one planned object-level change, named by its kind and
// qualified name rather than its full Operation (the plan's internal
// representation), which library callers shouldn't need to import planner
// to read.
type ChangeSummary struct {
	Action string // "create" | "update" | "delete"
	Kind   string
	Name   string
}

// Plan scans cfg.MigrationsDir and cfg.CodeDir, diffs them against the
// target database's persisted state, and returns the resulting plan without
// applying it. If dotPath is non-empty, the dependency graph is also
// written there in Graphviz DOT format (spec.md §4.6 last paragraph).
func Plan(ctx context.Context, cfg *Config, log pgmglog.Logger, dotPath string) (*PlanResult, error) {
	if log == nil {
		log = pgmglog.New()
	}

	migrations, objects, err := scan(cfg, log)
	if err != nil {
		return nil, err
	}

	rdb, err := db.Open(cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("opening connection: %w", err)
	}
	defer rdb.Close()

	st := state.New(rdb.Raw(), cfg.CatalogSchema, state.WithEngineVersion(Version))
	if err := st.Init(ctx); err != nil {
		return nil, fmt.Errorf("initializing state catalog: %w", err)
	}
	warnOnVersionMismatch(ctx, st, log)

	applied, err := st.AppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	stateObjects, err := st.LoadObjects(ctx)
	if err != nil {
		return nil, err
	}

	p, err := planner.Plan(migrations, objects, applied, stateObjects, log)
	if err != nil {
		return nil, err
	}

	graph := depgraph.Build(objects)
	if dotPath != "" {
		if err := writeDOTFile(graph, dotPath); err != nil {
			return nil, fmt.Errorf("writing dependency graph: %w", err)
		}
	}

	result := &PlanResult{DependencyGraph: graph}
	for _, m := range p.Operations {
		if m.Kind == planner.OpApplyMigration {
			result.NewMigrations = append(result.NewMigrations, m.MigrationName)
		}
	}
	for _, op := range p.Operations {
		switch op.Kind {
		case planner.OpCreateObject:
			result.Changes = append(result.Changes, ChangeSummary{Action: "create", Kind: op.Object.Kind.String(), Name: op.Object.QualifiedName.String()})
		case planner.OpUpdateObject:
			result.Changes = append(result.Changes, ChangeSummary{Action: "update", Kind: op.Object.Kind.String(), Name: op.Object.QualifiedName.String()})
		case planner.OpDeleteObject:
			if !op.PreDrop {
				result.Changes = append(result.Changes, ChangeSummary{Action: "delete", Kind: op.DeleteKey.Kind.String(), Name: op.DeleteKey.QualifiedName.String()})
			}
		}
	}
	for _, w := range p.Warnings {
		result.Warnings = append(result.Warnings, w.String())
	}

	return result, nil
}

// Apply scans, plans, and applies in one call: the full reconciliation
// spec.md §6's apply() entry point performs.
func Apply(ctx context.Context, cfg *Config, log pgmglog.Logger) (*applyengine.ApplyResult, error) {
	if log == nil {
		log = pgmglog.New()
	}

	migrations, objects, err := scan(cfg, log)
	if err != nil {
		return nil, err
	}

	rdb, err := db.Open(cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("opening connection: %w", err)
	}
	defer rdb.Close()

	st := state.New(rdb.Raw(), cfg.CatalogSchema, state.WithEngineVersion(Version))
	if err := st.Init(ctx); err != nil {
		return nil, fmt.Errorf("initializing state catalog: %w", err)
	}
	warnOnVersionMismatch(ctx, st, log)

	applied, err := st.AppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	stateObjects, err := st.LoadObjects(ctx)
	if err != nil {
		return nil, err
	}

	p, err := planner.Plan(migrations, objects, applied, stateObjects, log)
	if err != nil {
		return nil, err
	}

	opts := applyengine.Options{
		ConnectionString:    cfg.ConnectionString,
		CatalogSchema:       cfg.CatalogSchema,
		AdvisoryLockTimeout: cfg.AdvisoryLockTimeout,
		DevelopmentMode:     cfg.DevelopmentMode,
		EmitNotifyEvents:    cfg.EmitNotifyEvents,
		CheckPlpgsql:        cfg.CheckPlpgsql,
	}

	result, err := applyengine.Apply(ctx, rdb, st, p, opts, log)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// warnOnVersionMismatch logs when the catalog was stamped by a newer engine
// version than the one running now; it never blocks the run, since pgmg has
// no migration-format break to guard (spec.md §4.1-4.10).
func warnOnVersionMismatch(ctx context.Context, st *state.State, log pgmglog.Logger) {
	compat, err := st.VersionCompatibility(ctx, Version)
	if err != nil {
		log.Warn("version compatibility check failed", "error", err.Error())
		return
	}
	if compat == state.VersionCompatSchemaNewer {
		log.Warn("catalog was initialized by a newer pgmg version than this binary", "running_version", Version)
	}
}

// scan reads both input directories through the filesystem scanner (spec.md
// §4.4): migrations/ non-recursively, code/ recursively.
func scan(cfg *Config, log pgmglog.Logger) ([]scanner.MigrationFile, []*pgobj.SqlObject, error) {
	migrations, err := scanner.ScanMigrations(os.DirFS(cfg.MigrationsDir))
	if err != nil {
		return nil, nil, err
	}
	objects, err := scanner.ScanCode(os.DirFS(cfg.CodeDir), log)
	if err != nil {
		return nil, nil, err
	}
	return migrations, objects, nil
}

func writeDOTFile(g *depgraph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return g.WriteDOT(f)
}
