// SPDX-License-Identifier: Apache-2.0

// Package pgmglog defines the structured logging interface every other
// package logs through, grounded on the teacher's pkg/migrations/logger.go:
// a domain-event interface with a pterm-backed default implementation and a
// no-op implementation for embedding pgmg as a library without forcing
// output on the host application.
package pgmglog

import (
	"time"

	"github.com/pterm/pterm"
)

// Logger is responsible for narrating every phase of scanning, planning,
// and applying.
type Logger interface {
	LogScanWarning(file string, startLine, endLine int, preview string)
	LogDuplicateObject(kind, name, fileA string, lineA int, fileB string, lineB int)

	LogPlanStart()
	LogPlanComplete(migrationCount, createCount, updateCount, deleteCount int)

	LogApplyStart(runID string)
	LogLockWait(attempt int)
	LogMigrationApplied(name string)
	LogObjectApplied(action, kind, name string)
	LogPreDrop(kind, name string)
	LogApplyComplete(runID string, duration time.Duration)
	LogApplyFailed(runID string, err error)

	LogPlpgsqlFinding(objectName, level, message string)
	LogNotificationDropped(channel string, size int)

	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type pgmgLogger struct {
	logger pterm.Logger
}

// New returns the default pterm-backed Logger.
func New() Logger {
	return &pgmgLogger{logger: pterm.DefaultLogger}
}

func (l *pgmgLogger) LogScanWarning(file string, startLine, endLine int, preview string) {
	l.logger.Warn("unrecognized statement, skipping", l.logger.Args(
		"file", file, "start_line", startLine, "end_line", endLine, "preview", preview,
	))
}

func (l *pgmgLogger) LogDuplicateObject(kind, name, fileA string, lineA int, fileB string, lineB int) {
	l.logger.Error("duplicate object definition", l.logger.Args(
		"kind", kind, "name", name,
		"first", fileA, "first_line", lineA,
		"second", fileB, "second_line", lineB,
	))
}

func (l *pgmgLogger) LogPlanStart() {
	l.logger.Info("planning reconciliation")
}

func (l *pgmgLogger) LogPlanComplete(migrationCount, createCount, updateCount, deleteCount int) {
	l.logger.Info("plan ready", l.logger.Args(
		"migrations", migrationCount, "create", createCount, "update", updateCount, "delete", deleteCount,
	))
}

func (l *pgmgLogger) LogApplyStart(runID string) {
	l.logger.Info("applying plan", l.logger.Args("run_id", runID))
}

func (l *pgmgLogger) LogLockWait(attempt int) {
	l.logger.Info("waiting for advisory lock", l.logger.Args("attempt", attempt))
}

func (l *pgmgLogger) LogMigrationApplied(name string) {
	l.logger.Info("migration applied", l.logger.Args("name", name))
}

func (l *pgmgLogger) LogObjectApplied(action, kind, name string) {
	l.logger.Info(action+" object", l.logger.Args("kind", kind, "name", name))
}

func (l *pgmgLogger) LogPreDrop(kind, name string) {
	l.logger.Info("pre-dropping dependent object", l.logger.Args("kind", kind, "name", name))
}

func (l *pgmgLogger) LogApplyComplete(runID string, duration time.Duration) {
	l.logger.Info("apply complete", l.logger.Args("run_id", runID, "duration", duration.String()))
}

func (l *pgmgLogger) LogApplyFailed(runID string, err error) {
	l.logger.Error("apply failed, rolled back", l.logger.Args("run_id", runID, "error", err.Error()))
}

func (l *pgmgLogger) LogPlpgsqlFinding(objectName, level, message string) {
	l.logger.Warn("plpgsql_check finding", l.logger.Args("object", objectName, "level", level, "message", message))
}

func (l *pgmgLogger) LogNotificationDropped(channel string, size int) {
	l.logger.Warn("notification payload too large, dropped", l.logger.Args("channel", channel, "size", size))
}

func (l *pgmgLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, l.logger.Args(args))
}

func (l *pgmgLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, l.logger.Args(args))
}

func (l *pgmgLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, l.logger.Args(args))
}

type noopLogger struct{}

// NewNoop returns a Logger that discards everything, for embedding pgmg
// into a host application that drives its own logging.
func NewNoop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) LogScanWarning(file string, startLine, endLine int, preview string)             {}
func (l *noopLogger) LogDuplicateObject(kind, name, fileA string, lineA int, fileB string, lineB int) {}
func (l *noopLogger) LogPlanStart()                                                                  {}
func (l *noopLogger) LogPlanComplete(migrationCount, createCount, updateCount, deleteCount int)       {}
func (l *noopLogger) LogApplyStart(runID string)                                                      {}
func (l *noopLogger) LogLockWait(attempt int)                                                         {}
func (l *noopLogger) LogMigrationApplied(name string)                                                 {}
func (l *noopLogger) LogObjectApplied(action, kind, name string)                                      {}
func (l *noopLogger) LogPreDrop(kind, name string)                                                    {}
func (l *noopLogger) LogApplyComplete(runID string, duration time.Duration)                           {}
func (l *noopLogger) LogApplyFailed(runID string, err error)                                          {}
func (l *noopLogger) LogPlpgsqlFinding(objectName, level, message string)                             {}
func (l *noopLogger) LogNotificationDropped(channel string, size int)                                 {}
func (l *noopLogger) Info(msg string, args ...any)                                                    {}
func (l *noopLogger) Warn(msg string, args ...any)                                                    {}
func (l *noopLogger) Error(msg string, args ...any)                                                   {}
