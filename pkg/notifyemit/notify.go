// SPDX-License-Identifier: Apache-2.0

// Package notifyemit publishes a best-effort NOTIFY event for every object
// mutated in development mode (spec.md §4.9), issued the way the teacher's
// pkg/db issues any other statement on the apply transaction — pgmg never
// LISTENs itself, so no separate pub/sub library is grounded for this.
package notifyemit

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/ZakSingh/pgmg/pkg/pgmgerrs"
	"github.com/ZakSingh/pgmg/pkg/pgmglog"
	"github.com/ZakSingh/pgmg/pkg/pgobj"
)

// Channel is the fixed NOTIFY channel name spec.md §6 defines.
const Channel = "pgmg.object_loaded"

// maxPayloadBytes is PostgreSQL's NOTIFY payload limit, minus headroom for
// the channel name and protocol framing (spec.md §4.9, §7 NotificationOversize).
const maxPayloadBytes = 7900

type span struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

type objectLoadedNotification struct {
	Type   string `json:"type"`
	Schema string `json:"schema"`
	Name   string `json:"name"`
	File   string `json:"file"`
	Span   span   `json:"span"`
}

// Emit publishes an ObjectLoadedNotification for obj on tx. Failure is
// always non-fatal to the caller: an oversized payload is logged and
// dropped, and any NOTIFY error is returned for the caller to log rather
// than to roll back the apply over.
func Emit(ctx context.Context, tx *sql.Tx, obj *pgobj.SqlObject, log pgmglog.Logger) error {
	n := objectLoadedNotification{
		Type:   obj.Kind.String(),
		Schema: obj.Schema,
		Name:   obj.Name,
		File:   obj.Location.File,
		Span:   span{StartLine: obj.Location.StartLine, EndLine: obj.Location.EndLine},
	}

	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if len(data) > maxPayloadBytes {
		log.LogNotificationDropped(Channel, len(data))
		return pgmgerrs.NotificationOversizeError{Object: obj.Key(), Bytes: len(data)}
	}

	_, err = tx.ExecContext(ctx, "SELECT pg_notify($1, $2)", Channel, string(data))
	return err
}
