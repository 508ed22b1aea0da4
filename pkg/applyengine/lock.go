// SPDX-License-Identifier: Apache-2.0

package applyengine

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ZakSingh/pgmg/pkg/pgmgerrs"
	"github.com/ZakSingh/pgmg/pkg/pgmglog"
)

// lockPollInterval is the non-blocking re-acquisition interval spec.md
// §4.7 Step 1 names explicitly ("polling ... every second").
const lockPollInterval = 1 * time.Second

// clusterIdentity extracts the (host, port, database) triple a DSN
// addresses, used to key the advisory lock so two pgmg processes pointed at
// the same physical database contend correctly regardless of which
// credentials each connected with (spec.md §5).
func clusterIdentity(dsn string) (host string, port string, database string, err error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", "", "", fmt.Errorf("parsing connection string: %w", err)
	}
	host = u.Hostname()
	port = u.Port()
	if port == "" {
		port = "5432"
	}
	database = strings.TrimPrefix(u.Path, "/")
	return host, port, database, nil
}

// acquireAdvisoryLock polls pg_try_advisory_lock on a connection-scoped
// session lock keyed by hashtext(host:port:database:"pgmg_apply"), released
// automatically if the session ends without an explicit unlock (spec.md
// §4.7 Step 1, Step 6).
func acquireAdvisoryLock(ctx context.Context, conn *sql.Conn, dsn string, timeout time.Duration, log pgmglog.Logger) (int64, error) {
	host, port, database, err := clusterIdentity(dsn)
	if err != nil {
		return 0, err
	}
	lockKey := fmt.Sprintf("%s:%s:%s:pgmg_apply", host, port, database)

	var hash int64
	if err := conn.QueryRowContext(ctx, "SELECT hashtext($1)", lockKey).Scan(&hash); err != nil {
		return 0, fmt.Errorf("computing advisory lock key: %w", err)
	}

	deadline := time.Now().Add(timeout)
	attempt := 0
	for {
		attempt++
		var acquired bool
		row := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", hash)
		if err := row.Scan(&acquired); err != nil {
			return 0, fmt.Errorf("polling advisory lock: %w", err)
		}
		if acquired {
			return hash, nil
		}

		log.LogLockWait(attempt)
		if time.Now().After(deadline) {
			return 0, pgmgerrs.AdvisoryLockTimeoutError{TimeoutSeconds: timeout.Seconds()}
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func releaseAdvisoryLock(ctx context.Context, conn *sql.Conn, hash int64) error {
	_, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", hash)
	return err
}
