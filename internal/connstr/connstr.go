// SPDX-License-Identifier: Apache-2.0

// Package connstr builds connection string query parameters, grounded on
// the teacher's internal/connstr.AppendSearchPathOption (URL-parse, set a
// query parameter, re-encode). pgmg doesn't need a search_path override —
// every object it touches is already schema-qualified — so the same
// URL-surgery shape is redirected at the TLS settings spec.md §6's
// Configuration recognizes (mode, root_cert, client_cert, client_key).
package connstr

import (
	"fmt"
	"net/url"
)

// TLSMode is the connection's SSL negotiation mode, one of the five values
// lib/pq's sslmode parameter recognizes.
type TLSMode string

const (
	TLSDisable    TLSMode = "disable"
	TLSPrefer     TLSMode = "prefer"
	TLSRequire    TLSMode = "require"
	TLSVerifyCA   TLSMode = "verify-ca"
	TLSVerifyFull TLSMode = "verify-full"
)

// Valid reports whether m is one of the five recognized TLS modes.
func (m TLSMode) Valid() bool {
	switch m {
	case TLSDisable, TLSPrefer, TLSRequire, TLSVerifyCA, TLSVerifyFull:
		return true
	default:
		return false
	}
}

// TLSSettings carries the TLS-related connection string parameters spec.md
// §6's Configuration recognizes. Negotiating the handshake itself is the
// driver's job, not pgmg's (spec.md §1 Non-goals: "connection TLS
// negotiation"); this only builds the DSN the driver reads.
type TLSSettings struct {
	Mode       TLSMode
	RootCert   string
	ClientCert string
	ClientKey  string
}

// WithTLS takes a PostgreSQL URL connection string and returns the same
// string with TLS query parameters applied.
func WithTLS(connStr string, tls TLSSettings) (string, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return "", fmt.Errorf("parsing connection string: %w", err)
	}

	if tls.Mode == "" {
		return connStr, nil
	}
	if !tls.Mode.Valid() {
		return "", fmt.Errorf("invalid TLS mode %q", tls.Mode)
	}

	q := u.Query()
	q.Set("sslmode", string(tls.Mode))
	if tls.RootCert != "" {
		q.Set("sslrootcert", tls.RootCert)
	}
	if tls.ClientCert != "" {
		q.Set("sslcert", tls.ClientCert)
	}
	if tls.ClientKey != "" {
		q.Set("sslkey", tls.ClientKey)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
