// SPDX-License-Identifier: Apache-2.0

package state

// StateOpt configures optional State behavior at construction, mirroring
// the teacher's pkg/state/opts.go.
type StateOpt func(s *State)

// WithEngineVersion sets the pgmg engine version that Init stamps into
// pgmg_meta the first time it creates the catalog schema, and that
// VersionCompatibility compares an existing schema's stamp against.
func WithEngineVersion(version string) StateOpt {
	return func(s *State) {
		s.engineVersion = version
	}
}
