package microcosm

import _ "embed"

// Version is the release version, embedded from the VERSION file at the
// repository root. Consumers should strings.TrimSpace it.
//
//go:embed VERSION
var Version string
