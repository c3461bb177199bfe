package clocktower

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the release of the engine.
var Version = strings.TrimSpace(version)
