package types

import (
	_ "embed"
	"strings"
)

//go:embed VERSION.txt
var versionFile string

// Version is the release of this module
var Version = strings.TrimSpace(versionFile)
