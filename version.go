package storyloom

import _ "embed"

// Version is the release of the library and of the storyloom binary.
//
//go:embed VERSION
var Version string
