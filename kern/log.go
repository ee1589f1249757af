package kern

import (
	"github.com/rs/zerolog"
)

var logger = zerolog.Nop()

// SetLogger installs a structured logger used by the package.
func SetLogger(l zerolog.Logger) { logger = l }
