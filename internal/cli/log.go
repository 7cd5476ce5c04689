package cli

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/eim-labs/eim/internal/branding"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: branding.CLIName(),
})

// configureLogger applies the --verbose flag. Commands and collaborators
// share this one logger; nothing else constructs its own.
func configureLogger(verbose bool) {
	if verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
}
