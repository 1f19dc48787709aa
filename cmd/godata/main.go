// Command godata is a small client for the godata library: it logs in,
// lists calendars and events, searches YouTube and manages documents. It
// doubles as a live smoke test of the library against the real services.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
