// pkg/state/env.go

package state

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads XUI_* defaults from <xui home>/xui.env into the process
// environment. Variables already set in the environment win, and a missing
// file is not an error, so precedence stays: CLI flag > process env > env
// file > built-in default.
func LoadEnvFile() error {
	home, err := Home()
	if err != nil {
		return nil // no home, no env file
	}
	path := filepath.Join(home, "xui.env")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	// godotenv.Load never overwrites existing environment variables.
	return godotenv.Load(path)
}
