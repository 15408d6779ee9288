// main.go

package main

import (
	"github.com/afitler79-alt/xui-installer/cmd"
	"github.com/afitler79-alt/xui-installer/pkg/logger"
	"github.com/afitler79-alt/xui-installer/pkg/state"
)

func main() {
	// Load XUI_* defaults from the env file before anything reads the
	// environment; real environment variables still win.
	_ = state.LoadEnvFile()

	logger.InitializeWithFallback()
	cmd.Execute()
}
