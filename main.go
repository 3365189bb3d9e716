package main

import (
	"os"

	"github.com/joho/godotenv"

	"ad-monitor/cmd"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cmd.SetVersion(version)
	if err := cmd.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
