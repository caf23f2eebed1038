package main

import (
	"os"

	"github.com/joho/godotenv"

	appLog "icsgen/internal/log"
)

func main() {
	// .env is optional; it may set ICSGEN_CONFIG.
	if err := godotenv.Load(); err != nil {
		appLog.Debug(".env not loaded", "reason", err.Error())
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
