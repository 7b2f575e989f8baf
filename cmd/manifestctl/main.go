package main

import (
	"fmt"
	"manifest-service/internal/config"
	"manifest-service/internal/platform/logger"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	lc := cfg.LoggerConfig()
	lc.Format = "console"
	lc.Output = "stderr"
	if err := logger.Setup(lc); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}
