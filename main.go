package main

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/doronEilam/blog/internal/cli"
	"github.com/doronEilam/blog/pkg/logger"
	"github.com/doronEilam/blog/pkg/metrics"
)

func main() {
	// logging is controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	if err := cli.Execute(); err != nil {
		logger.Errorf("command failed: %v", err)
		os.Exit(1)
	}
}
