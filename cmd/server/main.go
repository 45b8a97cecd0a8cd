package main

import (
	"os"

	"empdir/internal/app/server"
	"empdir/internal/platform/logger"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Base().Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}
