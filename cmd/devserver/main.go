// Command devserver runs the backup relay as a local HTTP server.
package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/paymangay/backuprelay/internal/config"
	"github.com/paymangay/backuprelay/internal/devserver"
	"github.com/paymangay/backuprelay/internal/logger"
	"github.com/paymangay/backuprelay/pkg/backup"
)

func main() {

	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("could not load config")
	}
	log := logger.New(cfg.LogLevel)

	router := newRouter(cfg, log)

	log.Info().Str("addr", cfg.DevAddr).Str("route", devserver.Route).Msg("starting dev server")
	if err := router.Run(cfg.DevAddr); err != nil {
		log.Fatal().Err(err).Msg("dev server stopped")
	}
}

// newRouter serves the relay with notifications off
func newRouter(cfg *config.Config, log zerolog.Logger) *gin.Engine {
	h := backup.NewHandler(cfg, log, nil)
	return devserver.NewRouter(h, cfg.MaxBodyBytes)
}
