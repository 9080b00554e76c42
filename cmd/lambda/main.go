package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/deppfellow/user-api/internal/api"
	"github.com/deppfellow/user-api/internal/config"
	"github.com/deppfellow/user-api/internal/logger"
	"github.com/deppfellow/user-api/internal/server"
	"github.com/deppfellow/user-api/internal/serverless"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()
	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	// The server container is built once per execution environment, so the
	// database connection is shared by warm invocations.
	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	d, err := api.New(srv)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build dispatcher")
	}

	lambda.Start(serverless.NewHandler(d, &log).Handle)
}
