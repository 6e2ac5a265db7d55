package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/keycustody/registration-backend/cmd/flags"
	"github.com/keycustody/registration-backend/envelope"
	"github.com/keycustody/registration-backend/httpserver"
	"github.com/keycustody/registration-backend/interfaces"
	"github.com/keycustody/registration-backend/registration"
	"github.com/keycustody/registration-backend/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "registryd",
		Usage: "Serve the custodial key registration API",
		Flags: []cli.Flag{
			flags.ListenAddrFlag,
			flags.MetricsAddrFlag,
			flags.StorageFlag,
			flags.EnvelopeIVFlag,
			flags.LogJSONFlag,
			flags.LogDebugFlag,
			flags.LogUIDFlag,
			flags.LogServiceFlag,
			flags.PprofFlag,
			flags.DrainSecondsFlag,
		},
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	sealer, err := envelope.NewSealer(cCtx.String(flags.EnvelopeIVFlag.Name))
	if err != nil {
		logger.Error("Invalid envelope IV", "err", err)
		return fmt.Errorf("invalid envelope IV: %w", err)
	}

	storageURIs := cCtx.StringSlice(flags.StorageFlag.Name)
	locations := make([]interfaces.GatewayLocation, 0, len(storageURIs))
	for _, uri := range storageURIs {
		location, err := interfaces.NewGatewayLocation(uri)
		if err != nil {
			logger.Error("Invalid storage URI", "uri", uri, "err", err)
			return err
		}
		locations = append(locations, location)
	}

	gateway, err := storage.NewFactory(logger).CreateMultiGateway(locations)
	if err != nil {
		logger.Error("Failed to create storage gateway", "err", err)
		return err
	}
	logger.Info("Storage gateway ready", "gateway", gateway.Name())

	orchestrator := registration.New(gateway, sealer, logger)
	handler := httpserver.NewHandler(orchestrator, logger)

	server := httpserver.New(flags.ConfigureServer(cCtx, logger), handler)
	server.RunInBackground()

	// Wait for termination signal
	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit
	logger.Info("Shutdown signal received")

	server.Shutdown()
	return nil
}
