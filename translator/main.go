package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	translator "github.com/xfel-daq/translator_go/pkg"
)

var configuration translator.Configuration

var (
	logger         zerolog.Logger
	VerbosityLevel int
)

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	var err error
	configuration, err = translator.LoadConfiguration(*configFilename)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error reading configuration file:", err)
		os.Exit(1)
	}

	logger, err = translator.NewLogger(os.Stdout, configuration.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error building logger:", err)
		os.Exit(1)
	}
	translator.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		logger.Info().Str("module", "main").
			Msgf("Reading configuration file: %s", *configFilename)
		translator.PrintConfiguration(configuration, logger)
	}

	if configuration.MetricsAddr != "" {
		go serveMetrics(configuration.MetricsAddr)
	}

	tr, err := translator.NewTranslator(configuration)
	if err != nil {
		logger.Error().Msgf("Error creating translator: %v", err)
		os.Exit(1)
	}

	if !configuration.NoDB {
		dbConn, err := translator.ConnectToDatabase(configuration.User,
			configuration.Passwd, configuration.Host, configuration.DBName)
		if err != nil {
			logger.Error().Msgf("Error connecting to database: %v", err)
			os.Exit(1)
		}
		defer dbConn.Close()
		if err := tr.LoadDetectorAliases(dbConn, configuration.RunNumber); err != nil {
			logger.Error().Msgf("Error loading detector aliases: %v", err)
			os.Exit(1)
		}
	}

	tr.SetEndOfRunHook(func() {
		logger.Info().Str("module", "main").Msg("Run finished, notifying coordinator")
	})

	start := time.Now()
	evtsProcessed := 0
	for {
		evt, err := tr.NextEvent()
		if err != nil {
			if !errors.Is(err, translator.ErrEndOfRun) {
				logger.Error().Msgf("Error reading event: %v", err)
				os.Exit(1)
			}
			break
		}
		id, err := evt.ID()
		if err != nil {
			logger.Error().Msgf("Error reading event identifier: %v", err)
			continue
		}
		if VerbosityLevel > 1 {
			logger.Info().Str("module", "main").
				Msgf("Processed event: %d, id %.9f, keys %v", evtsProcessed, id, evt.Keys())
		}
		evtsProcessed++
	}

	duration := time.Since(start)
	logger.Info().Str("module", "main").
		Msgf("Total events processed: %d in %d ms", evtsProcessed, duration.Milliseconds())
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(translator.MetricsRegistry(), promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Msgf("Metrics server stopped: %v", err)
	}
}
