package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iotplatform/device-onboarding/internal/api"
	"github.com/iotplatform/device-onboarding/internal/archive"
	"github.com/iotplatform/device-onboarding/internal/clients"
	"github.com/iotplatform/device-onboarding/internal/fallback"
	"github.com/iotplatform/device-onboarding/internal/models"
	"github.com/iotplatform/device-onboarding/internal/observability"
	"github.com/iotplatform/device-onboarding/internal/probe"
	"github.com/iotplatform/device-onboarding/internal/report"
	"github.com/iotplatform/device-onboarding/internal/services"
	"github.com/iotplatform/device-onboarding/internal/utils"
	"github.com/iotplatform/device-onboarding/pkg/file"
	"github.com/iotplatform/device-onboarding/pkg/objectstore"
)

var (
	configPath string
	draftPath  string
	filePath   string
	reportPath string
)

var rootCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Device onboarding workflow runner for the IoT platform",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single onboarding workflow from a draft file and a PDF",
	RunE:  executeRun,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the onboarding workflow over HTTP",
	RunE:  executeServe,
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check whether a drafted device's connection target is reachable",
	RunE:  executeProbe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	runCmd.Flags().StringVarP(&draftPath, "draft", "d", "", "Path to the device draft YAML file (required)")
	runCmd.Flags().StringVarP(&filePath, "file", "f", "", "Path to the device documentation PDF (required)")
	runCmd.Flags().StringVarP(&reportPath, "report", "r", "", "Write an onboarding summary PDF to this path")
	runCmd.MarkFlagRequired("draft")
	runCmd.MarkFlagRequired("file")

	probeCmd.Flags().StringVarP(&draftPath, "draft", "d", "", "Path to the device draft YAML file (required)")
	probeCmd.MarkFlagRequired("draft")

	rootCmd.AddCommand(runCmd, serveCmd, probeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads .env, the YAML config, and builds the logger shared by every
// subcommand.
func setup() (*utils.Config, file.FileOperations, zerolog.Logger, error) {
	// Secrets (API tokens, object storage keys) come from the environment.
	godotenv.Load()

	fileClient := file.NewFileService()
	config, err := utils.LoadConfig(configPath, fileClient)
	if err != nil {
		return nil, nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}

	level, err := zerolog.ParseLevel(config.Logging.Level)
	if err != nil || config.Logging.Level == "" {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	return config, fileClient, logger, nil
}

// buildService wires the network adapters and fallback generator from config.
func buildService(config *utils.Config, logger zerolog.Logger) (*services.OnboardingService, *clients.RulesClient) {
	uploader := clients.NewUploadClient(
		config.ProcessingService.BaseURL,
		os.Getenv("PROCESSING_AUTH_TOKEN"),
		config.ProcessingService.Timeout*time.Second,
		logger.With().Str("client", "upload").Logger(),
	)
	rulesClient := clients.NewRulesClient(
		config.ProcessingService.BaseURL,
		os.Getenv("PROCESSING_AUTH_TOKEN"),
		config.ProcessingService.ChunkSize,
		config.ProcessingService.MaxRetries,
		config.ProcessingService.BaseDelay*time.Second,
		config.ProcessingService.MaxBackoff*time.Second,
		config.ProcessingService.Timeout*time.Second,
		logger.With().Str("client", "rules").Logger(),
	)
	registrar := clients.NewDeviceClient(
		config.DeviceRegistry.BaseURL,
		os.Getenv("REGISTRY_AUTH_TOKEN"),
		config.DeviceRegistry.Timeout*time.Second,
		logger.With().Str("client", "registry").Logger(),
	)

	svc := services.NewOnboardingService(uploader, registrar, rulesClient, fallback.NewGenerator(), logger)
	return svc, rulesClient
}

func loadDraft(fileClient file.FileOperations) (models.DeviceDraft, error) {
	var draft models.DeviceDraft
	if err := fileClient.ReadYamlFile(draftPath, &draft); err != nil {
		return draft, fmt.Errorf("failed to read device draft: %w", err)
	}
	return draft, nil
}

func executeRun(cmd *cobra.Command, args []string) error {
	config, fileClient, logger, err := setup()
	if err != nil {
		return err
	}

	draft, err := loadDraft(fileClient)
	if err != nil {
		return err
	}

	data, err := fileClient.ReadFileRaw(filePath)
	if err != nil {
		return fmt.Errorf("failed to read documentation file: %w", err)
	}
	doc := models.DocumentUpload{
		Filename:    filepath.Base(filePath),
		ContentType: models.PDFContentType,
		Data:        data,
	}

	svc, rulesClient := buildService(config, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rulesClient.CheckCompatibility(ctx); err != nil {
		logger.Warn().Err(err).Msg("Processing service compatibility check failed")
	}

	result, err := svc.CompleteOnboarding(ctx, draft, doc, func(event models.ProgressEvent) {
		logger.Info().
			Str("stage", string(event.Stage)).
			Float64("progress", event.Progress).
			Str("sub_message", event.SubMessage).
			Msg(event.Message)
	})
	if err != nil {
		return fmt.Errorf("onboarding failed: %w", err)
	}

	if reportPath != "" {
		var buf bytes.Buffer
		if err := report.Write(&buf, draft, *result); err != nil {
			return err
		}
		if err := fileClient.WriteFileRaw(reportPath, buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.Info().Str("path", reportPath).Msg("Wrote onboarding report")
	}

	encoded, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(encoded))
	return nil
}

func executeServe(cmd *cobra.Command, args []string) error {
	config, _, logger, err := setup()
	if err != nil {
		return err
	}

	svc, _ := buildService(config, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(registry)

	var archiver services.Archiver
	if config.Archive.Enabled {
		store, err := objectstore.New(
			config.Archive.Endpoint,
			os.Getenv("ARCHIVE_ACCESS_KEY"),
			os.Getenv("ARCHIVE_SECRET_KEY"),
			config.Archive.UseSSL,
			config.Archive.Bucket,
		)
		if err != nil {
			return fmt.Errorf("failed to connect to object storage: %w", err)
		}
		archiver = archive.NewDocumentArchive(store, logger)
	}

	manager := services.NewRunManager(
		svc,
		config.Server.Workers,
		config.Server.RunTimeout*time.Second,
		archiver,
		metrics,
		logger,
	)
	defer manager.Shutdown()

	server := api.NewServer(manager, logger)
	httpServer := &http.Server{
		Addr:    config.Server.ListenAddress,
		Handler: server.Routes(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", config.Server.ListenAddress).Msg("Onboarding API listening")
		errCh <- httpServer.ListenAndServe()
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stopCh:
	}

	logger.Info().Msg("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func executeProbe(cmd *cobra.Command, args []string) error {
	config, fileClient, logger, err := setup()
	if err != nil {
		return err
	}

	draft, err := loadDraft(fileClient)
	if err != nil {
		return err
	}
	if err := draft.Validate(); err != nil {
		return err
	}

	timeout := config.Probe.Timeout * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	prober := probe.New(timeout, logger)
	result := prober.Probe(context.Background(), draft)

	encoded, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(encoded))
	if !result.Reachable {
		return fmt.Errorf("%s target %s is unreachable: %s", result.Protocol, result.Target, result.Detail)
	}
	return nil
}
