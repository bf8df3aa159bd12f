package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/platewise/platewise/internal/analyzer"
	"github.com/platewise/platewise/internal/config"
	"github.com/platewise/platewise/internal/learning"
	"github.com/platewise/platewise/internal/logging"
	"github.com/platewise/platewise/internal/nutrition"
	"github.com/platewise/platewise/internal/server"
	"github.com/platewise/platewise/internal/stats"
	"github.com/platewise/platewise/internal/storage"
	"github.com/platewise/platewise/internal/vision"
)

const version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "platewise",
	Short: "platewise - food photo analysis with learned corrections",
	Long: `platewise identifies food in photos with an ensemble of image
classifiers, applies corrections learned from user feedback, enriches the
result with nutrition facts and tracks daily accuracy statistics.`,
}

var statsDate string

func init() {
	statsCmd.Flags().StringVar(&statsDate, "date", "", "statistics date (YYYY-MM-DD), latest when unset")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("platewise v" + version)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if app.Ensemble.Size() == 0 {
			return fmt.Errorf("no classifiers configured: enable rekognition or add [[vision.engines]] entries in %s", app.Config.ConfigPath)
		}

		srv := server.New(app.Service, app.Logger)
		return srv.Run(app.Config.ListenAddr)
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Analyze a single food photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if app.Ensemble.Size() == 0 {
			return fmt.Errorf("no classifiers configured: enable rekognition or add [[vision.engines]] entries in %s", app.Config.ConfigPath)
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}

		analysis, err := app.Service.Analyze(cmd.Context(), data)
		if err != nil {
			return err
		}
		return printJSON(analysis)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show daily statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		daily, err := app.Service.DailyStatistics(statsDate)
		if err != nil {
			return err
		}
		return printJSON(daily)
	},
}

// app bundles the wired components for one command invocation.
type app struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *storage.DB
	Ensemble *vision.Ensemble
	Service  *analyzer.Service
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	classifiers, err := buildClassifiers(ctx, cfg, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	ensemble := vision.NewEnsemble(classifiers, logger)
	learningCache := learning.NewCache(db, logger, cfg.ConfidenceBoost, cfg.ConfidenceCeiling)
	resolver := nutrition.NewResolver(
		nutrition.NewCache(db, cfg.NutritionCacheTTL()),
		[]nutrition.Source{
			nutrition.NewUSDASource(cfg.USDABaseURL, cfg.USDAAPIKey, cfg.SourceTimeout()),
			nutrition.NewOpenFoodFactsSource(cfg.OpenFoodFactsBaseURL, cfg.SourceTimeout()),
			nutrition.NewWebSearchSource(cfg.WebSearchBaseURL, cfg.SourceTimeout()),
		},
		cfg.SourceTimeout(),
		logger,
	)
	statsService := stats.NewService(db, logger)
	store := analyzer.NewStore(db)
	service := analyzer.NewService(ensemble, learningCache, resolver, statsService, store, logger)

	return &app{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Ensemble: ensemble,
		Service:  service,
	}, nil
}

func buildClassifiers(ctx context.Context, cfg *config.Config, logger *zap.Logger) ([]vision.Classifier, error) {
	var classifiers []vision.Classifier

	for _, e := range cfg.InferenceEndpoints {
		classifiers = append(classifiers,
			vision.NewInferenceClassifier(e.ID, e.URL, e.Weight, e.Resize, cfg.TopK, cfg.SourceTimeout()))
		logger.Info("registered inference classifier", zap.String("id", e.ID), zap.String("url", e.URL))
	}

	if cfg.RekognitionEnabled {
		rek, err := vision.NewRekognitionClassifier(ctx, cfg.AWSRegion, 0.4, cfg.TopK)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rekognition classifier: %w", err)
		}
		classifiers = append(classifiers, rek)
		logger.Info("registered rekognition classifier", zap.String("region", cfg.AWSRegion))
	}

	return classifiers, nil
}

func (a *app) Close() {
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("failed to close database", zap.Error(err))
	}
	_ = a.Logger.Sync()
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
