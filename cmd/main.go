package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"babyweight_service/internal/api"
	"babyweight_service/internal/config"
	"babyweight_service/internal/core"
	"babyweight_service/internal/domain/model"
	"babyweight_service/internal/domain/repository"
	"babyweight_service/internal/infrastructure/mlclient"
	"babyweight_service/internal/logger"
	"babyweight_service/internal/metric"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	modeBatch = "batch"
	modeServe = "serve"
)

func main() {
	flags := pflag.NewFlagSet("babyweight", pflag.ExitOnError)
	configFile := flags.String("config", "", "path to a YAML config file")
	mode := flags.String("mode", modeBatch, "run mode: batch or serve")
	flags.Bool("mock", false, "use random predictions instead of the hosted model")
	flags.String("input", "", "CSV file with natality records")
	flags.Int("batch-size", config.DefaultBatchSize, "records per prediction request")
	flags.Int("port", config.DefaultPort, "HTTP port in serve mode")
	flags.String("log-level", config.DefaultLogLevel, "log level")
	_ = flags.Parse(os.Args[1:])

	v := viper.New()
	if *configFile != "" {
		v.SetConfigFile(*configFile)
	}
	bindFlag(v, "predictor.mock", flags.Lookup("mock"))
	bindFlag(v, "source.csv_path", flags.Lookup("input"))
	bindFlag(v, "batch.size", flags.Lookup("batch-size"))
	bindFlag(v, "app.port", flags.Lookup("port"))
	bindFlag(v, "app.log_level", flags.Lookup("log-level"))

	cfg, err := config.Load(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.App.Name, cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *mode); err != nil {
		log.Error().Err(err).Msg("Exiting")
		stop()
		os.Exit(1)
	}
}

// bindFlag only binds flags the user actually set so unset flag defaults
// don't override the config file or environment.
func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if flag != nil && flag.Changed {
		_ = v.BindPFlag(key, flag)
	}
}

func run(ctx context.Context, cfg *config.Config, mode string) error {
	metrics, err := metric.New(metric.Config{
		Enabled: cfg.Metrics.Enabled,
		Address: cfg.Metrics.Address,
		Service: cfg.App.Name,
	})
	if err != nil {
		return err
	}
	defer metrics.Close()

	predictor, err := newPredictor(ctx, cfg.Predictor, metrics)
	if err != nil {
		return err
	}

	var db *sqlx.DB
	if cfg.Source.Kind == config.SourcePostgres || cfg.Sink.Kind == config.SinkPostgres {
		db, err = repository.Connect(ctx, cfg.Source.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	service := core.NewPredictionService(newSource(cfg.Source, db), predictor, newRecorder(cfg.Sink, db), core.Options{
		BatchSize: cfg.Batch.Size,
		SaveData:  cfg.Batch.Save,
		Metrics:   metrics,
	})

	switch mode {
	case modeBatch:
		if cfg.Source.Kind == config.SourceCSV && cfg.Source.CSVPath == "" {
			return fmt.Errorf("batch mode needs --input or source.csv_path")
		}
		summary, err := service.Run(ctx)
		if err != nil {
			return err
		}
		log.Info().Interface("summary", summary).Msg("Batch prediction complete")
		return nil
	case modeServe:
		return serve(ctx, cfg.App.Port, service)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

func newPredictor(ctx context.Context, conf config.PredictorConfig, metrics statsd.ClientInterface) (model.Predictor, error) {
	if conf.Mock {
		log.Info().Msg("Using mock predictor")
		return mlclient.NewMockClient(uint64(time.Now().UnixNano())), nil
	}

	var auth mlclient.Authorizer = mlclient.NoAuth{}
	if conf.Auth == config.AuthGoogle {
		tokenAuth, err := mlclient.NewDefaultAuthorizer(ctx)
		if err != nil {
			return nil, err
		}
		auth = tokenAuth
	}

	transport := mlclient.NewTransport(mlclient.Config{
		Endpoint: mlclient.Endpoint{
			BaseURL: conf.BaseURL,
			Project: conf.Project,
			Model:   conf.Model,
			Version: conf.Version,
		},
		Timeout: conf.Timeout,
		BackOff: mlclient.BackOffConfig{
			InitialInterval:     conf.BackOff.InitialInterval,
			MaxInterval:         conf.BackOff.MaxInterval,
			Multiplier:          conf.BackOff.Multiplier,
			RandomizationFactor: conf.BackOff.RandomizationFactor,
		},
		MaxTries:   conf.BackOff.MaxTries,
		MaxElapsed: conf.BackOff.MaxElapsed,
	}, auth, mlclient.WithMetrics(metrics))

	log.Info().Str("project", conf.Project).Str("model", conf.Model).Str("version", conf.Version).
		Msg("Using hosted predictor")
	return mlclient.NewHTTPMLClient(transport, conf.SkipInvalid), nil
}

func newSource(conf config.SourceConfig, db *sqlx.DB) repository.RecordSource {
	if conf.Kind == config.SourcePostgres {
		return repository.NewPostgresRepository(db)
	}
	if conf.CSVPath == "" {
		return nil
	}
	return repository.NewCSVSource(conf.CSVPath)
}

func newRecorder(conf config.SinkConfig, db *sqlx.DB) repository.PredictionRecorder {
	if conf.Kind == config.SinkPostgres {
		return repository.NewPostgresPredictionRecorder(db)
	}
	return repository.NewCSVRecorder(os.Stdout)
}

func serve(ctx context.Context, port int, service *core.PredictionService) error {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	api.NewHandler(service).Register(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on :%d", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("Shutting down server")
	return server.Shutdown(shutdownCtx)
}
