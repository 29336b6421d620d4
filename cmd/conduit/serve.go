package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"sentry-hq/conduit/pkg/cli"
	"sentry-hq/conduit/pkg/comm"
	"sentry-hq/conduit/pkg/config"
	"sentry-hq/conduit/pkg/connectors"
	"sentry-hq/conduit/pkg/connectors/email"
	"sentry-hq/conduit/pkg/connectors/rss"
	"sentry-hq/conduit/pkg/connectors/slackmsg"
	"sentry-hq/conduit/pkg/connectors/webfetch"
	"sentry-hq/conduit/pkg/connectors/websearch"
	"sentry-hq/conduit/pkg/evidence/recorder"
	"sentry-hq/conduit/pkg/evidence/retention"
	"sentry-hq/conduit/pkg/evidence/storage"
	"sentry-hq/conduit/pkg/limits/ratelimit"
	"sentry-hq/conduit/pkg/netmode"
	"sentry-hq/conduit/pkg/policy"
	"sentry-hq/conduit/pkg/service"
	"sentry-hq/conduit/pkg/ssrf"
	"sentry-hq/conduit/pkg/telemetry/health"
	"sentry-hq/conduit/pkg/telemetry/logging"
	"sentry-hq/conduit/pkg/telemetry/metrics"
	"sentry-hq/conduit/pkg/trust"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the communication gateway",
	Long: `Start the communication gateway with the specified configuration.

The gateway accepts execution requests on /v1/execute, runs each one
through the policy pipeline, and records evidence for every attempt.
Health probes are served on /health and /ready, Prometheus metrics on
/metrics.

Examples:
  # Start with built-in defaults
  conduit serve

  # Start with a configuration file
  conduit serve --config /etc/conduit/config.yaml

  # Override listen address
  conduit serve --listen 0.0.0.0:8443

  # Validate config without starting
  conduit serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}
	if serveFlags.listenAddress != "" {
		cfg.Listen = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Log.Level = serveFlags.logLevel
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:             cfg.Log.Level,
		Format:            cfg.Log.Format,
		RedactCredentials: cfg.Log.RedactCredentials,
	})
	if err != nil {
		return cli.NewConfigError("log", err.Error())
	}
	logger.SetDefault()
	log := logger.Slog().With("component", "serve")

	if serveFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	ctx := cli.SetupSignalHandler()

	// Mode store and manager.
	if err := ensureDir(cfg.Mode.DBPath); err != nil {
		return err
	}
	modeStore, err := netmode.OpenStore(cfg.Mode.DBPath)
	if err != nil {
		return fmt.Errorf("open mode store: %w", err)
	}
	defer modeStore.Close()
	mode, err := netmode.NewManager(modeStore, nil, logger.Slog())
	if err != nil {
		return fmt.Errorf("initialize mode manager: %w", err)
	}

	// Evidence store, recorder, retention.
	if err := ensureDir(cfg.Evidence.DBPath); err != nil {
		return err
	}
	storageCfg := storage.DefaultSQLiteConfig()
	storageCfg.Path = cfg.Evidence.DBPath
	store, err := storage.NewSQLiteStorage(storageCfg)
	if err != nil {
		return fmt.Errorf("open evidence store: %w", err)
	}
	defer store.Close()

	rec := recorder.NewRecorder(store, nil)
	pruner := retention.NewPruner(store, &retention.Config{
		RetentionDays:       cfg.Evidence.RetentionDays,
		PruneSchedule:       cfg.Evidence.PruneSchedule,
		ArchiveBeforeDelete: cfg.Evidence.ArchiveBeforeDelete,
		ArchivePath:         cfg.Evidence.ArchivePath,
		MaxRecords:          cfg.Evidence.MaxRecords,
	}, nil)
	if err := pruner.Start(ctx); err != nil {
		return fmt.Errorf("start retention pruner: %w", err)
	}
	defer pruner.Stop()

	// Trust classifier, optionally hot-reloaded from the sources file.
	classifier := trust.NewClassifier(nil, nil)
	var sources *config.TrustedSources
	if cfg.TrustedSources.Path != "" {
		if cfg.TrustedSources.Watch {
			watcher, err := config.NewSourceWatcher(cfg.TrustedSources.Path, logger.Slog())
			if err != nil {
				return fmt.Errorf("watch trusted sources: %w", err)
			}
			defer watcher.Close()
			err = watcher.Watch(ctx, func(s *config.TrustedSources) {
				if sources == nil {
					sources = s
				}
				classifier.Replace(s.Authoritative, s.Primary)
			})
			if err != nil {
				return fmt.Errorf("load trusted sources: %w", err)
			}
		} else {
			sources, err = config.LoadTrustedSources(cfg.TrustedSources.Path)
			if err != nil {
				return fmt.Errorf("load trusted sources: %w", err)
			}
			classifier.Replace(sources.Authoritative, sources.Primary)
		}
	}

	// Policy engine.
	policies := policy.NewRegistry()
	for _, spec := range cfg.Policies {
		if err := policies.Register(spec.Policy()); err != nil {
			return cli.NewConfigError("policies", err.Error())
		}
	}
	engine := policy.NewEngine(policies, ssrf.NewGuard(), nil)

	limiter := ratelimit.NewKeyedLimiter(cfg.RateLimit.GlobalPerMinute, nil)

	// Connectors share one SSRF-guarded client.
	client := connectors.NewSafeClient(connectors.SafeClientConfig{})
	var scorerAuth, scorerPrimary []string
	if sources != nil {
		scorerAuth = sources.Authoritative
		scorerPrimary = sources.Primary
	}
	registry := connectors.NewRegistry()
	base := []connectors.Connector{
		webfetch.New(webfetch.Config{
			Client:           client,
			Classifier:       classifier,
			MaxResponseBytes: fetchByteLimit(policies),
		}),
		websearch.New(
			websearch.NewDuckDuckGoDriver(client, cfg.Connectors.Search.Endpoint),
			websearch.NewScorer(scorerAuth, scorerPrimary, nil),
		),
		rss.New(client),
	}
	if cfg.Connectors.Email.Host != "" {
		base = append(base, email.New(email.Config{
			Host:     cfg.Connectors.Email.Host,
			Port:     cfg.Connectors.Email.Port,
			From:     cfg.Connectors.Email.From,
			Username: cfg.Connectors.Email.Username,
			Password: cfg.Connectors.Email.Password,
		}))
	}
	if cfg.Connectors.Slack.Token != "" {
		base = append(base, slackmsg.New(cfg.Connectors.Slack.Token))
	}
	for _, c := range base {
		if err := registry.Register(c); err != nil {
			return fmt.Errorf("register connector: %w", err)
		}
	}

	// Telemetry.
	collector := metrics.NewCollector(nil)
	checker := health.New(0)
	health.RegisterConnectors(checker, registry, collector)
	health.RegisterStorage(checker, store)

	svc := service.New(service.Config{
		Mode:       mode,
		Engine:     engine,
		Policies:   policies,
		Limiter:    limiter,
		Connectors: registry,
		Recorder:   rec,
		Classifier: classifier,
		Metrics:    collector,
		Logger:     logger.Slog(),
	})

	mux := http.NewServeMux()
	health.Mount(mux, checker, Version, GitCommit, BuildDate)
	mux.Handle("/metrics", metrics.Handler(collector))
	mux.Handle("/v1/execute", executeHandler(svc, cfg.Connectors.Search.MaxResults))

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("gateway listening",
			"addr", cfg.Listen,
			"mode", string(mode.Mode()),
			"connectors", len(registry.Kinds()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// executePayload is the wire form of one execution request.
type executePayload struct {
	ConnectorKind string         `json:"connector_kind"`
	Operation     string         `json:"operation"`
	Params        map[string]any `json:"params"`
	Context       map[string]any `json:"context"`
	Phase         string         `json:"phase"`
	ApprovalToken string         `json:"approval_token"`
}

// executeHandler adapts HTTP to the service pipeline. The pipeline
// itself never fails the HTTP exchange; every outcome, denials
// included, is a well-formed response body.
func executeHandler(svc *service.Service, defaultMaxResults int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var payload executePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}
		kind := comm.ConnectorKind(payload.ConnectorKind)
		if kind == comm.KindWebSearch && defaultMaxResults > 0 {
			if payload.Params == nil {
				payload.Params = map[string]any{}
			}
			if _, ok := payload.Params["max_results"]; !ok {
				payload.Params["max_results"] = defaultMaxResults
			}
		}

		resp := svc.Execute(r.Context(), service.ExecuteRequest{
			ConnectorKind: kind,
			Operation:     payload.Operation,
			Params:        payload.Params,
			Context:       payload.Context,
			Phase:         comm.ExecutionPhase(payload.Phase),
			ApprovalToken: payload.ApprovalToken,
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(httpStatusFor(resp.Status))
		_ = json.NewEncoder(w).Encode(resp)
	})
}

func httpStatusFor(status comm.RequestStatus) int {
	switch status {
	case comm.StatusSuccess:
		return http.StatusOK
	case comm.StatusDenied, comm.StatusRequireAdmin:
		return http.StatusForbidden
	case comm.StatusRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

// fetchByteLimit returns the web_fetch policy's response size cap so
// the connector's streaming bound matches what the policy enforces.
// Zero (no policy registered) selects the connector default.
func fetchByteLimit(policies *policy.Registry) int64 {
	if p := policies.Get(comm.KindWebFetch); p != nil {
		return p.MaxResponseSizeBytes
	}
	return 0
}

// ensureDir creates the parent directory of a database path.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
