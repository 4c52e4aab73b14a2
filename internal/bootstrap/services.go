package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/target/gha-notifier/config"
	redisadapter "github.com/target/gha-notifier/internal/adapters/redis"
	"github.com/target/gha-notifier/internal/allowlist"
	"github.com/target/gha-notifier/internal/core"
	"github.com/target/gha-notifier/internal/observability/notify/email"
	"github.com/target/gha-notifier/internal/observability/notify/pagerduty"
	"github.com/target/gha-notifier/internal/observability/notify/slack"
	"github.com/target/gha-notifier/internal/observability/statsd"
	"github.com/target/gha-notifier/internal/observability/usage"
	"github.com/target/gha-notifier/internal/service/recipients"
	"github.com/target/gha-notifier/internal/service/runnotifier"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Notifier *runnotifier.Service
	Ranges   *allowlist.RangeSet
	Metrics  *statsd.Client
}

// Close releases resources held by the container.
func (c ServiceContainer) Close() error {
	return c.Metrics.Close()
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	// RedisClient is optional; without it recipient lookups are cached in memory.
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
	// HTTPClient overrides the client used for the metadata fetch (tests).
	HTTPClient *http.Client
	// MailSender overrides the SMTP client (tests).
	MailSender email.Sender
}

// NewServices wires the notifier. It fails when the webhook source ranges
// cannot be loaded: the service never starts without an allowlist.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ranges, err := loadAllowlist(ctx, cfg.Allowlist, deps.HTTPClient, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	metrics := buildMetrics(logger, cfg.Observability.Metrics)

	resolver, err := buildResolver(cfg.Recipients, deps.RedisClient, cfg.Redis.KeyPrefix, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	sinks, err := buildSinks(cfg, deps.MailSender, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	opts := runnotifier.Options{
		Logger:   logger.With("component", "run_notifier"),
		Resolver: resolver,
		Tracker:  runnotifier.NewTracker(core.NewMemoryStatusStore(nil)),
		Sinks:    sinks,
	}
	if metrics != nil {
		opts.Metrics = metrics
	}
	if publisher := buildUsage(cfg.Usage, logger); publisher != nil {
		opts.Usage = publisher
	}

	notifier, err := runnotifier.NewService(opts)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build run notifier: %w", err)
	}

	return ServiceContainer{
		Notifier: notifier,
		Ranges:   ranges,
		Metrics:  metrics,
	}, nil
}

func loadAllowlist(
	ctx context.Context,
	cfg config.AllowlistConfig,
	client *http.Client,
	logger *slog.Logger,
) (*allowlist.RangeSet, error) {
	fetcher, err := allowlist.NewFetcher(allowlist.FetcherOptions{
		URL:     cfg.MetaURL,
		Query:   cfg.MetaQuery,
		Timeout: cfg.Timeout,
		Token:   cfg.GitHubToken,
		Extra:   cfg.ExtraRanges,
		Client:  client,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("configure allowlist: %w", err)
	}
	ranges, err := fetcher.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("load webhook source ranges: %w", err)
	}
	return ranges, nil
}

// buildMetrics returns nil when StatsD is off or unreachable.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	if !cfg.IsEnabled() {
		return nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

func buildResolver(
	cfg config.RecipientsConfig,
	client redis.UniversalClient,
	keyPrefix string,
	logger *slog.Logger,
) (*recipients.Resolver, error) {
	var (
		source recipients.Source
		err    error
	)
	switch cfg.Mode {
	case config.RecipientModeRemote:
		source, err = recipients.NewHTTPSource(recipients.HTTPSourceConfig{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
	default:
		source, err = recipients.NewFileSource(cfg.Dir)
	}
	if err != nil {
		return nil, fmt.Errorf("configure recipient source: %w", err)
	}

	opts := recipients.Options{
		Logger:    logger.With("component", "recipients"),
		Overrides: cfg.Overrides,
		Source:    source,
		CacheTTL:  cfg.CacheTTL,
	}
	cacheName := "none"
	// A zero TTL disables caching so new documents are picked up at once.
	switch {
	case cfg.CacheTTL <= 0:
	case client != nil:
		opts.Cache = redisadapter.NewRecipientCacheWithPrefix(client, keyPrefix)
		cacheName = "redis"
	default:
		opts.Cache = core.NewMemoryRecipientCache()
		cacheName = "memory"
	}

	logger.Info("recipient resolution configured",
		"source", source.Name(),
		"cache", cacheName,
		"overrides", len(cfg.Overrides))

	return recipients.NewResolver(opts)
}

func buildSinks(cfg *config.AppConfig, sender email.Sender, logger *slog.Logger) ([]runnotifier.SinkRegistration, error) {
	var (
		mailSink *email.Sink
		err      error
	)
	if sender != nil {
		mailSink, err = email.NewSinkWithSender(cfg.Mail.From, sender)
	} else {
		mailSink, err = email.NewSink(email.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			From:     cfg.Mail.From,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			TLS:      cfg.Mail.TLS,
			Timeout:  cfg.Mail.Timeout,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("configure mail: %w", err)
	}

	sinks := []runnotifier.SinkRegistration{{Name: "email", Sink: mailSink}}

	notifyCfg := cfg.Observability.Notifications
	if notifyCfg.Slack.Enabled() {
		client, slackErr := slack.NewClient(slack.Config{
			WebhookURL: notifyCfg.Slack.WebhookURL,
			Channel:    notifyCfg.Slack.Channel,
			Username:   notifyCfg.Slack.Username,
			Timeout:    notifyCfg.Timeout,
		})
		if slackErr != nil {
			logger.Error("failed to initialise slack notifier", "error", slackErr)
		} else {
			sinks = append(sinks, runnotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}
	if notifyCfg.PagerDuty.Enabled() {
		client, pdErr := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: notifyCfg.PagerDuty.RoutingKey,
			Source:     notifyCfg.PagerDuty.Source,
			Severity:   notifyCfg.PagerDuty.Severity,
			Timeout:    notifyCfg.Timeout,
		})
		if pdErr != nil {
			logger.Error("failed to initialise pagerduty notifier", "error", pdErr)
		} else {
			sinks = append(sinks, runnotifier.SinkRegistration{Name: "pagerduty", Sink: client})
		}
	}
	return sinks, nil
}

// buildUsage returns nil when usage events are disabled or misconfigured.
func buildUsage(cfg config.UsageConfig, logger *slog.Logger) *usage.Client {
	if !cfg.Enabled {
		return nil
	}
	client, err := usage.NewClient(usage.Config{BaseURL: cfg.BaseURL, Timeout: cfg.Timeout})
	if err != nil {
		logger.Error("failed to initialise usage client", "error", err)
		return nil
	}
	return client
}
