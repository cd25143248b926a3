package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wingo/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the round engine.
// A nil provider records nothing, so callers never need to check.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	roundsSettledCounter     metric.Int64Counter
	settlementDurationHist   metric.Float64Histogram
	betsPlacedCounter        metric.Int64Counter
	settlementFailureCounter metric.Int64Counter
	payoutsCounter           metric.Float64Counter
	withdrawalsCounter       metric.Int64Counter
	depositsCounter          metric.Float64Counter
	natsPublishedCounter     metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{config: cfg}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)
	otel.SetMeterProvider(mp.meterProvider)

	if err := mp.createInstruments(mp.meterProvider.Meter("wingo")); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// InitializeWithReader wires the instruments to an explicit reader. Tests use a ManualReader.
func (mp *MetricsProvider) InitializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	if err := mp.createInstruments(mp.meterProvider.Meter("wingo")); err != nil {
		return err
	}
	mp.initialized = true
	return nil
}

func (mp *MetricsProvider) createInstruments(meter metric.Meter) error {
	var err error
	mp.meter = meter

	if mp.roundsSettledCounter, err = meter.Int64Counter(RoundsSettledTotal,
		metric.WithDescription("Total number of rounds settled"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create rounds settled counter: %w", err)
	}

	if mp.settlementDurationHist, err = meter.Float64Histogram(RoundSettlementSeconds,
		metric.WithDescription("Duration of a round settlement including its bets"),
		metric.WithUnit("s"),
	); err != nil {
		return fmt.Errorf("failed to create settlement duration histogram: %w", err)
	}

	if mp.betsPlacedCounter, err = meter.Int64Counter(BetsPlacedTotal,
		metric.WithDescription("Total number of bets placed"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create bets placed counter: %w", err)
	}

	if mp.settlementFailureCounter, err = meter.Int64Counter(BetSettlementFailuresTotal,
		metric.WithDescription("Total number of bets that failed to settle"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create settlement failure counter: %w", err)
	}

	if mp.payoutsCounter, err = meter.Float64Counter(PayoutsTotal,
		metric.WithDescription("Total amount credited to winning bets"),
	); err != nil {
		return fmt.Errorf("failed to create payouts counter: %w", err)
	}

	if mp.withdrawalsCounter, err = meter.Int64Counter(WithdrawalsTotal,
		metric.WithDescription("Total number of withdrawal status changes"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create withdrawals counter: %w", err)
	}

	if mp.depositsCounter, err = meter.Float64Counter(DepositsTotal,
		metric.WithDescription("Total amount of confirmed deposits"),
	); err != nil {
		return fmt.Errorf("failed to create deposits counter: %w", err)
	}

	if mp.natsPublishedCounter, err = meter.Int64Counter(NATSMessagesPublishedTotal,
		metric.WithDescription("Total number of NATS messages published"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create NATS messages published counter: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp == nil {
		return nil
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		if err := mp.meterProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown meter provider: %w", err)
		}
	}
	mp.initialized = false
	return nil
}

// RecordRoundSettled records one settled round and how long its settlement took
func (mp *MetricsProvider) RecordRoundSettled(trigger, winningColor string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}
	ctx := context.Background()
	mp.roundsSettledCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(LabelTrigger, trigger),
		attribute.String(LabelColor, winningColor),
	))
	mp.settlementDurationHist.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(LabelTrigger, trigger),
	))
}

// RecordBetPlaced records a placed bet
func (mp *MetricsProvider) RecordBetPlaced(color string) {
	if !mp.isEnabled() {
		return
	}
	mp.betsPlacedCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String(LabelColor, color)))
}

// RecordSettlementFailures records bets left pending after a settlement pass
func (mp *MetricsProvider) RecordSettlementFailures(trigger string, count int) {
	if !mp.isEnabled() || count == 0 {
		return
	}
	mp.settlementFailureCounter.Add(context.Background(), int64(count), metric.WithAttributes(attribute.String(LabelTrigger, trigger)))
}

// RecordPayout records the amount credited to winners
func (mp *MetricsProvider) RecordPayout(amount float64) {
	if !mp.isEnabled() || amount <= 0 {
		return
	}
	mp.payoutsCounter.Add(context.Background(), amount)
}

// RecordWithdrawal records a withdrawal reaching status
func (mp *MetricsProvider) RecordWithdrawal(status string) {
	if !mp.isEnabled() {
		return
	}
	mp.withdrawalsCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String(LabelStatus, status)))
}

// RecordDeposit records a confirmed deposit amount
func (mp *MetricsProvider) RecordDeposit(amount float64) {
	if !mp.isEnabled() {
		return
	}
	mp.depositsCounter.Add(context.Background(), amount)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.natsPublishedCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String(LabelEventType, eventType)))
}

// isEnabled checks if instruments exist
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meter != nil
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider, nil before initialization
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	return globalMetrics.Shutdown(ctx)
}
