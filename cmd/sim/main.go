package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"dispatch/internal/dispatch"
	"dispatch/internal/dispatch/broker"
	"dispatch/internal/dispatch/metrics"
	"dispatch/internal/dispatch/tracing"
	"dispatch/internal/machine"
)

type Config struct {
	MachineCount          int           `env:"MACHINE_COUNT" envDefault:"5"`
	InitialStock          int           `env:"INITIAL_STOCK" envDefault:"20"`
	LowStockThreshold     int           `env:"LOW_STOCK_THRESHOLD" envDefault:"5"`
	EventsPerTick         int           `env:"EVENTS_PER_TICK" envDefault:"25"`
	TickInterval          time.Duration `env:"TICK_INTERVAL" envDefault:"100ms"`
	Rounds                int           `env:"ROUNDS" envDefault:"20"`
	AuditEvery            int           `env:"AUDIT_EVERY" envDefault:"5"`
	Seed                  int64         `env:"SEED" envDefault:"0"`
	LogLevel              string        `env:"LOG_LEVEL" envDefault:"info"`
	MetricsPort           int           `env:"METRICS_PORT" envDefault:"9090"`
	MetricsTimeout        time.Duration `env:"METRICS_TIMEOUT" envDefault:"30s"`
	TracingServiceName    string        `env:"TRACING_SERVICE_NAME" envDefault:"dispatch-sim"`
	TracingServiceVersion string        `env:"TRACING_SERVICE_VERSION" envDefault:"1.0.0"`
	OTLPEndpoint          string        `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate     float64       `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
	CPUProfile            string        `env:"CPU_PROFILE"`
	MemProfile            string        `env:"MEM_PROFILE"`
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to parse environment variables: %v", err)
	}

	if cfg.CPUProfile != "" {
		cpuProfile, err := os.Create(cfg.CPUProfile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer cpuProfile.Close()
		if err := pprof.StartCPUProfile(cpuProfile); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	defer func() {
		if cfg.MemProfile == "" {
			return
		}
		memProfile, err := os.Create(cfg.MemProfile)
		if err != nil {
			log.Fatal("could not create memory profile: ", err)
		}
		defer memProfile.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(memProfile); err != nil {
			log.Fatal("could not write memory profile: ", err)
		}
	}()

	config := zap.NewProductionConfig()

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Printf("invalid log level %q, defaulting to info: %v", cfg.LogLevel, err)
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	logger, err := config.Build(zap.AddCaller())
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	metricsRegistry := metrics.NewRegistry()
	metricsRegistry.SetSystemInfo(cfg.TracingServiceVersion, time.Now().Format(time.RFC3339))

	metricsServer := metrics.NewServer(
		metrics.ServerConfig{
			Port:    cfg.MetricsPort,
			Timeout: cfg.MetricsTimeout,
		},
		metricsRegistry,
		logger,
	)

	go func() {
		if err := metricsServer.Start(context.Background()); err != nil {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	logger.Info("metrics server started",
		zap.String("endpoint", fmt.Sprintf("http://localhost:%d/metrics", cfg.MetricsPort)),
		zap.String("health", fmt.Sprintf("http://localhost:%d/health", cfg.MetricsPort)),
	)

	tracingConfig := tracing.Config{
		ServiceName:    cfg.TracingServiceName,
		ServiceVersion: cfg.TracingServiceVersion,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TracingSampleRate,
	}
	tracer, tracingCleanup, err := tracing.NewTracer(tracingConfig)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingCleanup(shutdownCtx); err != nil {
			logger.Error("failed to cleanup tracing", zap.Error(err))
		}
	}()

	logger.Info("tracing initialized",
		zap.String("service", cfg.TracingServiceName),
		zap.String("otlp_endpoint", cfg.OTLPEndpoint),
		zap.Float64("sample_rate", cfg.TracingSampleRate),
	)

	baseBroker, err := broker.NewBroker(logger.Named("broker"))
	if err != nil {
		log.Fatalf("failed to create broker: %v", err)
	}
	metricsDispatcher := broker.NewMetricsDispatcher(baseBroker, metricsRegistry)
	dispatcher := broker.NewTracedDispatcher(metricsDispatcher, tracer)

	machines := make([]*machine.Machine, 0, cfg.MachineCount)
	for i := 0; i < cfg.MachineCount; i++ {
		id := fmt.Sprintf("vm-%s", uuid.NewString()[:8])
		machines = append(machines, machine.NewMachine(id, cfg.InitialStock))
		metricsRegistry.UpdateMachineStock(id, cfg.InitialStock)
	}
	fleet := machine.NewFleet(machines...)

	sales, err := machine.NewSaleHandler(fleet, cfg.LowStockThreshold, metricsRegistry, logger)
	if err != nil {
		log.Fatalf("failed to create sale handler: %v", err)
	}
	alerts, err := machine.NewStockAlertHandler(sales, metricsRegistry, logger)
	if err != nil {
		log.Fatalf("failed to create stock alert handler: %v", err)
	}
	refills, err := machine.NewRefillHandler(fleet, cfg.LowStockThreshold, sales, metricsRegistry, logger)
	if err != nil {
		log.Fatalf("failed to create refill handler: %v", err)
	}

	dispatcher.Subscribe(machine.TypeSale, sales)
	dispatcher.Subscribe(machine.TypeRefill, refills)
	dispatcher.Subscribe(machine.TypeStockLow, alerts)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gen, err := machine.NewGenerator(fleet, seed)
	if err != nil {
		log.Fatalf("failed to create generator: %v", err)
	}
	logger.Info("generator seeded", zap.Int64("seed", seed), zap.Int("machines", fleet.Size()))

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
	}()

	now := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	// All dispatcher access after the subscriptions above happens on this one
	// goroutine; the broker is not safe for concurrent use.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.TickInterval)
		defer ticker.Stop()
		rounds := 0

		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				for _, ev := range gen.Batch(cfg.EventsPerTick) {
					if _, err := dispatcher.Publish(gctx, ev); err != nil {
						logger.Error("failed to publish event", zap.Error(err))
						return fmt.Errorf("failed to publish event: %w", err)
					}
				}

				rounds++
				if cfg.AuditEvery > 0 && rounds%cfg.AuditEvery == 0 {
					if err := audit(gctx, logger, dispatcher, fleet, cfg.LowStockThreshold); err != nil {
						logger.Error("failed to run audit sweep", zap.Error(err))
						return fmt.Errorf("failed to run audit sweep: %w", err)
					}
				}

				logger.Info("simulation round complete", zap.Int("round", rounds))
				if rounds >= cfg.Rounds {
					logger.Info("simulation rounds complete, stopping")
					return nil
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("error in simulation", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop metrics server", zap.Error(err))
	}

	fmt.Printf("\n\nSIMULATION COMPLETE IN %.2f seconds\n", time.Since(now).Seconds())
	for _, id := range fleet.IDs() {
		m, err := fleet.Machine(id)
		if err != nil {
			continue
		}
		fmt.Printf("  %s: %d units\n", id, m.Stock())
	}
}

// audit publishes a stock low event for every machine at or below the
// threshold. Unlike the sale handler's nested publish, these alerts go out
// with no sale delivery in flight.
func audit(ctx context.Context, logger *zap.Logger, d dispatch.Dispatcher, fleet *machine.Fleet, threshold int) error {
	for _, id := range fleet.IDs() {
		m, err := fleet.Machine(id)
		if err != nil {
			return fmt.Errorf("failed to audit fleet: %w", err)
		}
		if m.Stock() > threshold {
			continue
		}

		logger.Debug("audit found low stock", zap.String("machine", id), zap.Int("stock", m.Stock()))
		if _, err := d.Publish(ctx, machine.NewStockLowEvent(id, m.Stock())); err != nil {
			return fmt.Errorf("failed to publish stock low event for machine %s: %w", id, err)
		}
	}

	return nil
}
