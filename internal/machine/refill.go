package machine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"dispatch/internal/dispatch"
	"dispatch/internal/dispatch/metrics"
	"dispatch/internal/validator"
)

// KindRefillMonitor identifies the refill handler in the subscription
// registry.
const KindRefillMonitor = "refill-monitor"

// RefillHandler applies refill events to the fleet. When a refill lifts a
// machine back above the low stock threshold it resubscribes the sale
// handler, resuming sale processing. Resubscribing while sales were never
// suspended is absorbed by the registry's duplicate handling.
type RefillHandler struct {
	dispatch.Inflight

	fleet     *Fleet
	threshold int
	sales     *SaleHandler
	registry  *metrics.Registry
	logger    *zap.Logger
}

// NewRefillHandler creates a refill handler tied to the sale handler it
// resumes.
func NewRefillHandler(fleet *Fleet, threshold int, sales *SaleHandler, registry *metrics.Registry, logger *zap.Logger) (*RefillHandler, error) {
	h := RefillHandler{
		fleet:     fleet,
		threshold: threshold,
		sales:     sales,
		registry:  registry,
		logger:    logger.Named(KindRefillMonitor),
	}

	if err := validator.Validate("refill handler", h.fleet, h.sales, h.registry, h.logger); err != nil {
		return nil, fmt.Errorf("failed to validate refill handler deps: %w", err)
	}

	return &h, nil
}

// Kind implements dispatch.Subscriber.Kind.
func (h *RefillHandler) Kind() string {
	return KindRefillMonitor
}

// Handle implements dispatch.Subscriber.Handle for refill events.
func (h *RefillHandler) Handle(ctx context.Context, d dispatch.Dispatcher, ev dispatch.Event) error {
	refill, ok := ev.(RefillEvent)
	if !ok {
		return fmt.Errorf("unexpected %s event for subscriber %s", ev.Type(), h.Kind())
	}

	m, err := h.fleet.Machine(refill.MachineID())
	if err != nil {
		return fmt.Errorf("failed to look up machine: %w", err)
	}

	m.Add(refill.Quantity())
	h.registry.RecordUnitsRefilled(m.ID(), refill.Quantity())
	h.registry.UpdateMachineStock(m.ID(), m.Stock())

	h.logger.Info("refill applied",
		zap.String("machine", m.ID()),
		zap.Int("quantity", refill.Quantity()),
		zap.Int("stock", m.Stock()),
	)

	if m.Stock() > h.threshold && d.Subscribe(TypeSale, h.sales) {
		h.logger.Info("sales resumed",
			zap.String("machine", m.ID()),
			zap.Int("stock", m.Stock()),
		)
	}

	return nil
}
