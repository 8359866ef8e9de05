package machine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"dispatch/internal/dispatch"
	"dispatch/internal/dispatch/metrics"
	"dispatch/internal/validator"
)

// KindSaleMonitor identifies the sale handler in the subscription registry.
const KindSaleMonitor = "sale-monitor"

// SaleHandler applies sale events to the fleet. When a sale leaves a machine
// at or below the low stock threshold it publishes a StockLowEvent through
// the dispatcher driving it, while its own in-flight flag is still raised.
type SaleHandler struct {
	dispatch.Inflight

	fleet     *Fleet
	threshold int
	registry  *metrics.Registry
	logger    *zap.Logger
}

// NewSaleHandler creates a sale handler. threshold is the stock level at or
// below which a machine is considered low; zero means only an empty machine
// raises the alert.
func NewSaleHandler(fleet *Fleet, threshold int, registry *metrics.Registry, logger *zap.Logger) (*SaleHandler, error) {
	h := SaleHandler{
		fleet:     fleet,
		threshold: threshold,
		registry:  registry,
		logger:    logger.Named(KindSaleMonitor),
	}

	if err := validator.Validate("sale handler", h.fleet, h.registry, h.logger); err != nil {
		return nil, fmt.Errorf("failed to validate sale handler deps: %w", err)
	}

	return &h, nil
}

// Kind implements dispatch.Subscriber.Kind.
func (h *SaleHandler) Kind() string {
	return KindSaleMonitor
}

// Handle implements dispatch.Subscriber.Handle for sale events.
func (h *SaleHandler) Handle(ctx context.Context, d dispatch.Dispatcher, ev dispatch.Event) error {
	sale, ok := ev.(SaleEvent)
	if !ok {
		return fmt.Errorf("unexpected %s event for subscriber %s", ev.Type(), h.Kind())
	}

	m, err := h.fleet.Machine(sale.MachineID())
	if err != nil {
		return fmt.Errorf("failed to look up machine: %w", err)
	}

	sold := m.Remove(sale.Quantity())
	h.registry.RecordUnitsSold(m.ID(), sold)
	h.registry.UpdateMachineStock(m.ID(), m.Stock())

	h.logger.Info("sale applied",
		zap.String("machine", m.ID()),
		zap.Int("requested", sale.Quantity()),
		zap.Int("sold", sold),
		zap.Int("stock", m.Stock()),
	)

	if m.Stock() <= h.threshold {
		// Nested publish: alert recipients run while this handler is
		// still in flight.
		if _, err := d.Publish(ctx, NewStockLowEvent(m.ID(), m.Stock())); err != nil {
			return fmt.Errorf("failed to publish stock low event for machine %s: %w", m.ID(), err)
		}
	}

	return nil
}
