package machine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"dispatch/internal/dispatch"
	"dispatch/internal/dispatch/metrics"
	"dispatch/internal/validator"
)

// KindStockAlert identifies the stock alert handler in the subscription
// registry.
const KindStockAlert = "stock-alert"

// StockAlertHandler reacts to stock low alerts by suspending sale
// processing: it unsubscribes the sale handler from sale events until a
// refill resubscribes it. The unsubscribe happens during dispatch, so a sale
// publish already underway still completes.
type StockAlertHandler struct {
	dispatch.Inflight

	sales    *SaleHandler
	registry *metrics.Registry
	logger   *zap.Logger
}

// NewStockAlertHandler creates a stock alert handler tied to the sale
// handler it suspends.
func NewStockAlertHandler(sales *SaleHandler, registry *metrics.Registry, logger *zap.Logger) (*StockAlertHandler, error) {
	h := StockAlertHandler{
		sales:    sales,
		registry: registry,
		logger:   logger.Named(KindStockAlert),
	}

	if err := validator.Validate("stock alert handler", h.sales, h.registry, h.logger); err != nil {
		return nil, fmt.Errorf("failed to validate stock alert handler deps: %w", err)
	}

	return &h, nil
}

// Kind implements dispatch.Subscriber.Kind.
func (h *StockAlertHandler) Kind() string {
	return KindStockAlert
}

// Handle implements dispatch.Subscriber.Handle for stock low events.
func (h *StockAlertHandler) Handle(ctx context.Context, d dispatch.Dispatcher, ev dispatch.Event) error {
	alert, ok := ev.(StockLowEvent)
	if !ok {
		return fmt.Errorf("unexpected %s event for subscriber %s", ev.Type(), h.Kind())
	}

	// The sale handler's in-flight flag tells the two alert sources apart:
	// raised when the alert was published from inside a sale delivery, clear
	// when the audit sweep raised it.
	midSale := h.sales.Pending()

	removed := d.Unsubscribe(TypeSale, h.sales)
	if removed == 0 {
		h.logger.Debug("sales already suspended",
			zap.String("machine", alert.MachineID()),
			zap.Bool("midSale", midSale),
		)
		return nil
	}

	h.registry.RecordSalesSuspended()
	h.logger.Warn("sales suspended on low stock",
		zap.String("machine", alert.MachineID()),
		zap.Int("remaining", alert.Remaining()),
		zap.Bool("midSale", midSale),
	)

	return nil
}
