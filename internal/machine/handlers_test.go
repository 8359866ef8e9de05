package machine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dispatch/internal/dispatch"
	"dispatch/internal/dispatch/broker"
	"dispatch/internal/dispatch/metrics"
)

// flagProbe records the sale handler's in-flight flag at the moment each
// stock low alert is delivered. Subscribed ahead of the alert handler, it
// sees the flag exactly as the alert handler will.
type flagProbe struct {
	dispatch.Inflight

	watched *SaleHandler
	saw     []bool
}

func (p *flagProbe) Kind() string { return "flag-probe" }

func (p *flagProbe) Handle(_ context.Context, _ dispatch.Dispatcher, _ dispatch.Event) error {
	p.saw = append(p.saw, p.watched.Pending())
	return nil
}

type fixture struct {
	broker  *broker.Broker
	fleet   *Fleet
	machine *Machine
	sales   *SaleHandler
	alerts  *StockAlertHandler
	refills *RefillHandler
	probe   *flagProbe
}

func newFixture(t *testing.T, stock, threshold int) *fixture {
	t.Helper()

	logger := zap.NewNop()
	registry := metrics.NewRegistry()

	m := NewMachine("vm-1", stock)
	fleet := NewFleet(m)

	b, err := broker.NewBroker(logger)
	require.NoError(t, err)

	sales, err := NewSaleHandler(fleet, threshold, registry, logger)
	require.NoError(t, err)
	alerts, err := NewStockAlertHandler(sales, registry, logger)
	require.NoError(t, err)
	refills, err := NewRefillHandler(fleet, threshold, sales, registry, logger)
	require.NoError(t, err)

	probe := &flagProbe{watched: sales}

	require.True(t, b.Subscribe(TypeSale, sales))
	require.True(t, b.Subscribe(TypeRefill, refills))
	require.True(t, b.Subscribe(TypeStockLow, probe))
	require.True(t, b.Subscribe(TypeStockLow, alerts))

	return &fixture{
		broker:  b,
		fleet:   fleet,
		machine: m,
		sales:   sales,
		alerts:  alerts,
		refills: refills,
		probe:   probe,
	}
}

func TestSaleBelowThresholdSuspendsSales(t *testing.T) {
	f := newFixture(t, 6, 5)
	ctx := context.Background()

	// 6 -> 4 crosses the threshold: the nested alert suspends sales while
	// the sale delivery is still in flight.
	n, err := f.broker.Publish(ctx, NewSaleEvent("vm-1", 2))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 4, f.machine.Stock())
	assert.Equal(t, []bool{true}, f.probe.saw, "alert was raised mid-sale")

	// Suspended: the sale event reaches nobody and stock is untouched.
	n, err = f.broker.Publish(ctx, NewSaleEvent("vm-1", 1))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 4, f.machine.Stock())

	// A refill above the threshold resumes sales.
	n, err = f.broker.Publish(ctx, NewRefillEvent("vm-1", 5))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 9, f.machine.Stock())

	n, err = f.broker.Publish(ctx, NewSaleEvent("vm-1", 1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 8, f.machine.Stock())
}

func TestAuditAlertSuspendsOutOfBand(t *testing.T) {
	f := newFixture(t, 3, 5)
	ctx := context.Background()

	// The audit sweep publishes the alert directly; no sale is in flight.
	n, err := f.broker.Publish(ctx, NewStockLowEvent("vm-1", 3))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []bool{false}, f.probe.saw, "no sale delivery was in flight")

	n, err = f.broker.Publish(ctx, NewSaleEvent("vm-1", 1))
	require.NoError(t, err)
	assert.Zero(t, n, "sales are suspended after the audit alert")
}

func TestRepeatedAlertIsIdempotent(t *testing.T) {
	f := newFixture(t, 3, 5)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.broker.Publish(ctx, NewStockLowEvent("vm-1", 3))
		require.NoError(t, err)
	}

	// One refill is enough to resume, regardless of how many alerts fired.
	_, err := f.broker.Publish(ctx, NewRefillEvent("vm-1", 10))
	require.NoError(t, err)

	n, err := f.broker.Publish(ctx, NewSaleEvent("vm-1", 1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRefillWhileActiveKeepsSingleSaleSubscription(t *testing.T) {
	f := newFixture(t, 20, 5)
	ctx := context.Background()

	// Sales were never suspended; the resubscribe attempt must not create a
	// second record.
	_, err := f.broker.Publish(ctx, NewRefillEvent("vm-1", 5))
	require.NoError(t, err)

	n, err := f.broker.Publish(ctx, NewSaleEvent("vm-1", 2))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 23, f.machine.Stock())
}

func TestHandlersRejectUnknownMachine(t *testing.T) {
	f := newFixture(t, 20, 5)
	ctx := context.Background()

	_, err := f.broker.Publish(ctx, NewSaleEvent("ghost", 1))
	require.ErrorIs(t, err, ErrUnknownMachine)

	_, err = f.broker.Publish(ctx, NewRefillEvent("ghost", 1))
	require.ErrorIs(t, err, ErrUnknownMachine)
}

func TestHandlersRejectForeignEvents(t *testing.T) {
	f := newFixture(t, 20, 5)
	ctx := context.Background()

	err := f.sales.Handle(ctx, f.broker, NewRefillEvent("vm-1", 1))
	assert.ErrorContains(t, err, "unexpected")

	err = f.refills.Handle(ctx, f.broker, NewSaleEvent("vm-1", 1))
	assert.ErrorContains(t, err, "unexpected")

	err = f.alerts.Handle(ctx, f.broker, NewSaleEvent("vm-1", 1))
	assert.ErrorContains(t, err, "unexpected")
}
