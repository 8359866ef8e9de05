package machine

// Event type tags the dispatcher routes on.
const (
	TypeSale     = "machine.sale"
	TypeRefill   = "machine.refill"
	TypeStockLow = "machine.stock_low"
)

// SaleEvent records a purchase of quantity units from one machine.
type SaleEvent struct {
	machineID string
	quantity  int
}

// NewSaleEvent creates a sale event.
func NewSaleEvent(machineID string, quantity int) SaleEvent {
	return SaleEvent{
		machineID: machineID,
		quantity:  quantity,
	}
}

// Type implements dispatch.Event.Type.
func (e SaleEvent) Type() string {
	return TypeSale
}

// MachineID implements dispatch.Event.MachineID.
func (e SaleEvent) MachineID() string {
	return e.machineID
}

// Quantity returns the number of units purchased.
func (e SaleEvent) Quantity() int {
	return e.quantity
}

// RefillEvent records a restock of quantity units into one machine.
type RefillEvent struct {
	machineID string
	quantity  int
}

// NewRefillEvent creates a refill event.
func NewRefillEvent(machineID string, quantity int) RefillEvent {
	return RefillEvent{
		machineID: machineID,
		quantity:  quantity,
	}
}

// Type implements dispatch.Event.Type.
func (e RefillEvent) Type() string {
	return TypeRefill
}

// MachineID implements dispatch.Event.MachineID.
func (e RefillEvent) MachineID() string {
	return e.machineID
}

// Quantity returns the number of units restocked.
func (e RefillEvent) Quantity() int {
	return e.quantity
}

// StockLowEvent signals that a machine's stock reached the low stock
// threshold. Raised by the sale handler mid-dispatch and by the audit sweep.
type StockLowEvent struct {
	machineID string
	remaining int
}

// NewStockLowEvent creates a stock low event.
func NewStockLowEvent(machineID string, remaining int) StockLowEvent {
	return StockLowEvent{
		machineID: machineID,
		remaining: remaining,
	}
}

// Type implements dispatch.Event.Type.
func (e StockLowEvent) Type() string {
	return TypeStockLow
}

// MachineID implements dispatch.Event.MachineID.
func (e StockLowEvent) MachineID() string {
	return e.machineID
}

// Remaining returns the stock level at the time the alert was raised.
func (e StockLowEvent) Remaining() int {
	return e.remaining
}
