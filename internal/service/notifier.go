package service

// Event types pushed to live clients
const (
	EventOrderNew        = "order.new"
	EventOrderUpdate     = "order.update"
	EventOrderDelete     = "order.delete"
	EventInventoryUpdate = "inventory.update"
)

// Notifier fans out events to connected clients. Publish must not block.
type Notifier interface {
	Publish(eventType string, data any)
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, any) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// InventoryChange describes a catalog mutation
type InventoryChange struct {
	Action   string `json:"action"`
	Kind     string `json:"kind"`
	ID       string `json:"id"`
	Quantity *int   `json:"quantity,omitempty"`
}
