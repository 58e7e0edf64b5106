package dialogue

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/voxdesk/voxdesk/internal/observability"
)

// Order is the fully specified trade captured by a conversation.
type Order struct {
	Exchange string
	Symbol   string
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// OrderSink receives confirmed orders. Execution is outside this core; the
// default sink only records the order.
type OrderSink interface {
	PlaceOrder(ctx context.Context, order Order) error
}

// LogSink describes confirmed orders to the logger.
type LogSink struct {
	Logger observability.Logger
}

// PlaceOrder implements OrderSink.
func (s LogSink) PlaceOrder(_ context.Context, order Order) error {
	logger := s.Logger
	if logger == nil {
		logger = observability.Log()
	}
	logger.Info("placing order",
		observability.F("exchange", order.Exchange),
		observability.F("symbol", order.Symbol),
		observability.F("quantity", order.Quantity),
		observability.F("price", order.Price))
	return nil
}
