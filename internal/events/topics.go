package events

// Topic constants for domain events emitted by the platform.
const (
	TopicSaleCompleted       = "sale.completed"
	TopicSaleRefunded        = "sale.refunded"
	TopicSalePartialRefunded = "sale.partially_refunded"
	TopicSaleCancelled       = "sale.cancelled"
	TopicStockLow            = "stock.low"
	TopicStockOut            = "stock.out"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicSaleCompleted,
		TopicSaleRefunded,
		TopicSalePartialRefunded,
		TopicSaleCancelled,
		TopicStockLow,
		TopicStockOut,
	}
}
