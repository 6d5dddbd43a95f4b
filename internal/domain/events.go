package domain

// Notification event types sent through the dispatcher. Delivery is
// fire-and-forget; a failed notification never rolls back the financial
// operation that produced it.
const (
	EventWagerJoined         = "wager.joined"
	EventWagerResolved       = "wager.resolved"
	EventWagerSettled        = "wager.settled"
	EventWagerRefunded       = "wager.refunded"
	EventWithdrawalCompleted = "withdrawal.completed"
	EventWithdrawalFailed    = "withdrawal.failed"
)
