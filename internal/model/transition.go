package model

// fulfillmentRank orders the non-cancelled fulfillment stages.
var fulfillmentRank = map[OrderStatus]int{
	StatusPending:   0,
	StatusPreparing: 1,
	StatusReady:     2,
	StatusCompleted: 3,
}

var nextPayment = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending:  {PaymentPaid: true},
	PaymentPaid:     {PaymentRefunded: true},
	PaymentRefunded: {},
}

// CanTransitionStatus reports whether an order may move from one fulfillment
// status to another. Orders only move forward through
// pending, preparing, ready, completed (stages may be skipped) and may be
// cancelled until they are completed. Re-applying the current status is
// allowed.
func CanTransitionStatus(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	if from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	fromRank, okFrom := fulfillmentRank[from]
	toRank, okTo := fulfillmentRank[to]
	return okFrom && okTo && toRank > fromRank
}

// CanTransitionPayment reports whether a payment may move between states.
// Re-applying the current status is allowed.
func CanTransitionPayment(from, to PaymentStatus) bool {
	if from == to {
		return true
	}
	return nextPayment[from][to]
}
