package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservationOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caffeine_reservation_operations_total",
		Help: "Reservation lifecycle operations by action and outcome.",
	}, []string{"action", "outcome"})

	ordersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caffeine_orders_created_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})

	paymentUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caffeine_payment_updates_total",
		Help: "Order payment status writes by source and resulting status.",
	}, []string{"source", "status"})

	voucherChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caffeine_voucher_validations_total",
		Help: "Voucher validations by result.",
	}, []string{"result"})
)

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return KindOf(err).String()
}
