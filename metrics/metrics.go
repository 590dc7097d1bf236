package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cursorSlot = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fanout_cursor_slot",
			Help: "Slot of the last committed point per index",
		},
		[]string{"index"},
	)

	blocksApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_blocks_applied_total",
			Help: "Total number of blocks applied per index",
		},
		[]string{"index"},
	)

	txsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_txs_applied_total",
			Help: "Total number of transactions applied per index",
		},
		[]string{"index"},
	)

	rollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_rollbacks_total",
			Help: "Total number of rollbacks processed per index",
		},
		[]string{"index"},
	)

	haltedIndexes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fanout_halted_indexes",
			Help: "Number of indexes halted by a handler failure",
		},
	)
)

func CursorSlotSet(index string, slot uint64) {
	cursorSlot.WithLabelValues(index).Set(float64(slot))
}

func BlocksAppliedInc(index string) {
	blocksApplied.WithLabelValues(index).Inc()
}

func TxsAppliedAdd(index string, count int) {
	txsApplied.WithLabelValues(index).Add(float64(count))
}

func RollbacksInc(index string) {
	rollbacks.WithLabelValues(index).Inc()
}

func HaltedIndexesSet(count int) {
	haltedIndexes.Set(float64(count))
}
