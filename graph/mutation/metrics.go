package mutation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

var (
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphkv_mutations_total",
		Help: "Mutations submitted to a batch writer",
	}, []string{"result"})
	flushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphkv_flushes_total",
		Help: "Batch writer flushes",
	}, []string{"result"})
	deletedEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "graphkv_deleted_entries_total",
		Help: "Delete mutations issued by DeleteAllEntries",
	})
	tableOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "graphkv_table_operations_total",
		Help: "Table create and delete operations",
	}, []string{"op", "result"})
)

func result(err error) string {
	if err != nil {
		return resultError
	}

	return resultOK
}
