package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "limaq_api_calls_total",
			Help: "Total weather API calls",
		},
		[]string{"district", "status"},
	)

	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "limaq_api_latency_seconds",
			Help:    "Weather API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"district"},
	)

	FilesWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "limaq_files_written_total",
			Help: "Total measurement files written to the local partition tree",
		},
	)

	StageUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "limaq_stage_uploads_total",
			Help: "Total stage uploads by outcome",
		},
		[]string{"status"},
	)

	DeployStatementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "limaq_deploy_statements_total",
			Help: "Total SQL statements executed by the deployment runner",
		},
		[]string{"stage", "status"},
	)
)
