package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Reader metrics
var (
	OpensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reader_opens_total",
			Help: "Total number of open attempts by result (ok, file_not_loaded, unsupported_encoding).",
		},
		[]string{"result"},
	)

	DetectedEncodingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reader_detected_encodings_total",
			Help: "Total number of successfully opened files by source encoding.",
		},
		[]string{"encoding"},
	)

	RecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reader_records_total",
			Help: "Total number of records returned to callers.",
		},
	)

	BlankRecordsSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reader_blank_records_skipped_total",
			Help: "Total number of blank records skipped while blank suppression was enabled.",
		},
	)

	ConversionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reader_conversion_failures_total",
			Help: "Total number of fields containing bytes undefined in their source encoding.",
		},
		[]string{"encoding"},
	)
)

func init() {
	prometheus.MustRegister(
		OpensTotal,
		DetectedEncodingsTotal,
		RecordsTotal,
		BlankRecordsSkippedTotal,
		ConversionFailuresTotal,
	)
}
