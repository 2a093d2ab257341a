package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SegmentBytesAppended = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "segment_bytes_appended_total",
		Help: "Total framed bytes appended to segment files",
	})

	SegmentBytesTransferred = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "segment_bytes_transferred_total",
			Help: "Total bytes transferred out of segment files",
		},
		[]string{"method"}, // sendfile, copy
	)

	SegmentTruncations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "segment_truncations_total",
		Help: "Total number of segment truncations",
	})

	SegmentTruncatedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "segment_truncated_bytes_total",
		Help: "Total bytes removed by truncation",
	})

	SegmentStorageChanged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "segment_storage_changed_total",
		Help: "Transfers refused because the file shrank below its cached size",
	})

	SegmentIterationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "segment_iteration_failures_total",
		Help: "Iterations stopped by an oversized record or an I/O error",
	})

	SegmentCorruptRecords = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "segment_corrupt_records_total",
		Help: "Frames with an impossible size found while searching",
	})

	SearchScannedFrames = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "segment_search_scanned_frames",
		Help:    "Frame headers read per offset search",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	OpenSegments = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "segment_open_files",
		Help: "Segment files currently held open by root views",
	})
)
