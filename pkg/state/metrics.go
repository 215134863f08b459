package state

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// bookmarkReads tracks bookmark lookups by result (hit, miss).
	bookmarkReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sherpa_bookmark_reads_total",
			Help: "Total number of bookmark reads by result",
		},
		[]string{"result"},
	)

	// bookmarkCommits tracks committed bookmarks by stream.
	bookmarkCommits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sherpa_bookmark_commits_total",
			Help: "Total number of bookmark commits by stream",
		},
		[]string{"stream"},
	)

	// bookmarkErrors tracks bookmark store operation errors.
	bookmarkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sherpa_bookmark_errors_total",
			Help: "Total number of bookmark store operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
