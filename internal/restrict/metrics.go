package restrict

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultAccepted = "accepted"

	outcomeMatched = "matched"
	outcomeEmpty   = "empty"
)

var (
	// predicatesTotal counts classified predicates by outcome: "accepted" or
	// a rejection reason.
	predicatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronodb_restrict_predicates_total",
			Help: "Predicates classified for chunk pruning, by outcome",
		},
		[]string{"result"},
	)
	// resolutionsTotal counts restriction set resolutions, split by whether
	// a dimension proved the result empty before enumeration.
	resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chronodb_restrict_resolutions_total",
			Help: "Restriction set resolutions, by outcome",
		},
		[]string{"outcome"},
	)
	// chunksMatchedTotal counts chunks returned by resolutions.
	chunksMatchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chronodb_restrict_chunks_matched_total",
			Help: "Chunks that survived pruning across all resolutions",
		},
	)
)
