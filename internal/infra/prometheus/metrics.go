package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Redirect outcomes recorded by RedirectsTotal.
const (
	OutcomeRedirected  = "redirected"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

var (
	// LinksCreatedTotal counts successfully issued short links.
	LinksCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shortlink_links_created_total",
		Help: "Number of short links created.",
	})

	// RedirectsTotal counts resolution attempts by outcome.
	RedirectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shortlink_redirects_total",
		Help: "Number of short link resolution attempts by outcome.",
	}, []string{"outcome"})

	// ExpiredLinksRemovedTotal counts links evicted by the scheduled sweep.
	ExpiredLinksRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shortlink_expired_links_removed_total",
		Help: "Number of expired links removed by the sweep.",
	})
)
