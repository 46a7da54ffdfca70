package offline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cub",
	Subsystem: "offline",
	Name:      "cache_lookups_total",
	Help:      "Cache-first lookups by result (hit, miss).",
}, []string{"result"})

var navigationFallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cub",
	Subsystem: "offline",
	Name:      "navigation_fallbacks_total",
	Help:      "Navigations answered from the cached shell after a network failure.",
})

var networkFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cub",
	Subsystem: "offline",
	Name:      "network_failures_total",
	Help:      "Intercepted requests whose network fetch failed.",
})

var cacheWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "cub",
	Subsystem: "offline",
	Name:      "cache_write_failures_total",
	Help:      "Responses that could not be stored in the cache.",
})

var installs = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cub",
	Subsystem: "offline",
	Name:      "installs_total",
	Help:      "Cache generation installs by outcome (ok, failed).",
}, []string{"outcome"})
