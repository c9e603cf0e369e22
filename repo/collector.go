package repo

import "github.com/prometheus/client_golang/prometheus"

// collector exports repository-wide gauges and counters, grounded on
// the teacher's PebbleCollector: one *prometheus.Desc field per
// exported series, a Describe that lists them, and a Collect that
// reads live state and emits MustNewConstMetric values. Where the
// teacher reads db.Metrics() off pebble, this reads the entity table
// size and the commit-loop tallies off the Repository directly.
type collector struct {
	repo *Repository

	entityCount     *prometheus.Desc
	commitAttempts  *prometheus.Desc
	commitSuccesses *prometheus.Desc
	commitConflicts *prometheus.Desc
	headBindings    *prometheus.Desc
	headEntities    *prometheus.Desc
}

func newCollector(r *Repository) *collector {
	ns := r.opts.MetricsNamespace
	return &collector{
		repo: r,
		entityCount: prometheus.NewDesc(
			ns+"_entity_table_size",
			"Number of entity bodies ever stored in the repository",
			nil, nil,
		),
		commitAttempts: prometheus.NewDesc(
			ns+"_commit_attempts_total",
			"Total number of commit-loop attempts across all sessions",
			nil, nil,
		),
		commitSuccesses: prometheus.NewDesc(
			ns+"_commit_successes_total",
			"Total number of commits that installed a new head",
			nil, nil,
		),
		commitConflicts: prometheus.NewDesc(
			ns+"_commit_conflicts_total",
			"Total number of commits that returned a conflict",
			nil, nil,
		),
		headBindings: prometheus.NewDesc(
			ns+"_head_bindings",
			"Number of named roots in the current head revision",
			nil, nil,
		),
		headEntities: prometheus.NewDesc(
			ns+"_head_entities",
			"Number of live references in the current head revision",
			nil, nil,
		),
	}
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entityCount
	ch <- c.commitAttempts
	ch <- c.commitSuccesses
	ch <- c.commitConflicts
	ch <- c.headBindings
	ch <- c.headEntities
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.entityCount, prometheus.GaugeValue, float64(c.repo.entities.Size()))
	ch <- prometheus.MustNewConstMetric(c.commitAttempts, prometheus.CounterValue, float64(c.repo.stats.commitAttempts.load()))
	ch <- prometheus.MustNewConstMetric(c.commitSuccesses, prometheus.CounterValue, float64(c.repo.stats.commitSuccesses.load()))
	ch <- prometheus.MustNewConstMetric(c.commitConflicts, prometheus.CounterValue, float64(c.repo.stats.commitConflicts.load()))

	head := c.repo.Head()
	ch <- prometheus.MustNewConstMetric(c.headBindings, prometheus.GaugeValue, float64(len(head.Bindings())))
	ch <- prometheus.MustNewConstMetric(c.headEntities, prometheus.GaugeValue, float64(len(head.Entities())))
}
