package metrics

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"leaddesk/internal/audit"
	"leaddesk/internal/models"
)

var (
	routeLookupDesc = prometheus.NewDesc(
		"leaddesk_route_lookups_total",
		"Total contact analyses by platform and merchant tier",
		[]string{"platform", "tier"},
		nil,
	)

	auditEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaddesk_audit_entries_total",
			Help: "Audit entries appended by action and risk",
		},
		[]string{"action", "risk"},
	)
)

// LookupStore persists route lookup counters.
type LookupStore interface {
	IncrementRouteLookup(ctx context.Context, platform, tier string) error
	GetAllRouteLookups(ctx context.Context) ([]models.RouteLookup, error)
}

// RouteCollector is a custom Prometheus collector that reads route lookup
// counts from the database on each scrape.
type RouteCollector struct {
	store LookupStore
}

// NewRouteCollector returns a collector over store.
func NewRouteCollector(store LookupStore) *RouteCollector {
	return &RouteCollector{store: store}
}

// Describe sends the metric descriptor to the channel.
func (c *RouteCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- routeLookupDesc
}

// Collect queries the store for all route lookups and emits them as counters.
func (c *RouteCollector) Collect(ch chan<- prometheus.Metric) {
	lookups, err := c.store.GetAllRouteLookups(context.Background())
	if err != nil {
		slog.Error("failed to collect route lookup metrics", "error", err)
		return
	}
	for _, l := range lookups {
		ch <- prometheus.MustNewConstMetric(
			routeLookupDesc,
			prometheus.CounterValue,
			float64(l.Count),
			l.Platform,
			l.Tier,
		)
	}
}

// Recorder provides async route lookup recording.
type Recorder struct {
	store LookupStore
	wg    sync.WaitGroup
}

var (
	recorder     *Recorder
	recorderOnce sync.Once
)

// Init registers the collectors and initializes the recorder.
// Must be called once at startup.
func Init(store LookupStore) {
	recorderOnce.Do(func() {
		recorder = &Recorder{store: store}
		prometheus.MustRegister(NewRouteCollector(store), auditEntries)
	})
}

// RecordRouteLookup asynchronously records the outcome of one analysis.
func RecordRouteLookup(platform, tier string) {
	if recorder == nil {
		return
	}
	recorder.record(platform, tier)
}

func (r *Recorder) record(platform, tier string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.store.IncrementRouteLookup(context.Background(), platform, tier); err != nil {
			slog.Error("failed to record route lookup", "platform", platform, "tier", tier, "error", err)
		}
	}()
}

// Wait blocks until in-flight recordings finish.
func Wait() {
	if recorder != nil {
		recorder.wg.Wait()
	}
}

// OtherAction labels audit entries whose action the rule table does not score.
const OtherAction = "other"

// NewAuditObserver returns an audit.Options OnAppend func that counts entries
// by action and risk. Actions known reports false for are counted as
// OtherAction so callers cannot grow the label set.
func NewAuditObserver(known func(action string) bool) func(audit.Entry) {
	return func(e audit.Entry) {
		action := e.Action
		if known == nil || !known(action) {
			action = OtherAction
		}
		auditEntries.WithLabelValues(action, e.Risk.String()).Inc()
	}
}
