package reporter

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/operator-framework/usage-reporter/pkg/config"
	"github.com/operator-framework/usage-reporter/pkg/notify"
	"github.com/operator-framework/usage-reporter/pkg/report"
	"github.com/operator-framework/usage-reporter/pkg/usage"
	"github.com/operator-framework/usage-reporter/pkg/util/slice"
)

// SummaryFilename is the name of the weekly summary attachment.
const SummaryFilename = "weekly-summary.csv"

// InventoryReader lists the cluster's running instances.
type InventoryReader interface {
	ListInstances(ctx context.Context) ([]usage.Instance, error)
}

// CostFetcher retrieves daily billing data.
type CostFetcher interface {
	FetchCosts(ctx context.Context, rng usage.Range, users []string) ([]usage.CostRecord, error)
	FetchUsage(ctx context.Context, rng usage.Range, users []string) ([]usage.UsageRecord, error)
}

// HistoryStore loads and saves the persisted tables.
type HistoryStore interface {
	Load(ctx context.Context) (*usage.Snapshot, error)
	Save(ctx context.Context, snap *usage.Snapshot) error
	Locations() (costs, daily string)
	Keys() (costs, daily string)
}

// Notifier delivers the report email.
type Notifier interface {
	Send(ctx context.Context, msg *notify.Message) (string, error)
}

// Dependencies are the collaborators a Reporter drives.
type Dependencies struct {
	Inventory     InventoryReader
	Costs         CostFetcher
	History       HistoryStore
	Notifier      Notifier
	Attributor    *usage.Attributor
	EmailTemplate *report.EmailTemplate
}

// Result describes a finished run.
type Result struct {
	RunID   string
	RunDate time.Time
	// Window is the range of days fetched and aggregated by the run.
	Window usage.Range
	// Skipped is true when the run date is not after the start date and
	// nothing was done.
	Skipped   bool
	Added     int
	Report    *report.Report
	MessageID string
	Duration  time.Duration
}

// Reporter runs the weekly usage report.
type Reporter struct {
	cfg       config.Config
	deps      Dependencies
	logger    log.FieldLogger
	startDate time.Time

	now func() time.Time

	mu     sync.RWMutex
	step   Step
	latest *Result

	// runGroup collapses concurrent triggers into a single run.
	runGroup singleflight.Group
}

// New validates deps and returns a Reporter. cfg is expected to have been
// validated already.
func New(logger log.FieldLogger, cfg config.Config, deps Dependencies) (*Reporter, error) {
	startDate, err := cfg.StartTime()
	if err != nil {
		return nil, &RunError{Step: StepFailed, Kind: ConfigurationError, Err: err}
	}
	switch {
	case deps.Inventory == nil:
		return nil, fmt.Errorf("an InventoryReader is required")
	case deps.Costs == nil:
		return nil, fmt.Errorf("a CostFetcher is required")
	case deps.History == nil:
		return nil, fmt.Errorf("a HistoryStore is required")
	case deps.Notifier == nil:
		return nil, fmt.Errorf("a Notifier is required")
	}
	if deps.Attributor == nil {
		deps.Attributor, err = usage.NewAttributor(cfg.KnownUsers, cfg.UserIDPattern)
		if err != nil {
			return nil, &RunError{Step: StepFailed, Kind: ConfigurationError, Err: err}
		}
	}
	if deps.EmailTemplate == nil {
		deps.EmailTemplate, err = report.LoadEmailTemplate(cfg.EmailTemplate)
		if err != nil {
			return nil, &RunError{Step: StepFailed, Kind: ConfigurationError, Err: err}
		}
	}

	logger = logger.WithField("component", "reporter")
	logger.Debugf("config: %s", spew.Sprintf("%+v", cfg))
	if !deps.Attributor.Restricted() {
		logger.Warnf("no known users or user id pattern configured, any %s tag matching %s is treated as a user", cfg.UserTagKey, usage.DefaultUserIDPattern)
	}

	return &Reporter{
		cfg:       cfg,
		deps:      deps,
		logger:    logger,
		startDate: startDate,
		now:       time.Now,
		step:      StepDone,
	}, nil
}

// Step returns the step the current or last run is in.
func (r *Reporter) Step() Step {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.step
}

// Latest returns the result of the last successful run, if any.
func (r *Reporter) Latest() *Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

func (r *Reporter) setStep(step Step) {
	r.mu.Lock()
	r.step = step
	r.mu.Unlock()
}

// run carries the state of a single Run between steps.
type run struct {
	logger    log.FieldLogger
	result    *Result
	instances []usage.Instance
	snapshot  *usage.Snapshot
	costs     []usage.CostRecord
	records   []usage.UsageRecord
	agg       *usage.Aggregation
	message   *notify.Message
}

// Run performs one report run for today's date. It stops at the first failing
// step and returns a *RunError. Delivery failures happen after history was
// persisted and leave it in place.
func (r *Reporter) Run(ctx context.Context) (*Result, error) {
	start := r.now()
	runDate := usage.Day(start)
	runID := uuid.New().String()

	logger := r.logger.WithFields(log.Fields{
		"runID":   runID,
		"runDate": runDate.Format(usage.DateLayout),
	})
	state := &run{
		logger: logger,
		result: &Result{RunID: runID, RunDate: runDate},
	}

	runTotalCounter.Inc()
	if !runDate.After(r.startDate) {
		logger.Infof("run date is not after the start date %s, nothing to report", r.cfg.StartDate)
		state.result.Skipped = true
		state.result.Window = usage.Range{Start: runDate, End: runDate}
		r.setStep(StepDone)
		return state.result, nil
	}

	if r.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.RunTimeout)
		defer cancel()
	}

	steps := []struct {
		step Step
		fn   func(context.Context, *run) error
	}{
		{StepFetchInventory, r.fetchInventory},
		{StepLoadHistory, r.loadHistory},
		{StepFetchCost, r.fetchCost},
		{StepAggregate, r.aggregate},
		{StepPersistHistory, r.persistHistory},
		{StepRender, r.render},
		{StepNotify, r.deliver},
	}

	logger.Infof("starting report run")
	for _, s := range steps {
		r.setStep(s.step)
		state.logger = logger.WithField("step", s.step)
		stepStart := time.Now()
		err := s.fn(ctx, state)
		stepDurationHistogram.WithLabelValues(string(s.step)).Observe(time.Since(stepStart).Seconds())
		if err != nil {
			r.setStep(StepFailed)
			runErr, ok := err.(*RunError)
			if !ok {
				runErr = &RunError{Step: s.step, Kind: UpstreamDataError, Err: err}
			}
			runFailedCounter.WithLabelValues(string(runErr.Step), string(runErr.Kind)).Inc()
			logger.WithError(runErr.Err).WithFields(log.Fields{
				"step": runErr.Step,
				"kind": runErr.Kind,
			}).Errorf("report run failed")
			return nil, runErr
		}
	}

	state.result.Duration = r.now().Sub(start)
	runDurationHistogram.Observe(state.result.Duration.Seconds())
	lastSuccessGauge.SetToCurrentTime()
	reportedCostGauge.WithLabelValues("all_time").Set(floatOf(state.result.Report.Totals.TotalCost))
	reportedCostGauge.WithLabelValues("week").Set(floatOf(state.result.Report.Totals.WeekCost))

	r.mu.Lock()
	r.step = StepDone
	r.latest = state.result
	r.mu.Unlock()

	logger.WithFields(log.Fields{
		"window":    state.result.Window.String(),
		"added":     state.result.Added,
		"messageID": state.result.MessageID,
	}).Infof("report run finished")
	return state.result, nil
}

func (r *Reporter) fetchInventory(ctx context.Context, state *run) error {
	instances, err := r.deps.Inventory.ListInstances(ctx)
	if err != nil {
		return stepError(StepFetchInventory, UpstreamDataError, "could not list instances tagged %s=%s: %w", r.cfg.ClusterTagKey, r.cfg.ClusterTagValue, err)
	}
	state.instances = instances
	state.logger.Debugf("found %d running instances", len(instances))
	return nil
}

func (r *Reporter) loadHistory(ctx context.Context, state *run) error {
	snap, err := r.deps.History.Load(ctx)
	if err != nil {
		costs, daily := r.deps.History.Locations()
		return stepError(StepLoadHistory, StorageError, "could not load history from %s and %s: %w", costs, daily, err)
	}
	state.snapshot = snap
	state.logger.WithFields(log.Fields{
		"fresh": snap.Fresh,
		"users": snap.Costs.Len(),
		"rows":  snap.Daily.Len(),
	}).Debugf("loaded history")
	return nil
}

// knownUsers is every user a fetch zero-fills: the configured users, the users
// already in history and the owners of running instances.
func (r *Reporter) knownUsers(state *run) []string {
	owners := make([]string, 0, len(state.instances))
	for _, inst := range state.instances {
		owners = append(owners, inst.UserID)
	}
	return slice.Union(
		r.deps.Attributor.KnownUsers(),
		state.snapshot.Costs.Users(),
		state.snapshot.Daily.Users(),
		owners,
	)
}

func (r *Reporter) fetchCost(ctx context.Context, state *run) error {
	window := usage.Window(r.startDate, state.result.RunDate, state.snapshot.Daily.LastDate())
	state.result.Window = window
	if window.Empty() {
		state.logger.Infof("history is up to date, nothing to fetch")
		return nil
	}

	users := r.knownUsers(state)
	costs, err := r.deps.Costs.FetchCosts(ctx, window, users)
	if err != nil {
		return stepError(StepFetchCost, UpstreamDataError, "could not fetch costs for %s grouped by tag %s: %w", window, r.cfg.UserTagKey, err)
	}
	records, err := r.deps.Costs.FetchUsage(ctx, window, users)
	if err != nil {
		return stepError(StepFetchCost, UpstreamDataError, "could not fetch usage for %s grouped by tag %s: %w", window, r.cfg.UserTagKey, err)
	}

	state.costs = costs
	state.records = records
	state.logger.WithFields(log.Fields{
		"window": window.String(),
		"users":  len(users),
	}).Debugf("fetched %d cost and %d usage records", len(costs), len(records))
	return nil
}

func (r *Reporter) aggregate(_ context.Context, state *run) error {
	agg, err := usage.Aggregate(state.snapshot.Costs, state.snapshot.Daily, state.costs, state.records)
	if err != nil {
		return stepError(StepAggregate, UpstreamDataError, "could not aggregate %s: %w", state.result.Window, err)
	}
	if agg.Skipped > 0 {
		state.logger.Warnf("ignored %d records for days already in history", agg.Skipped)
	}
	state.agg = agg
	state.result.Added = agg.Added
	daysAggregatedCounter.Add(float64(agg.Added))
	return nil
}

func (r *Reporter) persistHistory(ctx context.Context, state *run) error {
	snap := &usage.Snapshot{Costs: state.agg.Costs, Daily: state.agg.Daily}
	if err := r.deps.History.Save(ctx, snap); err != nil {
		costs, daily := r.deps.History.Locations()
		return stepError(StepPersistHistory, StorageError, "could not save history to %s and %s: %w", costs, daily, err)
	}
	state.logger.Debugf("saved %d daily rows", snap.Daily.Len())
	return nil
}

func (r *Reporter) render(_ context.Context, state *run) error {
	period := usage.ReportPeriod(state.result.RunDate)
	rep := report.Build(state.agg.Costs, state.agg.Daily, period, state.instances, r.startDate, state.result.RunDate)
	state.result.Report = rep

	costKey, dailyKey := r.deps.History.Keys()
	emailCtx := report.EmailContext{
		Report:      rep,
		SenderName:  r.cfg.SenderName,
		HelpAddress: r.cfg.HelpAddress,
		DailyFile:   path.Base(dailyKey),
		CostFile:    path.Base(costKey),
	}

	var attachments []notify.Attachment
	if r.cfg.AttachCSV {
		emailCtx.SummaryFile = SummaryFilename

		var daily, costs, summary bytes.Buffer
		if err := usage.WriteDaily(&daily, state.agg.Daily); err != nil {
			return stepError(StepRender, UpstreamDataError, "could not encode %s: %w", emailCtx.DailyFile, err)
		}
		if err := usage.WriteCosts(&costs, state.agg.Costs); err != nil {
			return stepError(StepRender, UpstreamDataError, "could not encode %s: %w", emailCtx.CostFile, err)
		}
		if err := report.WriteCSV(&summary, rep, ','); err != nil {
			return stepError(StepRender, UpstreamDataError, "could not encode %s: %w", SummaryFilename, err)
		}
		attachments = []notify.Attachment{
			{Filename: emailCtx.DailyFile, ContentType: "text/csv", Data: daily.Bytes()},
			{Filename: emailCtx.CostFile, ContentType: "text/csv", Data: costs.Bytes()},
			{Filename: SummaryFilename, ContentType: "text/csv", Data: summary.Bytes()},
		}
	}

	body, err := r.deps.EmailTemplate.Render(emailCtx)
	if err != nil {
		return stepError(StepRender, ConfigurationError, "could not render email body: %w", err)
	}

	state.message = &notify.Message{
		From:        r.cfg.Sender(),
		To:          r.cfg.RecipientAddresses(),
		Subject:     report.Subject,
		Body:        body,
		Date:        r.now(),
		Attachments: attachments,
	}
	return nil
}

func (r *Reporter) deliver(ctx context.Context, state *run) error {
	id, err := r.deps.Notifier.Send(ctx, state.message)
	if err != nil {
		return stepError(StepNotify, DeliveryError, "could not deliver report to %v: %w", r.cfg.Recipients, err)
	}
	state.result.MessageID = id
	return nil
}

func floatOf(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
