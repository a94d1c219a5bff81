package audiosweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// State is the phase a reconciliation run has reached.
type State int

const (
	StateIdle State = iota
	StateLoaded
	StatePartitioned
	StateDeleting
	StatePersisted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoaded:
		return "loaded"
	case StatePartitioned:
		return "partitioned"
	case StateDeleting:
		return "deleting"
	case StatePersisted:
		return "persisted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome classifies the result of deleting one identifier.
type Outcome int

const (
	// OutcomeDeleted means the media service confirmed the deletion.
	OutcomeDeleted Outcome = iota + 1
	// OutcomeNotDeleted means the service answered without confirming it.
	OutcomeNotDeleted
	// OutcomeRequestFailed means the request itself failed.
	OutcomeRequestFailed
	// OutcomeSimulated means no request was sent because of dry-run.
	OutcomeSimulated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDeleted:
		return "deleted"
	case OutcomeNotDeleted:
		return "not_deleted"
	case OutcomeRequestFailed:
		return "request_failed"
	case OutcomeSimulated:
		return "simulated"
	default:
		return "unknown"
	}
}

// DeletionResult is the outcome for one identifier.
type DeletionResult struct {
	Identifier string
	Outcome    Outcome
	Status     string
	Err        error
}

// Report summarizes a reconciliation run.
type Report struct {
	Policy    string
	State     State
	Loaded    int
	Partition Partition
	Results   []DeletionResult
	Counts    map[Outcome]int
}

// Failed returns the number of identifiers whose deletion was attempted but
// not confirmed.
func (r *Report) Failed() int {
	return r.Counts[OutcomeNotDeleted] + r.Counts[OutcomeRequestFailed]
}

// ReconcileOptions configures a Reconciler.
type ReconcileOptions struct {
	Input        string
	Output       string
	ResourceType string
	DryRun       bool
	ErrorPolicy  ErrorPolicy
	// Now returns the reference time for age checks. Defaults to time.Now.
	Now func() time.Time
}

// Reconciler applies a retention Policy to a record file: it loads the
// records, partitions them, deletes the selected resources and writes the
// kept records to the output file.
//
// The output always reflects the selection, not the deletion outcome: a
// resource whose delete request failed is still dropped from the record.
// Failures are counted in the report and the metrics so drift between the
// record and the media service can be detected and reconciled later.
type Reconciler struct {
	media   MediaStore
	store   Storage
	policy  Policy
	opts    ReconcileOptions
	logger  *slog.Logger
	metrics *Metrics

	state  State
	report *Report
}

// NewReconciler creates a reconciler. The storage is set by Run through
// SetStorage.
func NewReconciler(media MediaStore, policy Policy, opts ReconcileOptions, logger *slog.Logger, metrics *Metrics) *Reconciler {
	if opts.Input == "" {
		opts.Input = DefaultListingFile
	}
	if opts.Output == "" {
		opts.Output = DefaultRemainingFile
	}
	if opts.ResourceType == "" {
		opts.ResourceType = DefaultResourceType
	}
	if opts.ErrorPolicy == nil {
		opts.ErrorPolicy = DefaultErrorPolicy()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	return &Reconciler{
		media:   media,
		policy:  policy,
		opts:    opts,
		logger:  logger.With("component", "reconciler", "policy", policy.Name()),
		metrics: metrics,
	}
}

func (r *Reconciler) Name() string {
	return r.policy.Name()
}

func (r *Reconciler) ExtraConfigLogInfo() []string {
	info := []string{
		fmt.Sprintf("Input: %s", r.opts.Input),
		fmt.Sprintf("Output: %s", r.opts.Output),
		fmt.Sprintf("Policy: %s", r.policy.Name()),
	}
	return append(info, r.policy.LogInfo()...)
}

func (r *Reconciler) SetStorage(s Storage) error {
	if s == nil {
		return errors.New("storage is nil")
	}
	r.store = s
	return nil
}

// TestConnection pings the media service. Dry runs never touch it.
func (r *Reconciler) TestConnection(ctx context.Context) error {
	if r.opts.DryRun {
		return nil
	}
	if err := r.media.Ping(ctx); err != nil {
		return newError(RemoteTransportError, "ping", "", err)
	}
	return nil
}

func (r *Reconciler) Run(ctx context.Context) error {
	_, err := r.Reconcile(ctx)
	return err
}

// Report returns the report of the last run, or nil.
func (r *Reconciler) Report() *Report {
	return r.report
}

func (r *Reconciler) transition(to State) {
	r.logger.Debug("reconciliation state changed", "from", r.state, "to", to)
	r.state = to
	if r.report != nil {
		r.report.State = to
	}
}

// Reconcile performs one full run. On error the report holds the last state
// reached; the output file is only written in the persisted state.
func (r *Reconciler) Reconcile(ctx context.Context) (report *Report, err error) {
	if r.store == nil {
		return nil, newError(ConfigurationError, "reconcile", "", errors.New("storage not set"))
	}

	ctx, span := tracer().Start(ctx, "reconcile", trace.WithAttributes(
		attribute.String("policy", r.policy.Name()),
		attribute.Bool("dry_run", r.opts.DryRun),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	r.state = StateIdle
	r.report = &Report{Policy: r.policy.Name(), Counts: make(map[Outcome]int)}
	report = r.report

	records, err := r.load(ctx)
	if err != nil {
		return report, err
	}
	report.Loaded = len(records)
	r.transition(StateLoaded)

	part := r.partition(ctx, records)
	report.Partition = part
	r.transition(StatePartitioned)

	r.transition(StateDeleting)
	if err = r.deleteAll(ctx, part.Delete); err != nil {
		return report, err
	}
	if err = ctx.Err(); err != nil {
		return report, fmt.Errorf("deletion interrupted: %w", err)
	}

	if err = r.persist(ctx, part.Keep); err != nil {
		return report, err
	}
	r.transition(StatePersisted)

	r.logger.Info("reconciliation complete",
		"loaded", report.Loaded,
		"kept", len(part.Keep),
		"selected", len(part.Delete),
		"deleted", report.Counts[OutcomeDeleted],
		"not_deleted", report.Counts[OutcomeNotDeleted],
		"request_failed", report.Counts[OutcomeRequestFailed],
		"simulated", report.Counts[OutcomeSimulated],
	)
	r.transition(StateIdle)

	return report, nil
}

func (r *Reconciler) load(ctx context.Context) (RecordSet, error) {
	ctx, span := tracer().Start(ctx, "load")
	defer span.End()

	records, err := LoadRecords(ctx, r.store, r.opts.Input)
	if err != nil {
		r.logger.Error("failed to load records", "input", r.store.Location(r.opts.Input), "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("records", len(records)))
	r.logger.Info("records loaded", "input", r.store.Location(r.opts.Input), "count", len(records))
	return records, nil
}

func (r *Reconciler) partition(ctx context.Context, records RecordSet) Partition {
	_, span := tracer().Start(ctx, "partition")
	defer span.End()

	part := r.policy.Partition(records, r.opts.Now())
	for _, w := range part.Warnings {
		r.logger.Warn(w)
	}
	r.metrics.observePartition(part)
	span.SetAttributes(
		attribute.Int("keep", len(part.Keep)),
		attribute.Int("delete", len(part.Delete)),
	)

	if len(part.Delete) == 0 {
		r.logger.Info("no records selected for deletion")
	} else {
		r.logger.Info("records selected for deletion", "count", len(part.Delete), "identifiers", part.Delete.Identifiers())
	}
	return part
}

func (r *Reconciler) deleteAll(ctx context.Context, selected RecordSet) error {
	ctx, span := tracer().Start(ctx, "delete", trace.WithAttributes(attribute.Int("selected", len(selected))))
	defer span.End()

	for _, rec := range selected {
		// An interrupted pass must leave the previous output untouched.
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("deletion interrupted: %w", err)
		}

		res := r.deleteOne(ctx, rec.Identifier)
		r.report.Results = append(r.report.Results, res)
		r.report.Counts[res.Outcome]++
		r.metrics.observeOutcome(res.Outcome)

		if res.Outcome == OutcomeRequestFailed && r.opts.ErrorPolicy.IsFatal(res.Err) {
			return res.Err
		}
	}

	if failed := r.report.Failed(); failed > 0 {
		r.logger.Warn("some deletions were not confirmed, record may list fewer resources than the media service holds",
			"not_deleted", r.report.Counts[OutcomeNotDeleted],
			"request_failed", r.report.Counts[OutcomeRequestFailed],
		)
		err := newError(PartialDeletionFailure, "delete", "",
			fmt.Errorf("%d of %d deletions not confirmed", failed, len(selected)))
		if r.opts.ErrorPolicy.IsFatal(err) {
			return err
		}
	}
	return nil
}

func (r *Reconciler) deleteOne(ctx context.Context, id string) DeletionResult {
	if r.opts.DryRun {
		r.logger.Info("dry run, would delete", "identifier", id)
		return DeletionResult{Identifier: id, Outcome: OutcomeSimulated}
	}

	var statuses map[string]string
	err := r.opts.ErrorPolicy.retry(ctx, RemoteTransportError, func() error {
		var errDelete error
		statuses, errDelete = r.media.Delete(ctx, r.opts.ResourceType, []string{id})
		if errDelete != nil {
			r.metrics.observeRemoteError("delete")
		}
		return errDelete
	})
	if err != nil {
		r.logger.Error("error deleting resource", "identifier", id, "error", err)
		return DeletionResult{
			Identifier: id,
			Outcome:    OutcomeRequestFailed,
			Err:        newError(RemoteTransportError, "delete", id, err),
		}
	}

	status := statuses[id]
	if status == StatusDeleted {
		r.logger.Info("successfully deleted", "identifier", id)
		return DeletionResult{Identifier: id, Outcome: OutcomeDeleted, Status: status}
	}

	r.logger.Warn("failed to delete", "identifier", id, "status", status)
	return DeletionResult{Identifier: id, Outcome: OutcomeNotDeleted, Status: status}
}

func (r *Reconciler) persist(ctx context.Context, keep RecordSet) error {
	ctx, span := tracer().Start(ctx, "persist")
	defer span.End()

	if err := SaveRecords(ctx, r.store, r.opts.Output, keep); err != nil {
		r.logger.Error("error writing remaining records", "output", r.store.Location(r.opts.Output), "error", err)
		return err
	}
	r.logger.Info("remaining records saved", "output", r.store.Location(r.opts.Output), "count", len(keep))
	return nil
}
