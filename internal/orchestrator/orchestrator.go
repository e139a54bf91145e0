// Package orchestrator drives scan lifecycles against the scan engine: it
// starts and stops scans, reports their status, extracts findings and
// rendered reports, and hands finished reports to delivery.
package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/anstrom/scanbridge/internal/config"
	"github.com/anstrom/scanbridge/internal/delivery"
	"github.com/anstrom/scanbridge/internal/discovery"
	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/gmp"
	"github.com/anstrom/scanbridge/internal/logging"
	"github.com/anstrom/scanbridge/internal/metrics"
	"github.com/anstrom/scanbridge/internal/normalize"
	"github.com/anstrom/scanbridge/internal/report"
	"github.com/anstrom/scanbridge/internal/targets"
)

// Stage names the step of an operation that failed.
type Stage string

const (
	StageConnection       Stage = "connection"
	StageTargetResolution Stage = "target_resolution"
	StageScannerSelection Stage = "scanner_selection"
	StageTaskCreation     Stage = "task_creation"
	StageTaskStart        Stage = "task_start"
	StageTaskLookup       Stage = "task_lookup"
	StageReportLookup     Stage = "report_lookup"
	StageReportFetch      Stage = "report_fetch"
)

// StageError reports the stage at which an operation was aborted.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the failing stage recorded in err, if any.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if stderrors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

func stageErr(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// Delivery records and fulfils report delivery obligations.
type Delivery interface {
	Register(ctx context.Context, taskID, recipient string) error
	Claim(ctx context.Context, taskID string) (recipient string, ok bool, err error)
	Dispatch(taskID, recipient string, fetch delivery.FetchFunc)
}

// StartRequest asks for a new scan.
type StartRequest struct {
	Target   string
	Email    string
	ScanType targets.ScanType
}

// StartResult describes a started scan.
type StartResult struct {
	TaskID   string
	TargetID string
	Target   string
	ScanType targets.ScanType
	Hosts    []string
	// Warning is set when the scan started but the delivery obligation
	// could not be recorded.
	Warning string
}

// StatusResult is the canonical state of a task.
type StatusResult struct {
	TaskID    string
	Status    normalize.Status
	RawStatus string
	Message   string
	// Delivering is true when this query consumed the delivery obligation
	// and started the background report delivery.
	Delivering bool
}

// Results holds the findings of a task's report.
type Results struct {
	TaskID   string
	ReportID string
	Status   normalize.Status
	Findings []report.Finding
	Skipped  []report.SkippedEntry
}

// ReportFormat is one report format installed on the engine.
type ReportFormat struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Extension string `json:"extension"`
	Summary   string `json:"summary"`
}

// EngineInfo is the result of a connectivity check.
type EngineInfo struct {
	Version string
}

// Orchestrator implements the scan operations.
type Orchestrator struct {
	engine     gmp.Connector
	resolver   *targets.Resolver
	discoverer targets.Discoverer
	delivery   Delivery
	cfg        config.EngineConfig
	logger     *logging.Logger
	metrics    metrics.Recorder
	now        func() time.Time
}

// New creates an orchestrator. delivery may be nil, in which case email
// requests are rejected.
func New(
	engine gmp.Connector,
	discoverer targets.Discoverer,
	dlv Delivery,
	cfg config.EngineConfig,
	logger *logging.Logger,
	rec metrics.Recorder,
) *Orchestrator {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.PreferredScanner == "" {
		cfg.PreferredScanner = "openvas"
	}
	if cfg.ScanConfigID == "" {
		cfg.ScanConfigID = config.DefaultScanConfigID
	}
	if cfg.PortListID == "" {
		cfg.PortListID = config.DefaultPortListID
	}
	if cfg.ReportFormatID == "" {
		cfg.ReportFormatID = config.DefaultReportFormatID
	}
	return &Orchestrator{
		engine:     engine,
		resolver:   targets.NewResolver(discoverer, cfg.PortListID, logger),
		discoverer: discoverer,
		delivery:   dlv,
		cfg:        cfg,
		logger:     logger.WithComponent("orchestrator"),
		metrics:    metrics.OrNop(rec),
		now:        time.Now,
	}
}

// observe records the duration and outcome of an engine operation.
func (o *Orchestrator) observe(operation string, start time.Time, err error) {
	elapsed := time.Since(start)
	status := "success"
	if err != nil {
		status = "error"
		o.logger.ErrorEngine("Engine operation failed", operation, err, "duration", elapsed)
	} else {
		o.logger.InfoEngine("Engine operation completed", operation, "duration", elapsed)
	}
	o.metrics.ObserveEngineOperation(operation, status, elapsed)
}

// withSession runs fn on a fresh engine session. Only failures to open the
// session are tagged with StageConnection.
func (o *Orchestrator) withSession(ctx context.Context, fn func(gmp.Session) error) error {
	connected := false
	err := gmp.WithSession(ctx, o.engine, func(sess gmp.Session) error {
		connected = true
		return fn(sess)
	})
	if err != nil && !connected {
		return stageErr(StageConnection, err)
	}
	return err
}

// rejection converts a refused engine reply into an error. 404 replies
// become NotFound so callers can tell an unknown id from other refusals.
func rejection(operation string, resp gmp.Response, fallback errors.ErrorCode) *errors.EngineError {
	code, text := resp.Code()
	ec := fallback
	if code == 404 {
		ec = errors.CodeNotFound
	}
	msg := fmt.Sprintf("engine rejected %s: %d %s", operation, code, strings.TrimSpace(text))
	return errors.NewEngineError(ec, operation, msg).WithContext("status", code)
}

// taskRoot loads a task and returns its element tree.
func taskRoot(ctx context.Context, sess gmp.Session, taskID string) (gmp.Response, *etree.Element, error) {
	resp, err := sess.Task(ctx, taskID)
	if err != nil {
		return resp, nil, err
	}
	if resp.Kind() == gmp.KindScalar {
		return resp, nil, rejection("get_tasks", resp, errors.CodeEngineError).WithTask(taskID)
	}
	root, err := normalize.Root(resp)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return resp, nil, errors.NewEngineError(errors.CodeNotFound, "get_tasks", "task not found").WithTask(taskID)
		}
		return resp, nil, err
	}
	return resp, root, nil
}

// reportID resolves the report reference of a task.
func reportID(resp gmp.Response, taskID string) (string, error) {
	id, ok := normalize.ReportID(resp)
	if !ok {
		return "", errors.NewEngineError(errors.CodeNoReportID, "get_tasks", "no report found for this task").WithTask(taskID)
	}
	return id, nil
}

// Discover runs host discovery over network.
func (o *Orchestrator) Discover(ctx context.Context, network string) (*discovery.Result, error) {
	if o.discoverer == nil {
		return nil, errors.NewDiscoveryError(errors.CodeDiscoveryFailed, network, "host discovery is not configured")
	}
	return o.discoverer.Discover(ctx, network)
}

// TestConnection connects, authenticates and asks the engine for its
// protocol version.
func (o *Orchestrator) TestConnection(ctx context.Context) (info *EngineInfo, err error) {
	start := time.Now()
	defer func() { o.observe("get_version", start, err) }()

	var resp gmp.Response
	err = o.withSession(ctx, func(sess gmp.Session) error {
		var verr error
		resp, verr = sess.Version(ctx)
		return verr
	})
	if err != nil {
		return nil, err
	}
	if resp.Kind() == gmp.KindScalar {
		return nil, rejection("get_version", resp, errors.CodeEngineError)
	}
	root, err := normalize.Root(resp)
	if err != nil {
		return nil, err
	}
	version := normalize.ChildText(root, "version")
	if version == "" {
		version = "unknown"
	}
	return &EngineInfo{Version: version}, nil
}

// ReportFormats lists the report formats installed on the engine.
func (o *Orchestrator) ReportFormats(ctx context.Context) (formats []ReportFormat, err error) {
	start := time.Now()
	defer func() { o.observe("get_report_formats", start, err) }()

	var resp gmp.Response
	err = o.withSession(ctx, func(sess gmp.Session) error {
		var ferr error
		resp, ferr = sess.ReportFormats(ctx)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	if resp.Kind() == gmp.KindScalar {
		return nil, rejection("get_report_formats", resp, errors.CodeEngineError)
	}

	formats = []ReportFormat{}
	for _, el := range normalize.Children(resp, "report_format") {
		formats = append(formats, ReportFormat{
			ID:        el.SelectAttrValue("id", ""),
			Name:      normalize.ChildText(el, "name"),
			Extension: normalize.ChildText(el, "extension"),
			Summary:   normalize.ChildText(el, "summary"),
		})
	}
	return formats, nil
}
