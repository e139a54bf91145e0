package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/gmp"
	"github.com/anstrom/scanbridge/internal/normalize"
	"github.com/anstrom/scanbridge/internal/report"
	"github.com/anstrom/scanbridge/internal/targets"
)

const scanStarted = "started"

// StartScan resolves the target, picks a scanner, creates the task and starts
// it. Each step is attempted once; the first failure aborts the scan and is
// returned as a *StageError naming the step.
func (o *Orchestrator) StartScan(ctx context.Context, req StartRequest) (result *StartResult, err error) {
	start := time.Now()
	defer func() {
		o.observe("start_scan", start, err)
		outcome := scanStarted
		if stage, ok := StageOf(err); ok {
			outcome = string(stage)
		} else if err != nil {
			outcome = "error"
		}
		o.metrics.IncrementScanStarts(string(req.ScanType), outcome)
	}()

	if req.ScanType == "" {
		req.ScanType = targets.ScanSingle
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email != "" && o.delivery == nil {
		return nil, errors.NewEngineError(errors.CodeValidation, "start_scan", "report delivery is not configured")
	}

	plan, err := o.resolver.Prepare(ctx, req.Target, req.ScanType)
	if err != nil {
		return nil, stageErr(StageTargetResolution, err)
	}

	var targetID, scannerID, taskID string
	err = o.withSession(ctx, func(sess gmp.Session) error {
		var serr error
		if targetID, serr = o.resolver.Resolve(ctx, sess, plan); serr != nil {
			return stageErr(StageTargetResolution, serr)
		}
		if scannerID, serr = o.selectScanner(ctx, sess); serr != nil {
			return stageErr(StageScannerSelection, serr)
		}
		if taskID, serr = o.createTask(ctx, sess, plan, targetID, scannerID); serr != nil {
			return stageErr(StageTaskCreation, serr)
		}
		return stageErr(StageTaskStart, o.startTask(ctx, sess, taskID))
	})
	if err != nil {
		return nil, err
	}

	result = &StartResult{
		TaskID:   taskID,
		TargetID: targetID,
		Target:   plan.Target,
		ScanType: plan.ScanType,
		Hosts:    plan.Hosts,
	}
	log := o.logger.WithTarget(plan.Target).WithTaskID(taskID)
	log.Info("Scan started", "target_id", targetID, "scanner_id", scannerID, "scan_type", plan.ScanType)

	if req.Email != "" {
		if err := o.delivery.Register(ctx, taskID, req.Email); err != nil {
			log.WithError(err).Error("Scan started without report delivery")
			result.Warning = "scan started, but the report will not be emailed: " + err.Error()
		}
	}
	return result, nil
}

// selectScanner picks the first scanner whose name starts with the preferred
// prefix, falling back to the first scanner listed.
func (o *Orchestrator) selectScanner(ctx context.Context, sess gmp.Session) (string, error) {
	resp, err := sess.Scanners(ctx)
	if err != nil {
		return "", err
	}

	prefix := strings.ToLower(o.cfg.PreferredScanner)
	var fallback string
	for _, el := range normalize.Children(resp, "scanner") {
		id := el.SelectAttrValue("id", "")
		if id == "" {
			continue
		}
		if fallback == "" {
			fallback = id
		}
		if strings.HasPrefix(strings.ToLower(normalize.ChildText(el, "name")), prefix) {
			return id, nil
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", errors.NewEngineError(errors.CodeNoScannerAvailable, "get_scanners", "no scanners available on the engine")
}

func (o *Orchestrator) createTask(ctx context.Context, sess gmp.Session, plan *targets.Plan, targetID, scannerID string) (string, error) {
	name := fmt.Sprintf("scan_%s_%d", plan.Target, o.now().Unix())
	if plan.ScanType == targets.ScanNetwork {
		name = fmt.Sprintf("network_scan_%s_%d", strings.ReplaceAll(plan.Target, "/", "_"), o.now().Unix())
	}

	resp, err := sess.CreateTask(ctx, gmp.TaskSpec{
		Name:         name,
		Comment:      "Auto-created scan for " + plan.Target,
		ScanConfigID: o.cfg.ScanConfigID,
		TargetID:     targetID,
		ScannerID:    scannerID,
	})
	if err != nil {
		return "", err
	}
	if resp.Kind() == gmp.KindScalar {
		return "", rejection("create_task", resp, errors.CodeTaskCreation)
	}
	id, ok := normalize.ID(resp)
	if !ok {
		return "", errors.NewEngineError(errors.CodeTaskCreation, "create_task", "engine did not return a task id")
	}
	return id, nil
}

func (o *Orchestrator) startTask(ctx context.Context, sess gmp.Session, taskID string) error {
	resp, err := sess.StartTask(ctx, taskID)
	if err != nil {
		return err
	}
	if resp.Kind() == gmp.KindScalar {
		return rejection("start_task", resp, errors.CodeTaskStart).WithTask(taskID)
	}
	return nil
}

// StopScan asks the engine to stop a task.
func (o *Orchestrator) StopScan(ctx context.Context, taskID string) (err error) {
	start := time.Now()
	defer func() { o.observe("stop_scan", start, err) }()

	err = o.withSession(ctx, func(sess gmp.Session) error {
		resp, serr := sess.StopTask(ctx, taskID)
		if serr != nil {
			return serr
		}
		if resp.Kind() == gmp.KindScalar {
			return rejection("stop_task", resp, errors.CodeEngineError).WithTask(taskID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	o.logger.WithTaskID(taskID).Info("Scan stop requested")
	return nil
}

// Status returns the canonical status of a task. The first query that sees
// the task Done consumes its delivery obligation, if any, and starts the
// report delivery in the background; the status is returned without waiting
// for it. Engine refusals are reported as StatusError with a message rather
// than as an error.
func (o *Orchestrator) Status(ctx context.Context, taskID string) (result *StatusResult, err error) {
	start := time.Now()
	defer func() {
		o.observe("get_task_status", start, err)
		if result != nil {
			o.metrics.IncrementStatusQueries(string(result.Status))
		}
	}()

	var resp gmp.Response
	err = o.withSession(ctx, func(sess gmp.Session) error {
		var terr error
		resp, terr = sess.Task(ctx, taskID)
		return terr
	})
	if err != nil {
		return nil, err
	}

	result = &StatusResult{TaskID: taskID, Status: normalize.TaskStatus(resp)}
	result.RawStatus, _ = normalize.RawStatus(resp)

	switch resp.Kind() {
	case gmp.KindScalar:
		code, text := resp.Code()
		result.Message = fmt.Sprintf("Task not found or invalid response: %d %s", code, strings.TrimSpace(text))
		return result, nil
	case gmp.KindAbsent:
		result.Message = "Task not found or invalid response: engine returned no data"
		return result, nil
	}

	if result.Status == normalize.StatusDone {
		result.Delivering = o.deliverIfOwed(ctx, taskID, resp)
	}
	return result, nil
}

// deliverIfOwed consumes the delivery obligation of a finished task and
// dispatches its report. Failures after the obligation is consumed are
// logged only.
func (o *Orchestrator) deliverIfOwed(ctx context.Context, taskID string, resp gmp.Response) bool {
	if o.delivery == nil {
		return false
	}
	log := o.logger.WithTaskID(taskID)
	recipient, ok, err := o.delivery.Claim(ctx, taskID)
	if err != nil {
		log.WithError(err).Error("Failed to check delivery obligation")
		return false
	}
	if !ok {
		return false
	}

	id, err := reportID(resp, taskID)
	if err != nil {
		log.WithError(err).Error("Finished task has no report to deliver")
		return false
	}

	o.delivery.Dispatch(taskID, recipient, func(ctx context.Context) ([]byte, error) {
		return o.fetchDocument(ctx, id)
	})
	log.Info("Report delivery dispatched", "report_id", id, "recipient", recipient)
	return true
}

// Results fetches the task's report and parses its findings. Entries that
// fail to parse are skipped and listed in Results.Skipped.
func (o *Orchestrator) Results(ctx context.Context, taskID string) (result *Results, err error) {
	start := time.Now()
	defer func() { o.observe("get_results", start, err) }()

	var (
		taskResp gmp.Response
		id       string
		root     *etree.Element
	)
	err = o.withSession(ctx, func(sess gmp.Session) error {
		var rerr error
		if taskResp, _, rerr = taskRoot(ctx, sess, taskID); rerr != nil {
			return stageErr(StageTaskLookup, rerr)
		}
		if id, rerr = reportID(taskResp, taskID); rerr != nil {
			return stageErr(StageReportLookup, rerr)
		}
		root, rerr = o.fetchFindings(ctx, sess, taskID, id)
		return stageErr(StageReportFetch, rerr)
	})
	if err != nil {
		return nil, err
	}

	findings, skipped := report.ParseFindings(root)
	for _, s := range skipped {
		o.logger.WithTaskID(taskID).Debug("Skipped unparseable result", "index", s.Index, "reason", s.Reason)
	}
	if len(skipped) > 0 {
		o.metrics.AddSkippedFindings(len(skipped))
	}

	return &Results{
		TaskID:   taskID,
		ReportID: id,
		Status:   normalize.TaskStatus(taskResp),
		Findings: findings,
		Skipped:  skipped,
	}, nil
}

// DownloadReport returns the task's report rendered as PDF.
func (o *Orchestrator) DownloadReport(ctx context.Context, taskID string) (pdf []byte, err error) {
	start := time.Now()
	defer func() { o.observe("download_report", start, err) }()

	var taskResp gmp.Response
	err = o.withSession(ctx, func(sess gmp.Session) error {
		var terr error
		taskResp, _, terr = taskRoot(ctx, sess, taskID)
		return stageErr(StageTaskLookup, terr)
	})
	if err != nil {
		return nil, err
	}
	id, err := reportID(taskResp, taskID)
	if err != nil {
		return nil, stageErr(StageReportLookup, err)
	}

	pdf, err = o.fetchDocument(ctx, id)
	if err != nil {
		return nil, stageErr(StageReportFetch, err)
	}
	return pdf, nil
}

// fetchDocument renders a report in the configured format and decodes it,
// using a session of its own.
func (o *Orchestrator) fetchDocument(ctx context.Context, reportID string) (pdf []byte, err error) {
	err = o.withSession(ctx, func(sess gmp.Session) error {
		resp, ferr := sess.Report(ctx, gmp.ReportQuery{
			ReportID:         reportID,
			FormatID:         o.cfg.ReportFormatID,
			Details:          true,
			IgnorePagination: true,
		})
		if ferr != nil {
			return ferr
		}
		if resp.Kind() == gmp.KindScalar {
			return rejection("get_reports", resp, errors.CodeReportFetch)
		}
		root, ferr := normalize.Root(resp)
		if ferr != nil {
			if errors.IsCode(ferr, errors.CodeNotFound) {
				return errors.NewEngineError(errors.CodeMalformedResponse, "get_reports", "engine returned no report")
			}
			return ferr
		}
		pdf, ferr = report.ExtractDocument(root)
		return ferr
	})
	return pdf, err
}

// fetchFindings loads the detailed report of a task for findings extraction.
func (o *Orchestrator) fetchFindings(ctx context.Context, sess gmp.Session, taskID, reportID string) (*etree.Element, error) {
	resp, err := sess.Report(ctx, gmp.ReportQuery{
		ReportID: reportID,
		Filter:   report.ResultsFilter,
		Details:  true,
	})
	if err != nil {
		return nil, err
	}
	if resp.Kind() == gmp.KindScalar {
		return nil, rejection("get_reports", resp, errors.CodeReportFetch).WithTask(taskID)
	}
	root, err := normalize.Root(resp)
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return nil, errors.WrapEngineError(errors.CodeReportFetch, "get_reports", "engine returned no report", err).WithTask(taskID)
		}
		return nil, err
	}
	return root, nil
}
