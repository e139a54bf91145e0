package metrics

import "time"

//go:generate mockgen -destination=mocks/mock_recorder.go -package=mocks github.com/anstrom/scanbridge/internal/metrics Recorder

// Recorder defines the metrics the orchestration paths report.
// This interface allows for easy mocking and testing of metrics functionality.
type Recorder interface {
	IncrementScanStarts(scanType, outcome string)
	IncrementStatusQueries(status string)
	AddSkippedFindings(count int)
	ObserveDiscoveryPass(status string, duration time.Duration, hosts int)
	ObserveEngineOperation(operation, status string, duration time.Duration)
	IncrementDeliveries(status string)
	SetPendingObligations(count int)
	IncrementHTTPRequests(method, path, status string)
	RecordHTTPDuration(method, path string, duration time.Duration)
}

// Ensure that PrometheusMetrics implements Recorder.
var _ Recorder = (*PrometheusMetrics)(nil)

// Nop discards every measurement.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) IncrementScanStarts(string, string) {}
func (Nop) IncrementStatusQueries(string) {}
func (Nop) AddSkippedFindings(int) {}
func (Nop) ObserveDiscoveryPass(string, time.Duration, int) {}
func (Nop) ObserveEngineOperation(string, string, time.Duration) {}
func (Nop) IncrementDeliveries(string) {}
func (Nop) SetPendingObligations(int) {}
func (Nop) IncrementHTTPRequests(string, string, string) {}
func (Nop) RecordHTTPDuration(string, string, time.Duration) {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}
