// Package discovery provides host discovery for network scans. Discovery runs
// several independent nmap ping-scan passes over a range and returns the union
// of the live hosts they report.
package discovery

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/netip"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anstrom/scanbridge/internal/config"
	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/logging"
	"github.com/anstrom/scanbridge/internal/metrics"
)

const (
	// Default discovery configuration values.
	defaultPasses      = 3
	defaultPassTimeout = 300 * time.Second
	// Limit to /16 or smaller IPv4 networks.
	maxNetworkSizeBits   = 16
	maxNetworkSizeBitsV6 = 112

	passStatusSuccess = "success"
	passStatusError   = "error"
	passStatusSkipped = "skipped"
)

// Runner performs a single host-discovery pass over a network and returns the
// addresses reported alive, in the order the tool printed them.
type Runner interface {
	Run(ctx context.Context, network string) ([]string, error)
}

// PassResult is the outcome of one discovery pass.
type PassResult struct {
	Pass     int
	Hosts    []string
	Duration time.Duration
	Err      error
}

// Result represents the merged outcome of all passes over a network.
type Result struct {
	Network string
	Hosts   []string
	Passes  []PassResult
}

// Engine handles network discovery operations.
type Engine struct {
	runner      Runner
	passes      int
	passTimeout time.Duration
	concurrency int
	logger      *logging.Logger
	metrics     metrics.Recorder
}

// NewEngine creates a discovery engine over runner using the pass settings in cfg.
func NewEngine(runner Runner, cfg config.DiscoveryConfig, logger *logging.Logger, rec metrics.Recorder) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	e := &Engine{
		runner:      runner,
		passes:      cfg.Passes,
		passTimeout: cfg.PassTimeout,
		concurrency: cfg.ConcurrentPasses,
		logger:      logger.WithComponent("discovery"),
		metrics:     metrics.OrNop(rec),
	}
	if e.passes <= 0 {
		e.passes = defaultPasses
	}
	if e.passTimeout <= 0 {
		e.passTimeout = defaultPassTimeout
	}
	if e.concurrency <= 0 || e.concurrency > e.passes {
		e.concurrency = e.passes
	}
	return e
}

// NewRunner returns the runner selected by cfg.Mode.
func NewRunner(cfg config.DiscoveryConfig, logger *logging.Logger) Runner {
	if cfg.Mode == config.DiscoveryModeCommand {
		return &CommandRunner{NmapPath: cfg.NmapPath, EnvPath: cfg.EnvPath}
	}
	return &NmapRunner{BinaryPath: cfg.NmapPath, logger: logger}
}

// Discover runs every pass over network and returns the sorted union of live
// hosts. A pass that has already started is not cut short by ctx; it runs to
// completion or to its own timeout. Passes that have not started when ctx is
// done are skipped.
func (e *Engine) Discover(ctx context.Context, network string) (*Result, error) {
	network = strings.TrimSpace(network)
	if err := ValidateNetwork(network); err != nil {
		return nil, err
	}

	e.logger.InfoDiscovery("Starting host discovery", network,
		"passes", e.passes, "concurrency", e.concurrency, "pass_timeout", e.passTimeout)

	results := make([]PassResult, e.passes)
	g := new(errgroup.Group)
	g.SetLimit(e.concurrency)
	for i := range e.passes {
		g.Go(func() error {
			results[i] = e.runPass(ctx, network, i+1)
			return nil
		})
	}
	_ = g.Wait()

	hosts, failed := union(results, e.logger)
	result := &Result{Network: network, Hosts: hosts, Passes: results}

	if failed == len(results) {
		causes := make([]error, 0, len(results))
		for _, r := range results {
			causes = append(causes, r.Err)
		}
		err := errors.WrapDiscoveryError(errors.CodeDiscoveryFailed, network,
			"all discovery passes failed", stderrors.Join(causes...))
		e.logger.ErrorDiscovery("Host discovery failed", network, err)
		return result, err
	}
	if len(hosts) == 0 {
		e.logger.InfoDiscovery("No live hosts found", network)
		return result, errors.ErrNoLiveHosts(network)
	}

	e.logger.InfoDiscovery("Host discovery completed", network,
		"hosts_found", len(hosts), "failed_passes", failed)
	return result, nil
}

func (e *Engine) runPass(ctx context.Context, network string, pass int) PassResult {
	if err := ctx.Err(); err != nil {
		e.metrics.ObserveDiscoveryPass(passStatusSkipped, 0, 0)
		return PassResult{Pass: pass, Err: err}
	}

	passCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.passTimeout)
	defer cancel()

	start := time.Now()
	hosts, err := e.runner.Run(passCtx, network)
	elapsed := time.Since(start)

	if err != nil {
		e.metrics.ObserveDiscoveryPass(passStatusError, elapsed, 0)
		e.logger.ErrorDiscovery("Discovery pass failed", network, err, "pass", pass, "duration", elapsed)
		return PassResult{Pass: pass, Duration: elapsed, Err: &errors.DiscoveryError{
			Code:    errors.CodeDiscoveryFailed,
			Message: "discovery pass failed",
			Network: network,
			Pass:    pass,
			Cause:   err,
		}}
	}

	e.metrics.ObserveDiscoveryPass(passStatusSuccess, elapsed, len(hosts))
	e.logger.Debug("Discovery pass completed",
		"network", network, "pass", pass, "hosts", len(hosts), "duration", elapsed)
	return PassResult{Pass: pass, Hosts: hosts, Duration: elapsed}
}

// union merges the hosts of every successful pass, dropping duplicates and
// anything that is not an IP address, and reports how many passes failed.
func union(results []PassResult, logger *logging.Logger) (hosts []string, failed int) {
	seen := make(map[netip.Addr]struct{})
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		for _, h := range r.Hosts {
			addr, err := netip.ParseAddr(strings.TrimSpace(h))
			if err != nil {
				logger.Debug("Ignoring unparseable discovery address", "address", h, "pass", r.Pass)
				continue
			}
			seen[addr.Unmap()] = struct{}{}
		}
	}

	addrs := make([]netip.Addr, 0, len(seen))
	for addr := range seen {
		addrs = append(addrs, addr)
	}
	slices.SortFunc(addrs, func(a, b netip.Addr) int { return a.Compare(b) })

	hosts = make([]string, len(addrs))
	for i, addr := range addrs {
		hosts[i] = addr.String()
	}
	return hosts, failed
}

// ValidateNetwork accepts a CIDR prefix, a single address, or an IPv4 range
// whose last octet is a dash range (192.168.1.10-50).
func ValidateNetwork(network string) error {
	if network == "" || strings.HasPrefix(network, "-") || strings.ContainsAny(network, " \t\n,;") {
		return errors.ErrInvalidTarget(network)
	}

	if prefix, err := netip.ParsePrefix(network); err == nil {
		limit := maxNetworkSizeBits
		if prefix.Addr().Is6() && !prefix.Addr().Is4In6() {
			limit = maxNetworkSizeBitsV6
		}
		if prefix.Bits() < limit {
			return errors.NewDiscoveryError(errors.CodeTargetInvalid, network,
				fmt.Sprintf("network too large, prefix must be /%d or smaller", limit))
		}
		return nil
	}

	if _, err := netip.ParseAddr(network); err == nil {
		return nil
	}

	if isOctetRange(network) {
		return nil
	}

	return errors.ErrInvalidTarget(network)
}

func isOctetRange(network string) bool {
	dot := strings.LastIndexByte(network, '.')
	if dot < 0 {
		return false
	}
	first, last, ok := strings.Cut(network[dot+1:], "-")
	if !ok {
		return false
	}
	base, err := netip.ParseAddr(network[:dot+1] + first)
	if err != nil || !base.Is4() {
		return false
	}
	lo, err := strconv.Atoi(first)
	if err != nil {
		return false
	}
	hi, err := strconv.Atoi(last)
	if err != nil {
		return false
	}
	return lo <= hi && hi <= 255
}
