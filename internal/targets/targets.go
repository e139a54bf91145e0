// Package targets resolves a scan request into an engine target id. Single
// hosts reuse an existing one-host target when the engine already has one;
// networks always get a fresh target built from host discovery.
package targets

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/anstrom/scanbridge/internal/discovery"
	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/gmp"
	"github.com/anstrom/scanbridge/internal/logging"
	"github.com/anstrom/scanbridge/internal/normalize"
)

// ScanType selects how a target string is interpreted.
type ScanType string

const (
	ScanSingle  ScanType = "single"
	ScanNetwork ScanType = "network"
)

// ParseScanType maps a request value onto a ScanType; empty means single.
func ParseScanType(s string) (ScanType, error) {
	switch ScanType(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScanSingle:
		return ScanSingle, nil
	case ScanNetwork:
		return ScanNetwork, nil
	}
	return "", errors.NewEngineError(errors.CodeValidation, "resolve_target",
		fmt.Sprintf("unknown scan type %q", s))
}

// Discoverer finds the live hosts of a network.
type Discoverer interface {
	Discover(ctx context.Context, network string) (*discovery.Result, error)
}

// Plan is a validated target request, ready to be resolved inside an
// engine session.
type Plan struct {
	Target   string
	ScanType ScanType
	Hosts    []string
	Name     string
	Comment  string
}

// Resolver turns scan requests into engine targets.
type Resolver struct {
	discoverer Discoverer
	portListID string
	logger     *logging.Logger
	now        func() time.Time
}

// NewResolver creates a resolver that creates targets with portListID.
func NewResolver(d Discoverer, portListID string, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{
		discoverer: d,
		portListID: portListID,
		logger:     logger.WithComponent("targets"),
		now:        time.Now,
	}
}

// Prepare validates target and, for network scans, runs host discovery. No
// engine session is needed, so a long discovery never holds one open.
func (r *Resolver) Prepare(ctx context.Context, target string, scanType ScanType) (*Plan, error) {
	target = strings.TrimSpace(target)

	switch scanType {
	case ScanSingle:
		addr, err := netip.ParseAddr(target)
		if err != nil {
			return nil, errors.ErrInvalidTarget(target)
		}
		address := addr.String()
		return &Plan{
			Target:   address,
			ScanType: ScanSingle,
			Hosts:    []string{address},
			Name:     "target_" + address,
			Comment:  "Auto-created target for " + address,
		}, nil

	case ScanNetwork:
		if r.discoverer == nil {
			return nil, errors.NewDiscoveryError(errors.CodeDiscoveryFailed, target, "host discovery is not configured")
		}
		result, err := r.discoverer.Discover(ctx, target)
		if err != nil {
			return nil, err
		}
		if result == nil || len(result.Hosts) == 0 {
			return nil, errors.ErrNoLiveHosts(target)
		}
		return &Plan{
			Target:   target,
			ScanType: ScanNetwork,
			Hosts:    result.Hosts,
			Name:     fmt.Sprintf("network_%s_%d", strings.ReplaceAll(target, "/", "_"), r.now().Unix()),
			Comment:  "Auto-created target for " + target,
		}, nil
	}

	return nil, errors.NewEngineError(errors.CodeValidation, "resolve_target",
		fmt.Sprintf("unknown scan type %q", scanType))
}

// Resolve returns the id of an engine target for plan, reusing an existing
// single-host target when one matches exactly and creating one otherwise.
func (r *Resolver) Resolve(ctx context.Context, sess gmp.Session, plan *Plan) (string, error) {
	if plan.ScanType == ScanSingle {
		id, err := r.findSingle(ctx, sess, plan.Target)
		if err != nil {
			return "", err
		}
		if id != "" {
			r.logger.Info("Reusing existing target", "target", plan.Target, "target_id", id)
			return id, nil
		}
	}
	return r.create(ctx, sess, plan)
}

// findSingle looks for a target whose host set is exactly {address}.
func (r *Resolver) findSingle(ctx context.Context, sess gmp.Session, address string) (string, error) {
	resp, err := sess.Targets(ctx)
	if err != nil {
		return "", err
	}
	for _, el := range normalize.Children(resp, "target") {
		if !singleHost(normalize.ChildText(el, "hosts"), address) {
			continue
		}
		if id := el.SelectAttrValue("id", ""); id != "" {
			return id, nil
		}
	}
	return "", nil
}

func singleHost(hosts, address string) bool {
	parts := strings.Split(hosts, ",")
	return len(parts) == 1 && strings.TrimSpace(parts[0]) == address
}

func (r *Resolver) create(ctx context.Context, sess gmp.Session, plan *Plan) (string, error) {
	resp, err := sess.CreateTarget(ctx, gmp.TargetSpec{
		Name:       plan.Name,
		Hosts:      plan.Hosts,
		Comment:    plan.Comment,
		PortListID: r.portListID,
	})
	if err != nil {
		return "", err
	}

	id, ok := normalize.ID(resp)
	if !ok {
		engineErr := errors.NewEngineError(errors.CodeTargetCreation, "create_target",
			"engine did not return a target id for "+plan.Target)
		if resp.Kind() == gmp.KindScalar {
			code, text := resp.Code()
			engineErr = engineErr.WithContext("status", code).WithContext("status_text", text)
		}
		return "", engineErr
	}

	r.logger.Info("Created target", "target", plan.Target, "target_id", id,
		"name", plan.Name, "hosts", len(plan.Hosts))
	return id, nil
}
