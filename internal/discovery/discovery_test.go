package discovery

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/Ullaakut/nmap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/scanbridge/internal/config"
	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/logging"
)

// scriptedRunner hands out one scripted response per call, in call order.
type scriptedRunner struct {
	mu    sync.Mutex
	steps []step
	calls int
}

type step struct {
	hosts []string
	err   error
	fn    func(ctx context.Context) ([]string, error)
}

func (r *scriptedRunner) Run(ctx context.Context, _ string) ([]string, error) {
	r.mu.Lock()
	s := r.steps[r.calls%len(r.steps)]
	r.calls++
	r.mu.Unlock()
	if s.fn != nil {
		return s.fn(ctx)
	}
	return s.hosts, s.err
}

func (r *scriptedRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func testConfig(concurrent int) config.DiscoveryConfig {
	return config.DiscoveryConfig{
		Passes:           3,
		PassTimeout:      time.Second,
		ConcurrentPasses: concurrent,
	}
}

func quietLogger() *logging.Logger {
	logger, _ := logging.New(logging.Config{Level: logging.LevelError, Format: logging.FormatText, Output: "stderr"})
	return logger
}

func TestDiscoverUnionsPasses(t *testing.T) {
	for _, concurrent := range []int{1, 3} {
		runner := &scriptedRunner{steps: []step{
			{hosts: []string{"10.0.0.2", "10.0.0.10"}},
			{hosts: []string{"10.0.0.10", "10.0.0.3"}},
			{hosts: nil},
		}}
		engine := NewEngine(runner, testConfig(concurrent), quietLogger(), nil)

		result, err := engine.Discover(context.Background(), "10.0.0.0/24")
		require.NoError(t, err)
		assert.Equal(t, []string{"10.0.0.2", "10.0.0.3", "10.0.0.10"}, result.Hosts)
		assert.Len(t, result.Passes, 3)
		assert.Equal(t, 3, runner.callCount())
	}
}

func TestDiscoverNoLiveHosts(t *testing.T) {
	runner := &scriptedRunner{steps: []step{{hosts: nil}}}
	engine := NewEngine(runner, testConfig(1), quietLogger(), nil)

	result, err := engine.Discover(context.Background(), "192.168.1.0/24")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNoLiveHosts))
	require.NotNil(t, result)
	assert.Empty(t, result.Hosts)
}

func TestDiscoverAllPassesFail(t *testing.T) {
	boom := stderrors.New("nmap: command not found")
	runner := &scriptedRunner{steps: []step{{err: boom}}}
	engine := NewEngine(runner, testConfig(3), quietLogger(), nil)

	_, err := engine.Discover(context.Background(), "192.168.1.0/24")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeDiscoveryFailed))
	assert.ErrorIs(t, err, boom)
}

func TestDiscoverPartialFailureKeepsHosts(t *testing.T) {
	runner := &scriptedRunner{steps: []step{
		{err: stderrors.New("timeout")},
		{hosts: []string{"192.168.1.7"}},
		{hosts: []string{"not-an-ip", "192.168.1.7"}},
	}}
	engine := NewEngine(runner, testConfig(1), quietLogger(), nil)

	result, err := engine.Discover(context.Background(), "192.168.1.0/24")
	require.NoError(t, err)
	assert.Equal(t, []string{"192.168.1.7"}, result.Hosts)
	require.Error(t, result.Passes[0].Err)
	var de *errors.DiscoveryError
	require.ErrorAs(t, result.Passes[0].Err, &de)
	assert.Equal(t, 1, de.Pass)
}

func TestDiscoverStartedPassOutlivesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var passErr error
	runner := &scriptedRunner{steps: []step{{fn: func(passCtx context.Context) ([]string, error) {
		cancel()
		passErr = passCtx.Err()
		_, hasDeadline := passCtx.Deadline()
		assert.True(t, hasDeadline)
		return []string{"10.1.1.1"}, nil
	}}}}
	engine := NewEngine(runner, testConfig(1), quietLogger(), nil)

	result, err := engine.Discover(ctx, "10.1.1.0/24")
	require.NoError(t, err)
	assert.NoError(t, passErr)
	assert.Equal(t, []string{"10.1.1.1"}, result.Hosts)
	// Passes two and three never started.
	assert.Equal(t, 1, runner.callCount())
	assert.ErrorIs(t, result.Passes[1].Err, context.Canceled)
}

func TestDiscoverCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &scriptedRunner{steps: []step{{hosts: []string{"10.0.0.1"}}}}
	engine := NewEngine(runner, testConfig(3), quietLogger(), nil)

	_, err := engine.Discover(ctx, "10.0.0.0/24")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeDiscoveryFailed))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, runner.callCount())
}

func TestDiscoverRejectsInvalidNetwork(t *testing.T) {
	runner := &scriptedRunner{steps: []step{{hosts: []string{"10.0.0.1"}}}}
	engine := NewEngine(runner, testConfig(1), quietLogger(), nil)

	_, err := engine.Discover(context.Background(), "-oN /tmp/x")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeTargetInvalid))
	assert.Zero(t, runner.callCount())
}

func TestNewEngineDefaults(t *testing.T) {
	engine := NewEngine(&scriptedRunner{}, config.DiscoveryConfig{ConcurrentPasses: 10}, nil, nil)
	assert.Equal(t, defaultPasses, engine.passes)
	assert.Equal(t, defaultPassTimeout, engine.passTimeout)
	assert.Equal(t, defaultPasses, engine.concurrency)
}

func TestValidateNetwork(t *testing.T) {
	tests := []struct {
		network string
		valid   bool
	}{
		{"192.168.1.0/24", true},
		{"10.0.0.0/16", true},
		{"10.0.0.0/8", false},
		{"192.168.1.5", true},
		{"192.168.1.10-50", true},
		{"192.168.1.50-10", false},
		{"192.168.1.10-300", false},
		{"fd00::/120", true},
		{"fd00::/64", false},
		{"", false},
		{"-sS", false},
		{"10.0.0.1 10.0.0.2", false},
		{"example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			err := ValidateNetwork(tt.network)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.IsCode(err, errors.CodeTargetInvalid))
			}
		})
	}
}

func TestParseHostLines(t *testing.T) {
	out := []byte(`Starting Nmap 7.94 ( https://nmap.org ) at 2026-01-01 10:00 UTC
Nmap scan report for gateway.lan (192.168.1.1)
Host is up (0.0010s latency).
Nmap scan report for 192.168.1.20
Host is up (0.0020s latency).
MAC Address: AA:BB:CC:DD:EE:FF (Unknown)
Nmap done: 256 IP addresses (2 hosts up) scanned in 2.10 seconds
`)
	assert.Equal(t, []string{"192.168.1.1", "192.168.1.20"}, ParseHostLines(out))
	assert.Empty(t, ParseHostLines([]byte("Nmap done: 256 IP addresses (0 hosts up)")))
}

func TestUpHosts(t *testing.T) {
	hosts := []nmap.Host{
		{
			Status:    nmap.Status{State: "up"},
			Addresses: []nmap.Address{{Addr: "AA:BB:CC:DD:EE:FF", AddrType: "mac"}, {Addr: "10.0.0.5", AddrType: "ipv4"}},
		},
		{
			Status:    nmap.Status{State: "down"},
			Addresses: []nmap.Address{{Addr: "10.0.0.6", AddrType: "ipv4"}},
		},
		{
			Status: nmap.Status{State: "up"},
		},
	}
	assert.Equal(t, []string{"10.0.0.5"}, upHosts(hosts))
}

func TestBuildNmapOptions(t *testing.T) {
	assert.Len(t, buildNmapOptions("10.0.0.0/24", ""), 2)
	assert.Len(t, buildNmapOptions("10.0.0.0/24", "/opt/nmap/bin/nmap"), 3)
}

func TestCommandRunnerMissingBinary(t *testing.T) {
	runner := &CommandRunner{NmapPath: "/nonexistent/nmap", EnvPath: config.DefaultEnvPath}
	_, err := runner.Run(context.Background(), "127.0.0.1")
	assert.Error(t, err)
}

func TestNewRunnerSelectsMode(t *testing.T) {
	_, ok := NewRunner(config.DiscoveryConfig{Mode: config.DiscoveryModeCommand}, nil).(*CommandRunner)
	assert.True(t, ok)
	_, ok = NewRunner(config.DiscoveryConfig{Mode: config.DiscoveryModeLibrary}, nil).(*NmapRunner)
	assert.True(t, ok)
}
