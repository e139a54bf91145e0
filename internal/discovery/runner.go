package discovery

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/Ullaakut/nmap/v3"

	"github.com/anstrom/scanbridge/internal/config"
	"github.com/anstrom/scanbridge/internal/logging"
)

// hostMarker introduces each host block in nmap's normal output.
const hostMarker = "Nmap scan report for"

var ipv4Pattern = regexp.MustCompile(`(\d+\.\d+\.\d+\.\d+)`)

// NmapRunner runs ping-scan passes through the nmap bindings.
type NmapRunner struct {
	// BinaryPath overrides the nmap binary looked up on PATH.
	BinaryPath string
	logger     *logging.Logger
}

// buildNmapOptions constructs nmap options for a host-discovery-only pass.
func buildNmapOptions(network, binaryPath string) []nmap.Option {
	options := []nmap.Option{
		nmap.WithTargets(network),
		nmap.WithPingScan(), // Host discovery only, no port scan
	}
	if binaryPath != "" {
		options = append(options, nmap.WithBinaryPath(binaryPath))
	}
	return options
}

// Run performs one ping-scan pass and returns the addresses of hosts reported up.
func (r *NmapRunner) Run(ctx context.Context, network string) ([]string, error) {
	scanner, err := nmap.NewScanner(ctx, buildNmapOptions(network, r.BinaryPath)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create nmap scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("nmap discovery failed: %w", err)
	}

	if warnings != nil && len(*warnings) > 0 {
		logger := r.logger
		if logger == nil {
			logger = logging.Default()
		}
		logger.Warn("Discovery pass completed with warnings", "network", network, "warnings", *warnings)
	}

	return upHosts(result.Hosts), nil
}

// upHosts returns the IP address of every host whose state is up.
func upHosts(hosts []nmap.Host) []string {
	var addrs []string
	for i := range hosts {
		host := &hosts[i]
		if host.Status.State != "up" {
			continue
		}
		for _, addr := range host.Addresses {
			if addr.AddrType == "ipv4" || addr.AddrType == "ipv6" {
				addrs = append(addrs, addr.Addr)
				break
			}
		}
	}
	return addrs
}

// CommandRunner runs "nmap -sn" as a child process with a fixed PATH and
// parses its normal output.
type CommandRunner struct {
	NmapPath string
	EnvPath  string
}

// Run performs one ping-scan pass and returns the addresses printed by nmap.
func (r *CommandRunner) Run(ctx context.Context, network string) ([]string, error) {
	nmapPath := r.NmapPath
	if nmapPath == "" {
		nmapPath = config.DefaultNmapPath
	}
	envPath := r.EnvPath
	if envPath == "" {
		envPath = config.DefaultEnvPath
	}

	// The target is validated before it reaches here and always comes last.
	cmd := exec.CommandContext(ctx, nmapPath, "-sn", network) //nolint:gosec // validated target
	cmd.Env = []string{"PATH=" + envPath}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("nmap discovery interrupted: %w", ctxErr)
		}
		return nil, fmt.Errorf("nmap discovery failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return ParseHostLines(stdout.Bytes()), nil
}

// ParseHostLines extracts the first IPv4 address from every "Nmap scan report
// for" line of nmap's normal output.
func ParseHostLines(out []byte) []string {
	var hosts []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, hostMarker) {
			continue
		}
		if m := ipv4Pattern.FindStringSubmatch(line); m != nil {
			hosts = append(hosts, m[1])
		}
	}
	return hosts
}
