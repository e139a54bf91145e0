package gmp

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"github.com/anstrom/scanbridge/internal/config"
	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/logging"
)

// Connector opens authenticated engine sessions.
type Connector interface {
	Connect(ctx context.Context) (Session, error)
}

// Dialer connects to the engine over TLS and authenticates.
type Dialer struct {
	address     string
	username    string
	password    string
	tlsConfig   *tls.Config
	dialTimeout time.Duration
	ioTimeout   time.Duration
	logger      *logging.Logger
}

// NewDialer creates a Dialer from engine configuration.
func NewDialer(cfg config.EngineConfig, logger *logging.Logger) *Dialer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dialer{
		address:  net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		username: cfg.Username,
		password: cfg.Password,
		tlsConfig: &tls.Config{
			ServerName:         cfg.Host,
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // engines ship self-signed certificates
			MinVersion:         tls.VersionTLS12,
		},
		dialTimeout: cfg.DialTimeout,
		ioTimeout:   cfg.IOTimeout,
		logger:      logger.WithComponent("gmp"),
	}
}

// Connect dials the engine and authenticates the new session.
func (d *Dialer) Connect(ctx context.Context) (Session, error) {
	td := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: d.dialTimeout},
		Config:    d.tlsConfig,
	}
	conn, err := td.DialContext(ctx, "tcp", d.address)
	if err != nil {
		return nil, errors.WrapEngineError(errors.CodeConnectionFailure, "connect",
			"failed to connect to scan engine at "+d.address, err)
	}

	return d.open(ctx, conn)
}

func (d *Dialer) open(ctx context.Context, conn net.Conn) (Session, error) {
	s := newConnSession(conn, d.ioTimeout)
	if err := s.authenticate(ctx, d.username, d.password); err != nil {
		_ = s.Close()
		return nil, err
	}
	d.logger.Debug("engine session opened", "address", d.address)
	return s, nil
}

// WithSession opens a session, runs fn and closes the session again,
// whatever fn returns.
func WithSession(ctx context.Context, c Connector, fn func(Session) error) error {
	s, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	return fn(s)
}
