package gmp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/anstrom/scanbridge/internal/errors"
)

const (
	// Engine responses for full reports can be large.
	maxResponseSize = 256 << 20
	readBufferSize  = 64 << 10
)

//go:generate mockgen -destination=mocks/mock_gmp.go -package=mocks github.com/anstrom/scanbridge/internal/gmp Session,Connector

// Session is an authenticated engine connection. Sessions are not shared
// between operations; each one is opened, used and closed by a single caller.
type Session interface {
	Version(ctx context.Context) (Response, error)
	Scanners(ctx context.Context) (Response, error)
	Targets(ctx context.Context) (Response, error)
	CreateTarget(ctx context.Context, spec TargetSpec) (Response, error)
	CreateTask(ctx context.Context, spec TaskSpec) (Response, error)
	StartTask(ctx context.Context, taskID string) (Response, error)
	StopTask(ctx context.Context, taskID string) (Response, error)
	Task(ctx context.Context, taskID string) (Response, error)
	Report(ctx context.Context, q ReportQuery) (Response, error)
	ReportFormats(ctx context.Context) (Response, error)
	Close() error
}

// connSession speaks GMP over an established stream connection.
type connSession struct {
	conn      net.Conn
	reader    *bufio.Reader
	ioTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

func newConnSession(conn net.Conn, ioTimeout time.Duration) *connSession {
	return &connSession{
		conn:      conn,
		reader:    bufio.NewReaderSize(conn, readBufferSize),
		ioTimeout: ioTimeout,
	}
}

func (s *connSession) authenticate(ctx context.Context, username, password string) error {
	resp, err := s.command(ctx, "authenticate", authenticateCommand{Username: username, Password: password})
	if err != nil {
		return err
	}
	if resp.Kind() == KindScalar {
		code, text := resp.Code()
		return errors.NewEngineError(errors.CodeAuthFailure, "authenticate",
			fmt.Sprintf("engine rejected credentials: %d %s", code, text))
	}
	if resp.Kind() != KindTree {
		return errors.NewEngineError(errors.CodeAuthFailure, "authenticate",
			"unexpected authentication response: "+resp.String())
	}
	return nil
}

func (s *connSession) Version(ctx context.Context) (Response, error) {
	return s.command(ctx, "get_version", getVersionCommand{})
}

func (s *connSession) Scanners(ctx context.Context) (Response, error) {
	return s.command(ctx, "get_scanners", getScannersCommand{})
}

func (s *connSession) Targets(ctx context.Context) (Response, error) {
	return s.command(ctx, "get_targets", getTargetsCommand{Filter: "rows=-1"})
}

func (s *connSession) CreateTarget(ctx context.Context, spec TargetSpec) (Response, error) {
	return s.command(ctx, "create_target", createTargetCommand{
		Name:     spec.Name,
		Hosts:    strings.Join(spec.Hosts, ","),
		Comment:  spec.Comment,
		PortList: idRef{ID: spec.PortListID},
	})
}

func (s *connSession) CreateTask(ctx context.Context, spec TaskSpec) (Response, error) {
	return s.command(ctx, "create_task", createTaskCommand{
		Name:    spec.Name,
		Comment: spec.Comment,
		Config:  idRef{ID: spec.ScanConfigID},
		Target:  idRef{ID: spec.TargetID},
		Scanner: idRef{ID: spec.ScannerID},
	})
}

func (s *connSession) StartTask(ctx context.Context, taskID string) (Response, error) {
	return s.command(ctx, "start_task", startTaskCommand{TaskID: taskID})
}

func (s *connSession) StopTask(ctx context.Context, taskID string) (Response, error) {
	return s.command(ctx, "stop_task", stopTaskCommand{TaskID: taskID})
}

func (s *connSession) Task(ctx context.Context, taskID string) (Response, error) {
	return s.command(ctx, "get_tasks", getTasksCommand{TaskID: taskID, Details: "1"})
}

func (s *connSession) Report(ctx context.Context, q ReportQuery) (Response, error) {
	return s.command(ctx, "get_reports", getReportsCommand{
		ReportID:         q.ReportID,
		FormatID:         q.FormatID,
		Filter:           q.Filter,
		Details:          flag(q.Details),
		IgnorePagination: flag(q.IgnorePagination),
	})
}

func (s *connSession) ReportFormats(ctx context.Context) (Response, error) {
	return s.command(ctx, "get_report_formats", getReportFormatsCommand{})
}

// Close closes the underlying connection. It is safe to call more than once.
func (s *connSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

// command writes one request and reads exactly one response document.
func (s *connSession) command(ctx context.Context, op string, cmd any) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Absent(), errors.NewEngineError(errors.CodeConnectionFailure, op, "session is closed")
	}

	payload, err := xml.Marshal(cmd)
	if err != nil {
		return Absent(), errors.WrapEngineError(errors.CodeEngineError, op, "failed to encode command", err)
	}

	deadline := time.Now().Add(s.ioTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetDeadline(deadline); err != nil {
		return Absent(), errors.WrapEngineError(errors.CodeConnectionFailure, op, "failed to set deadline", err)
	}
	// Cancellation unblocks pending I/O by expiring the deadline.
	stop := context.AfterFunc(ctx, func() { _ = s.conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := s.conn.Write(payload); err != nil {
		return Absent(), s.transportError(ctx, op, "failed to send command", err)
	}

	raw, err := readDocument(s.reader)
	if err != nil {
		return Absent(), s.transportError(ctx, op, "failed to read response", err)
	}

	return fromRaw(raw), nil
}

func (s *connSession) transportError(ctx context.Context, op, msg string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return errors.WrapEngineError(errors.CodeConnectionFailure, op, msg, err)
}

// recordingReader hands bytes to the XML decoder one at a time while keeping
// a copy, so the decoder never reads past the end of the current document.
type recordingReader struct {
	r   *bufio.Reader
	buf bytes.Buffer
}

func (rr *recordingReader) ReadByte() (byte, error) {
	b, err := rr.r.ReadByte()
	if err != nil {
		return 0, err
	}
	if rr.buf.Len() >= maxResponseSize {
		return 0, fmt.Errorf("response exceeds %d bytes", maxResponseSize)
	}
	rr.buf.WriteByte(b)
	return b, nil
}

func (rr *recordingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b, err := rr.ReadByte()
	if err != nil {
		return 0, err
	}
	p[0] = b
	return 1, nil
}

// readDocument reads a single top-level XML element from r and returns its
// raw bytes. GMP has no framing beyond the document itself.
func readDocument(r *bufio.Reader) ([]byte, error) {
	rec := &recordingReader{r: r}
	dec := xml.NewDecoder(rec)

	depth := 0
	for {
		tok, err := dec.RawToken()
		if err != nil {
			if err == io.EOF && rec.buf.Len() > 0 {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
			if depth == 0 {
				return bytes.TrimSpace(rec.buf.Bytes()), nil
			}
		}
	}
}
