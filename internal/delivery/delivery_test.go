package delivery

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/scanbridge/internal/config"
	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/logging"
)

func quietLogger() *logging.Logger {
	logger, _ := logging.New(logging.Config{Level: logging.LevelError, Output: "stderr"})
	return logger
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.sent...)
}

type fakeArchiver struct {
	keys []string
	err  error
}

func (f *fakeArchiver) Archive(_ context.Context, taskID string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	key := ObjectKey(taskID, time.Unix(0, 0))
	f.keys = append(f.keys, key)
	return key, nil
}

func TestMemoryStoreTakeIsOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	require.NoError(t, store.Put(ctx, Obligation{TaskID: "t1", Recipient: "a@example.com"}))

	o, ok, err := store.Take(ctx, "t1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a@example.com", o.Recipient)
	assert.False(t, o.CreatedAt.IsZero())

	_, ok, err = store.Take(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreConcurrentTake(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	require.NoError(t, store.Put(ctx, Obligation{TaskID: "t1", Recipient: "a@example.com"}))

	var winners atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := store.Take(ctx, "t1"); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Hour)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, Obligation{TaskID: "old", Recipient: "a@example.com", CreatedAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, store.Put(ctx, Obligation{TaskID: "stale", Recipient: "b@example.com", CreatedAt: now.Add(-90 * time.Minute)}))
	require.NoError(t, store.Put(ctx, Obligation{TaskID: "fresh", Recipient: "c@example.com"}))

	_, ok, err := store.Take(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok, "expired obligations are not handed out")

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func newPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, time.Time) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewPostgresStore(sqlx.NewDb(mockDB, "postgres"), 24*time.Hour)
	store.now = func() time.Time { return now }
	return store, mock, now
}

func TestPostgresStorePutAndTake(t *testing.T) {
	ctx := context.Background()
	store, mock, now := newPostgresStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO delivery_obligations")).
		WithArgs("t1", "a@example.com", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Put(ctx, Obligation{TaskID: "t1", Recipient: "a@example.com"}))

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM delivery_obligations")).
		WithArgs("t1", now.Add(-24*time.Hour)).
		WillReturnRows(sqlmock.NewRows([]string{"task_id", "recipient", "created_at"}).
			AddRow("t1", "a@example.com", now))
	o, ok, err := store.Take(ctx, "t1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a@example.com", o.Recipient)

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM delivery_obligations")).
		WithArgs("t1", now.Add(-24*time.Hour)).
		WillReturnRows(sqlmock.NewRows([]string{"task_id", "recipient", "created_at"}))
	_, ok, err = store.Take(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSweepAndLen(t *testing.T) {
	ctx := context.Background()
	store, mock, now := newPostgresStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM delivery_obligations WHERE created_at < $1")).
		WithArgs(now.Add(-24*time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM delivery_obligations")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	n, err = store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportMessage(t *testing.T) {
	msg := ReportMessage("task-9", "ops@example.com", []byte("%PDF"))
	assert.Equal(t, "ops@example.com", msg.To)
	assert.Equal(t, "OpenVAS Scan Report for Task task-9", msg.Subject)
	assert.Equal(t, "Attached is the PDF report for your scan (Task ID: task-9).", msg.Body)
	assert.Equal(t, "scan_report_task-9.pdf", msg.AttachmentName)
}

func TestSMTPMailerBuild(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "localhost", Port: 25, From: "scanner@example.com"}, 5*time.Second)
	assert.Equal(t, 5*time.Second, m.dialer.Timeout)

	mm := m.build(ReportMessage("t1", "ops@example.com", []byte("%PDF-1.4")))
	assert.Equal(t, []string{"scanner@example.com"}, mm.GetHeader("From"))
	assert.Equal(t, []string{"ops@example.com"}, mm.GetHeader("To"))
	assert.Equal(t, []string{"OpenVAS Scan Report for Task t1"}, mm.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := mm.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "scan_report_t1.pdf")
}

func TestSMTPMailerHonorsCanceledContext(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "localhost", Port: 25, From: "scanner@example.com"}, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{To: "a@example.com"}), context.Canceled)
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2026, 2, 3, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "reports/2026/02/03/scan_report_t1.pdf", ObjectKey("t1", at))
}

func TestCoordinatorClaimAndDispatch(t *testing.T) {
	ctx := context.Background()
	mailer := &fakeMailer{}
	archiver := &fakeArchiver{}
	c := NewCoordinator(NewMemoryStore(time.Hour), mailer, quietLogger(), WithArchiver(archiver), WithSendTimeout(time.Second))

	require.NoError(t, c.Register(ctx, "t1", "ops@example.com"))
	pending, err := c.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	recipient, ok, err := c.Claim(ctx, "t1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ops@example.com", recipient)

	_, ok, err = c.Claim(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, ok)

	c.Dispatch("t1", recipient, func(context.Context) ([]byte, error) { return []byte("%PDF"), nil })
	require.NoError(t, c.Shutdown(ctx))

	sent := mailer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "scan_report_t1.pdf", sent[0].AttachmentName)
	assert.Len(t, archiver.keys, 1)
}

func TestCoordinatorDeliverFailure(t *testing.T) {
	mailer := &fakeMailer{err: stderrors.New("relay refused")}
	archiver := &fakeArchiver{}
	c := NewCoordinator(NewMemoryStore(time.Hour), mailer, quietLogger(), WithArchiver(archiver))

	err := c.Deliver(context.Background(), "t2", "ops@example.com", []byte("%PDF"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeDeliveryFailed))
	assert.Empty(t, archiver.keys, "nothing is archived when the mail was not sent")
}

func TestCoordinatorArchiveFailureDoesNotFailDelivery(t *testing.T) {
	mailer := &fakeMailer{}
	c := NewCoordinator(NewMemoryStore(time.Hour), mailer, quietLogger(), WithArchiver(&fakeArchiver{err: stderrors.New("bucket gone")}))

	require.NoError(t, c.Deliver(context.Background(), "t3", "ops@example.com", []byte("%PDF")))
	assert.Len(t, mailer.messages(), 1)
}

func TestCoordinatorDispatchFetchFailure(t *testing.T) {
	mailer := &fakeMailer{}
	c := NewCoordinator(NewMemoryStore(time.Hour), mailer, quietLogger())

	c.Dispatch("t5", "ops@example.com", func(context.Context) ([]byte, error) {
		return nil, errors.NewEngineError(errors.CodeEmptyReport, "get_reports", "report is empty")
	})
	require.NoError(t, c.Shutdown(context.Background()))
	assert.Empty(t, mailer.messages())
}

func TestCoordinatorShutdownTimesOut(t *testing.T) {
	release := make(chan struct{})
	c := NewCoordinator(NewMemoryStore(time.Hour), blockingMailer(release), quietLogger())
	c.Dispatch("t4", "ops@example.com", func(context.Context) ([]byte, error) { return nil, nil })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Shutdown(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, c.Shutdown(context.Background()))
}

type blockingMailer chan struct{}

func (b blockingMailer) Send(context.Context, Message) error {
	<-b
	return nil
}

func TestMinioArchiverUploadsReport(t *testing.T) {
	var gotPath, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["location"]; ok {
			w.Header().Set("Content-Type", "application/xml")
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`)
			return
		}
		if r.Method == http.MethodPut {
			gotPath = r.URL.Path
			gotType = r.Header.Get("Content-Type")
			gotBody, _ = io.ReadAll(r.Body)
			w.Header().Set("ETag", `"abc123"`)
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotImplemented)
	}))
	defer srv.Close()

	a, err := NewMinioArchiver(config.ArchiveConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "scan-reports",
	})
	require.NoError(t, err)
	a.now = func() time.Time { return time.Date(2026, 5, 6, 0, 0, 0, 0, time.UTC) }

	key, err := a.Archive(context.Background(), "t7", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "reports/2026/05/06/scan_report_t7.pdf", key)
	assert.Equal(t, "/scan-reports/"+key, gotPath)
	assert.Equal(t, "application/pdf", gotType)
	// Plain-HTTP uploads may be chunk-signed, so the payload is framed.
	assert.True(t, bytes.Contains(gotBody, []byte("%PDF-1.4")))
}
