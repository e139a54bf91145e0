package gmp

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/logging"
)

func TestFromRaw(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind Kind
	}{
		{"empty", "", KindAbsent},
		{"ok tree", `<get_version_response status="200" status_text="OK"><version>22.4</version></get_version_response>`, KindTree},
		{"created tree", `<create_target_response status="201" id="t-1"/>`, KindTree},
		{"rejected", `<create_task_response status="400" status_text="Bogus config"/>`, KindScalar},
		{"not xml", `garbage id="abc" more`, KindDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := fromRaw([]byte(tt.raw))
			assert.Equal(t, tt.kind, resp.Kind())
		})
	}

	code, text := fromRaw([]byte(`<x status="404" status_text="Failed to find task"/>`)).Code()
	assert.Equal(t, 404, code)
	assert.Equal(t, "Failed to find task", text)
}

func TestResponseConstructors(t *testing.T) {
	assert.Equal(t, KindAbsent, Tree(nil).Kind())
	assert.Equal(t, "absent", Absent().String())
	assert.Equal(t, "scalar(400 bad)", Scalar(400, "bad").String())
	assert.Equal(t, "document(3 bytes)", Document("abc").String())

	el := etree.NewElement("get_tasks_response")
	assert.Equal(t, "tree(<get_tasks_response>)", Tree(el).String())
	assert.Same(t, el, Tree(el).Root())
	assert.Equal(t, "abc", Document("abc").Raw())
}

func TestReadDocument(t *testing.T) {
	stream := `<a status="200"><b/><c>text</c></a>` + "\n" + `<second/>`
	r := bufio.NewReader(strings.NewReader(stream))

	first, err := readDocument(r)
	require.NoError(t, err)
	assert.Equal(t, `<a status="200"><b/><c>text</c></a>`, string(first))

	second, err := readDocument(r)
	require.NoError(t, err)
	assert.Equal(t, `<second/>`, string(second))

	_, err = readDocument(bufio.NewReader(strings.NewReader(`<open><never-closed>`)))
	assert.Error(t, err)
}

// fakeEngine answers commands read from conn with canned replies keyed by
// the command's root tag.
func fakeEngine(t *testing.T, conn net.Conn, replies map[string]string, seen chan<- string) {
	t.Helper()
	go func() {
		defer conn.Close()
		r := bufio.NewReader(conn)
		for {
			raw, err := readDocument(r)
			if err != nil {
				return
			}
			doc := etree.NewDocument()
			if err := doc.ReadFromBytes(raw); err != nil {
				return
			}
			tag := doc.Root().Tag
			if seen != nil {
				seen <- string(raw)
			}
			reply, ok := replies[tag]
			if !ok {
				reply = `<` + tag + `_response status="400" status_text="Unknown command"/>`
			}
			if _, err := conn.Write([]byte(reply)); err != nil {
				return
			}
		}
	}()
}

func newTestDialer() *Dialer {
	return &Dialer{
		address:   "pipe",
		username:  "admin",
		password:  "secret",
		ioTimeout: 5 * time.Second,
		logger:    logging.NewDefault(),
	}
}

func TestSessionRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	seen := make(chan string, 16)
	fakeEngine(t, server, map[string]string{
		"authenticate":  `<authenticate_response status="200" status_text="OK"><role>Admin</role></authenticate_response>`,
		"create_target": `<create_target_response status="201" status_text="OK, resource created" id="tgt-1"/>`,
		"get_tasks":     `<get_tasks_response status="200"><task id="task-1"><status>Running</status></task></get_tasks_response>`,
	}, seen)

	sess, err := newTestDialer().open(context.Background(), client)
	require.NoError(t, err)
	defer sess.Close()

	auth := <-seen
	assert.Contains(t, auth, "<username>admin</username>")
	assert.Contains(t, auth, "<password>secret</password>")

	resp, err := sess.CreateTarget(context.Background(), TargetSpec{
		Name:       "target_10.0.0.5",
		Hosts:      []string{"10.0.0.5"},
		Comment:    "Auto-created target for 10.0.0.5",
		PortListID: "pl-1",
	})
	require.NoError(t, err)
	require.Equal(t, KindTree, resp.Kind())
	assert.Equal(t, "tgt-1", resp.Root().SelectAttrValue("id", ""))

	cmd := <-seen
	assert.Contains(t, cmd, "<hosts>10.0.0.5</hosts>")
	assert.Contains(t, cmd, `<port_list id="pl-1">`)

	resp, err = sess.Task(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, KindTree, resp.Kind())
	assert.Contains(t, <-seen, `task_id="task-1"`)

	resp, err = sess.StopTask(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, KindScalar, resp.Kind())
}

func TestSessionAuthFailure(t *testing.T) {
	client, server := net.Pipe()
	fakeEngine(t, server, map[string]string{
		"authenticate": `<authenticate_response status="400" status_text="Authentication failed"/>`,
	}, nil)

	_, err := newTestDialer().open(context.Background(), client)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeAuthFailure))
}

func TestSessionCanceledContext(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	sess := newConnSession(client, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sess.Version(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConnectionFailure))

	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())
	_, err = sess.Version(context.Background())
	assert.Error(t, err)
}
