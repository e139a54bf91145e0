package normalize

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/gmp"
)

func tree(t *testing.T, xml string) gmp.Response {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(xml))
	return gmp.Tree(doc.Root())
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"Running", StatusRunning},
		{"Requested", StatusRunning},
		{"Stop Requested", StatusStopped},
		{"Stopped", StatusStopped},
		{"Pause Requested", StatusStopped},
		{"Paused", StatusStopped},
		{"Done", StatusDone},
		{"New", StatusRunning},
		{"Interrupted", StatusRunning},
		{"Queued", StatusRunning},
		{"", StatusRunning},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonical(tt.raw))
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusDone.Terminal())
	assert.True(t, StatusStopped.Terminal())
	assert.True(t, StatusError.Terminal())
}

func TestID(t *testing.T) {
	tests := []struct {
		name   string
		resp   gmp.Response
		want   string
		wantOK bool
	}{
		{"tree", tree(t, `<create_target_response status="201" id="tgt-1"/>`), "tgt-1", true},
		{"document xml", gmp.Document(`<create_task_response status="201" id="task-9"/>`), "task-9", true},
		{"document salvage", gmp.Document(`junk <create_task_response id="task-7" oops`), "task-7", true},
		{"document without id", gmp.Document(`nothing useful`), "", false},
		{"tree without id", tree(t, `<create_task_response status="201"/>`), "", false},
		{"scalar", gmp.Scalar(400, "Bogus"), "", false},
		{"absent", gmp.Absent(), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ID(tt.resp)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestRawStatusAndTaskStatus(t *testing.T) {
	wrapped := tree(t, `<get_tasks_response status="200"><task id="t"><status>Done</status></task></get_tasks_response>`)
	raw, ok := RawStatus(wrapped)
	require.True(t, ok)
	assert.Equal(t, "Done", raw)
	assert.Equal(t, StatusDone, TaskStatus(wrapped))

	bare := gmp.Document(`<task id="t"><status>Pause Requested</status></task>`)
	assert.Equal(t, StatusStopped, TaskStatus(bare))

	noStatus := tree(t, `<get_tasks_response status="200"><task id="t"/></get_tasks_response>`)
	_, ok = RawStatus(noStatus)
	assert.False(t, ok)
	assert.Equal(t, StatusRunning, TaskStatus(noStatus))

	assert.Equal(t, StatusError, TaskStatus(gmp.Scalar(404, "Failed to find task")))
	assert.Equal(t, StatusError, TaskStatus(gmp.Absent()))
	assert.Equal(t, StatusRunning, TaskStatus(gmp.Document("<<<")))
}

func TestReportID(t *testing.T) {
	tests := []struct {
		name   string
		resp   gmp.Response
		want   string
		wantOK bool
	}{
		{
			name:   "current report",
			resp:   tree(t, `<get_tasks_response><task><current_report><report id="r-cur"/></current_report></task></get_tasks_response>`),
			want:   "r-cur",
			wantOK: true,
		},
		{
			name:   "last report fallback",
			resp:   tree(t, `<get_tasks_response><task><report/><last_report><report id="r-last"/></last_report></task></get_tasks_response>`),
			want:   "r-last",
			wantOK: true,
		},
		{
			name: "no report",
			resp: tree(t, `<get_tasks_response><task><status>Done</status></task></get_tasks_response>`),
		},
		{
			name: "malformed",
			resp: gmp.Document(`<get_tasks_response><task>`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ReportID(tt.resp)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestRootErrors(t *testing.T) {
	_, err := Root(gmp.Document("not xml at all <"))
	assert.True(t, errors.IsCode(err, errors.CodeMalformedResponse))

	_, err = Root(gmp.Scalar(400, "bad"))
	assert.True(t, errors.IsCode(err, errors.CodeEngineError))

	_, err = Root(gmp.Absent())
	assert.True(t, errors.IsNotFound(err))
}

func TestChildren(t *testing.T) {
	resp := tree(t, `<get_scanners_response><scanner id="a"><name> OpenVAS Default </name></scanner><scanner id="b"/></get_scanners_response>`)
	scanners := Children(resp, "scanner")
	require.Len(t, scanners, 2)
	assert.Equal(t, "OpenVAS Default", ChildText(scanners[0], "name"))
	assert.Empty(t, ChildText(scanners[1], "name"))
	assert.Empty(t, ChildText(nil, "name"))
	assert.Nil(t, Children(gmp.Absent(), "scanner"))
}
