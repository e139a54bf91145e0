package targets

import (
	"context"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/anstrom/scanbridge/internal/discovery"
	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/gmp"
	"github.com/anstrom/scanbridge/internal/gmp/mocks"
	"github.com/anstrom/scanbridge/internal/logging"
)

const portListID = "33d0cd82-57c6-11e1-8ed1-406186ea4fc5"

func tree(t *testing.T, xml string) gmp.Response {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(xml))
	return gmp.Tree(doc.Root())
}

type fakeDiscoverer struct {
	hosts []string
	err   error
	calls int
}

func (f *fakeDiscoverer) Discover(_ context.Context, network string) (*discovery.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &discovery.Result{Network: network, Hosts: f.hosts}, nil
}

func newTestResolver(d Discoverer) *Resolver {
	logger, _ := logging.New(logging.Config{Level: logging.LevelError, Output: "stderr"})
	r := NewResolver(d, portListID, logger)
	r.now = func() time.Time { return time.Unix(1700000000, 0) }
	return r
}

const targetsXML = `<get_targets_response status="200" status_text="OK">
  <target id="multi"><name>lab</name><hosts>10.0.0.5, 10.0.0.6</hosts></target>
  <target id="single-5"><name>target_10.0.0.5</name><hosts>10.0.0.5</hosts></target>
  <target id="other"><name>x</name><hosts>10.0.0.50</hosts></target>
</get_targets_response>`

func TestResolveSingleReusesExactTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	sess := mocks.NewMockSession(ctrl)
	sess.EXPECT().Targets(gomock.Any()).Return(tree(t, targetsXML), nil).Times(2)

	r := newTestResolver(nil)
	plan, err := r.Prepare(context.Background(), " 10.0.0.5 ", ScanSingle)
	require.NoError(t, err)

	// Resolving twice yields the same target and never creates one.
	for range 2 {
		id, err := r.Resolve(context.Background(), sess, plan)
		require.NoError(t, err)
		assert.Equal(t, "single-5", id)
	}
}

func TestResolveSingleCreatesWhenOnlyMultiHostMatches(t *testing.T) {
	ctrl := gomock.NewController(t)
	sess := mocks.NewMockSession(ctrl)
	sess.EXPECT().Targets(gomock.Any()).Return(tree(t,
		`<get_targets_response status="200"><target id="multi"><hosts>10.0.0.6,10.0.0.7</hosts></target></get_targets_response>`), nil)
	sess.EXPECT().CreateTarget(gomock.Any(), gmp.TargetSpec{
		Name:       "target_10.0.0.6",
		Hosts:      []string{"10.0.0.6"},
		Comment:    "Auto-created target for 10.0.0.6",
		PortListID: portListID,
	}).Return(tree(t, `<create_target_response status="201" id="new-6"/>`), nil)

	r := newTestResolver(nil)
	plan, err := r.Prepare(context.Background(), "10.0.0.6", ScanSingle)
	require.NoError(t, err)

	id, err := r.Resolve(context.Background(), sess, plan)
	require.NoError(t, err)
	assert.Equal(t, "new-6", id)
}

func TestResolveTargetCreationFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	sess := mocks.NewMockSession(ctrl)
	sess.EXPECT().Targets(gomock.Any()).Return(gmp.Absent(), nil)
	sess.EXPECT().CreateTarget(gomock.Any(), gomock.Any()).Return(gmp.Scalar(400, "Target exists already"), nil)

	r := newTestResolver(nil)
	plan, err := r.Prepare(context.Background(), "10.0.0.9", ScanSingle)
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), sess, plan)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeTargetCreation))
}

func TestPrepareNetworkUsesDiscovery(t *testing.T) {
	d := &fakeDiscoverer{hosts: []string{"192.168.1.2", "192.168.1.9"}}
	r := newTestResolver(d)

	plan, err := r.Prepare(context.Background(), "192.168.1.0/24", ScanNetwork)
	require.NoError(t, err)
	assert.Equal(t, 1, d.calls)
	assert.Equal(t, "network_192.168.1.0_24_1700000000", plan.Name)
	assert.Equal(t, "Auto-created target for 192.168.1.0/24", plan.Comment)
	assert.Equal(t, []string{"192.168.1.2", "192.168.1.9"}, plan.Hosts)

	ctrl := gomock.NewController(t)
	sess := mocks.NewMockSession(ctrl)
	sess.EXPECT().CreateTarget(gomock.Any(), gmp.TargetSpec{
		Name:       plan.Name,
		Hosts:      plan.Hosts,
		Comment:    plan.Comment,
		PortListID: portListID,
	}).Return(tree(t, `<create_target_response status="201" id="net-1"/>`), nil)

	id, err := r.Resolve(context.Background(), sess, plan)
	require.NoError(t, err)
	assert.Equal(t, "net-1", id)
}

func TestPrepareNetworkNoLiveHosts(t *testing.T) {
	r := newTestResolver(&fakeDiscoverer{err: errors.ErrNoLiveHosts("10.9.9.0/24")})

	_, err := r.Prepare(context.Background(), "10.9.9.0/24", ScanNetwork)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNoLiveHosts))

	r = newTestResolver(&fakeDiscoverer{})
	_, err = r.Prepare(context.Background(), "10.9.9.0/24", ScanNetwork)
	assert.True(t, errors.IsCode(err, errors.CodeNoLiveHosts))
}

func TestPrepareRejectsInvalidInput(t *testing.T) {
	r := newTestResolver(&fakeDiscoverer{})

	_, err := r.Prepare(context.Background(), "10.0.0.0/24", ScanSingle)
	assert.True(t, errors.IsCode(err, errors.CodeTargetInvalid))

	_, err = r.Prepare(context.Background(), "10.0.0.1", ScanType("burst"))
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
}

func TestParseScanType(t *testing.T) {
	st, err := ParseScanType("")
	require.NoError(t, err)
	assert.Equal(t, ScanSingle, st)

	st, err = ParseScanType("Network")
	require.NoError(t, err)
	assert.Equal(t, ScanNetwork, st)

	_, err = ParseScanType("full")
	assert.Error(t, err)
}

func TestSingleHost(t *testing.T) {
	assert.True(t, singleHost("10.0.0.1", "10.0.0.1"))
	assert.True(t, singleHost(" 10.0.0.1 ", "10.0.0.1"))
	assert.False(t, singleHost("10.0.0.1,10.0.0.2", "10.0.0.1"))
	assert.False(t, singleHost("10.0.0.10", "10.0.0.1"))
	assert.False(t, singleHost("", "10.0.0.1"))
}
