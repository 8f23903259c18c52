package reqres

import (
	"testing"

	"github.com/go-ipcx/ipcx/pkg/config"
	"github.com/go-ipcx/ipcx/pkg/node"
	"github.com/go-ipcx/ipcx/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSetup(t *testing.T) (config.Config, *node.Node) {
	cfg := config.Default()
	cfg.Global.RootPath = t.TempDir()
	n, err := node.NewBuilder(cfg).Create("test-node")
	require.NoError(t, err)
	t.Cleanup(func() { n.Close() })
	return cfg, n
}

func newCalcService(t *testing.T, cfg config.Config, n *node.Node) *service.Service {
	name, err := service.NewName("calculator")
	require.NoError(t, err)
	sc := service.NewRequestResponseStaticConfig(cfg, name, "int32", "int32")
	svc, err := service.NewBuilder(cfg, n).Create(sc)
	require.NoError(t, err)
	return svc
}

func TestRequestResponseRoundTrip(t *testing.T) {
	cfg, n := testSetup(t)
	svc := newCalcService(t, cfg, n)

	server, err := NewServer[int32, int32](n, svc)
	require.NoError(t, err)
	defer server.Close()

	client, err := NewClient[int32, int32](n, svc)
	require.NoError(t, err)
	defer client.Close()

	req, err := client.Send(21)
	require.NoError(t, err)
	defer req.Close()

	ctx, err := server.Receive()
	require.NoError(t, err)
	require.NotNil(t, ctx)
	assert.Equal(t, int32(21), ctx.Value())

	require.NoError(t, ctx.Respond(ctx.Value()*2))

	resp, err := req.Receive()
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, int32(42), *resp.Value())
	require.NoError(t, resp.Release())
}

func TestSendWithNoServerFails(t *testing.T) {
	cfg, n := testSetup(t)
	svc := newCalcService(t, cfg, n)

	client, err := NewClient[int32, int32](n, svc)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Send(1)
	assert.ErrorIs(t, err, ErrNoServer)
}

func TestReceiveWithNoRequestReturnsNilNil(t *testing.T) {
	cfg, n := testSetup(t)
	svc := newCalcService(t, cfg, n)

	server, err := NewServer[int32, int32](n, svc)
	require.NoError(t, err)
	defer server.Close()

	ctx, err := server.Receive()
	require.NoError(t, err)
	assert.Nil(t, ctx)
}

func TestClientExceedsMaxActiveRequests(t *testing.T) {
	cfg, n := testSetup(t)
	name, err := service.NewName("bounded-calc")
	require.NoError(t, err)
	sc := service.NewRequestResponseStaticConfig(cfg, name, "int32", "int32")
	sc.RequestResponse.MaxActiveRequestsPerClient = 1
	svc, err := service.NewBuilder(cfg, n).Create(sc)
	require.NoError(t, err)

	server, err := NewServer[int32, int32](n, svc)
	require.NoError(t, err)
	defer server.Close()

	client, err := NewClient[int32, int32](n, svc)
	require.NoError(t, err)
	defer client.Close()

	first, err := client.Send(1)
	require.NoError(t, err)

	_, err = client.Send(2)
	assert.ErrorIs(t, err, ErrExceedsMaxActiveRequests)

	first.Close()
	_, err = client.Send(3)
	assert.NoError(t, err)
}

func TestResponseDoubleReleaseFails(t *testing.T) {
	cfg, n := testSetup(t)
	svc := newCalcService(t, cfg, n)

	server, err := NewServer[int32, int32](n, svc)
	require.NoError(t, err)
	defer server.Close()

	client, err := NewClient[int32, int32](n, svc)
	require.NoError(t, err)
	defer client.Close()

	req, err := client.Send(5)
	require.NoError(t, err)
	defer req.Close()

	ctx, err := server.Receive()
	require.NoError(t, err)
	require.NoError(t, ctx.Respond(10))

	resp, err := req.Receive()
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.NoError(t, resp.Release())
	assert.ErrorIs(t, resp.Release(), ErrAlreadyReleased)
}
