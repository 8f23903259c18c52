package pubsub

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

func newFloatService(t *testing.T, cfg config.Config, n *node.Node) *service.Service {
	name, err := service.NewName("temperature")
	require.NoError(t, err)
	sc := service.NewPublishSubscribeStaticConfig(cfg, name, "float64")
	svc, err := service.NewBuilder(cfg, n).Create(sc)
	require.NoError(t, err)
	return svc
}

func TestPublisherSendCopyDeliversToSubscriber(t *testing.T) {
	cfg, n := testSetup(t)
	svc := newFloatService(t, cfg, n)

	pub, err := NewPublisher[float64](n, svc, DiscardSample)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := NewSubscriber[float64](n, svc, 4)
	require.NoError(t, err)

	delivered, err := pub.SendCopy(42.5)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	assert.True(t, sub.HasSamples())
	sample, err := sub.Receive()
	require.NoError(t, err)
	require.NotNil(t, sample)
	assert.Equal(t, 42.5, *sample.Value())
	require.NoError(t, sample.Release())
}

func TestSubscriberReceiveEmptyReturnsNilNil(t *testing.T) {
	cfg, n := testSetup(t)
	svc := newFloatService(t, cfg, n)

	sub, err := NewSubscriber[float64](n, svc, 4)
	require.NoError(t, err)

	assert.False(t, sub.HasSamples())
	sample, err := sub.Receive()
	require.NoError(t, err)
	assert.Nil(t, sample)
}

func TestLateJoiningSubscriberReplaysHistory(t *testing.T) {
	cfg, n := testSetup(t)
	svc := newFloatService(t, cfg, n)

	pub, err := NewPublisher[float64](n, svc, DiscardSample)
	require.NoError(t, err)
	defer pub.Close()

	// No subscriber yet: Send still succeeds, just delivers to nobody.
	delivered, err := pub.SendCopy(1.0)
	require.NoError(t, err)
	assert.Equal(t, 0, delivered)

	sub, err := NewSubscriber[float64](n, svc, 4)
	require.NoError(t, err)

	assert.True(t, sub.HasSamples())
	sample, err := sub.Receive()
	require.NoError(t, err)
	require.NotNil(t, sample)
	assert.Equal(t, 1.0, *sample.Value())
	require.NoError(t, sample.Release())
}

func TestLoanAbandonReleasesChunkWithoutSending(t *testing.T) {
	cfg, n := testSetup(t)
	svc := newFloatService(t, cfg, n)

	pub, err := NewPublisher[float64](n, svc, DiscardSample)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := NewSubscriber[float64](n, svc, 4)
	require.NoError(t, err)

	loan, err := pub.LoanUninit()
	require.NoError(t, err)
	*loan.Value() = 9.0
	loan.Abandon()

	assert.False(t, sub.HasSamples())
}

func TestPublisherLoanExceedsMaxFails(t *testing.T) {
	cfg, n := testSetup(t)
	name, err := service.NewName("bounded")
	require.NoError(t, err)
	sc := service.NewPublishSubscribeStaticConfig(cfg, name, "float64")
	sc.PublishSubscribe.PublisherMaxLoanedSamples = 1
	svc, err := service.NewBuilder(cfg, n).Create(sc)
	require.NoError(t, err)

	pub, err := NewPublisher[float64](n, svc, DiscardSample)
	require.NoError(t, err)
	defer pub.Close()

	first, err := pub.LoanUninit()
	require.NoError(t, err)

	_, err = pub.LoanUninit()
	assert.ErrorIs(t, err, ErrExceedsMaxLoanedSamples)

	first.Abandon()
	_, err = pub.LoanUninit()
	assert.NoError(t, err)
}

func TestSampleDoubleReleaseFails(t *testing.T) {
	cfg, n := testSetup(t)
	svc := newFloatService(t, cfg, n)

	pub, err := NewPublisher[float64](n, svc, DiscardSample)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := NewSubscriber[float64](n, svc, 4)
	require.NoError(t, err)

	_, err = pub.SendCopy(3.0)
	require.NoError(t, err)

	sample, err := sub.Receive()
	require.NoError(t, err)
	require.NotNil(t, sample)
	require.NoError(t, sample.Release())
	assert.ErrorIs(t, sample.Release(), ErrAlreadyReleased)
}

func TestDiscardSampleDropsWhenSubscriberQueueFull(t *testing.T) {
	cfg, n := testSetup(t)
	name, err := service.NewName("discarding")
	require.NoError(t, err)
	sc := service.NewPublishSubscribeStaticConfig(cfg, name, "int32")
	sc.PublishSubscribe.SubscriberMaxBufferSize = 1
	sc.PublishSubscribe.PublisherMaxLoanedSamples = 4
	sc.PublishSubscribe.PublisherHistorySize = 0
	svc, err := service.NewBuilder(cfg, n).Create(sc)
	require.NoError(t, err)

	pub, err := NewPublisher[int32](n, svc, DiscardSample)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := NewSubscriber[int32](n, svc, 1)
	require.NoError(t, err)

	d1, err := pub.SendCopy(1)
	require.NoError(t, err)
	assert.Equal(t, 1, d1)

	d2, err := pub.SendCopy(2)
	require.NoError(t, err)
	assert.Equal(t, 0, d2)

	sample, err := sub.Receive()
	require.NoError(t, err)
	require.NotNil(t, sample)
	assert.Equal(t, int32(1), *sample.Value())
}

func TestOverflowingOldestEvictsOldestWhenSubscriberQueueFull(t *testing.T) {
	cfg, n := testSetup(t)
	name, err := service.NewName("overflowing")
	require.NoError(t, err)
	sc := service.NewPublishSubscribeStaticConfig(cfg, name, "int32")
	sc.PublishSubscribe.SubscriberMaxBufferSize = 1
	sc.PublishSubscribe.PublisherMaxLoanedSamples = 4
	sc.PublishSubscribe.PublisherHistorySize = 0
	sc.PublishSubscribe.EnableSafeOverflow = true
	svc, err := service.NewBuilder(cfg, n).Create(sc)
	require.NoError(t, err)

	pub, err := NewPublisher[int32](n, svc, OverflowingOldest)
	require.NoError(t, err)
	defer pub.Close()

	sub, err := NewSubscriber[int32](n, svc, 1)
	require.NoError(t, err)

	d1, err := pub.SendCopy(1)
	require.NoError(t, err)
	assert.Equal(t, 1, d1)

	d2, err := pub.SendCopy(2)
	require.NoError(t, err)
	assert.Equal(t, 1, d2)

	sample, err := sub.Receive()
	require.NoError(t, err)
	require.NotNil(t, sample)
	assert.Equal(t, int32(2), *sample.Value())

	next, err := sub.Receive()
	require.NoError(t, err)
	assert.Nil(t, next)
}
