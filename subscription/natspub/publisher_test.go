package natspub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/streamingfast/algebra-analytics/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTestServer(t *testing.T) string {
	t.Helper()

	opts := natsserver.DefaultTestOptions
	opts.Port = -1 // random port
	s := natsserver.RunServer(&opts)
	t.Cleanup(s.Shutdown)

	return s.ClientURL()
}

func TestNew_EmptyURL(t *testing.T) {
	publisher, err := New("", "")
	assert.Nil(t, publisher)
	assert.EqualError(t, err, "nats url is required")
}

func TestClose_NilConnection(t *testing.T) {
	publisher := &Publisher{}
	assert.False(t, publisher.Ready())
	assert.NoError(t, publisher.Close())
}

func TestPublisher_Publish(t *testing.T) {
	url := runTestServer(t)

	publisher, err := New(url, "test.deltas")
	require.NoError(t, err)
	defer publisher.Close()
	assert.True(t, publisher.Ready())

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()

	sub, err := nc.SubscribeSync("test.deltas.>")
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	deltas := []state.StateDelta{
		{Op: "c", Ordinal: 1, Key: "Pool:0x01", NewValue: []byte(`{"id":"0x01"}`)},
		{Op: "u", Ordinal: 2, Key: "Token:0x02", OldValue: []byte(`{"id":"0x02"}`), NewValue: []byte(`{"id":"0x02","txCount":"1"}`)},
	}
	require.NoError(t, publisher.Publish(context.Background(), deltas))

	msg, err := sub.NextMsg(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "test.deltas.Pool", msg.Subject)

	decoded := &Message{}
	require.NoError(t, json.Unmarshal(msg.Data, decoded))
	assert.Equal(t, "c", decoded.Op)
	assert.Equal(t, "Pool", decoded.Table)
	assert.Equal(t, "Pool:0x01", decoded.Key)
	assert.JSONEq(t, `{"id":"0x01"}`, string(decoded.NewValue))
	assert.Empty(t, decoded.OldValue)

	msg, err = sub.NextMsg(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "test.deltas.Token", msg.Subject)
	assert.JSONEq(t, `{"op":"u","ordinal":2,"table":"Token","key":"Token:0x02","old_value":{"id":"0x02"},"new_value":{"id":"0x02","txCount":"1"}}`, string(msg.Data))
}

func TestPublisher_DefaultPrefixAndClose(t *testing.T) {
	url := runTestServer(t)

	publisher, err := New(url, "")
	require.NoError(t, err)
	assert.Equal(t, "algebra.deltas.Factory", publisher.Subject("Factory"))

	require.NoError(t, publisher.Close())
	assert.False(t, publisher.Ready())
	assert.NoError(t, publisher.Close())
}

func TestPublisher_CanceledContext(t *testing.T) {
	url := runTestServer(t)

	publisher, err := New(url, "")
	require.NoError(t, err)
	defer publisher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = publisher.Publish(ctx, []state.StateDelta{{Op: "c", Key: "Pool:1", NewValue: []byte(`{}`)}})
	assert.ErrorIs(t, err, context.Canceled)
}
