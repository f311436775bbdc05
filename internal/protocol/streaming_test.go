package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamingBatchHeaderRange(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeU32(&buf, 0))
	_, err := ReadStreamingHeader(&buf)
	require.Error(t, err)

	buf.Reset()
	require.NoError(t, writeU32(&buf, MaxStreamingBatchItems+1))
	_, err = ReadStreamingHeader(&buf)
	require.Error(t, err)

	buf.Reset()
	require.NoError(t, writeU32(&buf, 3))
	n, err := ReadStreamingHeader(&buf)
	require.NoError(t, err)
	require.Equal(t, uint32(3), n)
}

func TestStreamingItemRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStreamingCount(&buf, 1))
	require.NoError(t, WriteStreamingItem(&buf, []byte("payload")))

	r := bytes.NewReader(buf.Bytes())
	n, err := ReadStreamingHeader(r)
	require.NoError(t, err)
	require.Equal(t, uint32(1), n)

	item, err := ReadStreamingItem(r)
	require.NoError(t, err)
	require.Equal(t, "payload", string(item))
}

func TestStreamingItemAllowsEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStreamingItem(&buf, nil))

	item, err := ReadStreamingItem(&buf)
	require.NoError(t, err)
	require.Empty(t, item)
}
