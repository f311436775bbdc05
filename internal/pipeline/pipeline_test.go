package pipeline

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	failIndex   int
	cleanupRuns int
}

func (f *fakeEngine) ProcessSingle(input []byte) ([]byte, error) {
	if len(input) > 0 && input[0] == byte(f.failIndex) {
		return nil, errors.New("simulated failure")
	}
	out := make([]byte, len(input))
	for i, b := range input {
		out[i] = b + 1
	}
	return out, nil
}

func (f *fakeEngine) Cleanup() { f.cleanupRuns++ }

func encodeStreamingRequest(images [][]byte) []byte {
	var buf bytes.Buffer
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(images)))
	buf.Write(n[:])
	for _, img := range images {
		binary.LittleEndian.PutUint32(n[:], uint32(len(img)))
		buf.Write(n[:])
		buf.Write(img)
	}
	return buf.Bytes()
}

func TestRunProcessesBatchInOrder(t *testing.T) {
	images := [][]byte{{10}, {20}, {30}}
	in := bytes.NewReader(encodeStreamingRequest(images))
	var out bytes.Buffer
	eng := &fakeEngine{failIndex: -1}

	metrics, err := Run(in, &out, eng, Options{QueueCapacity: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), metrics.Processed)
	require.Equal(t, int64(0), metrics.Errors)
	require.Equal(t, 1, eng.cleanupRuns)

	r := &out
	var count [4]byte
	_, err = r.Read(count[:])
	require.NoError(t, err)
	require.Equal(t, uint32(3), binary.LittleEndian.Uint32(count[:]))

	for _, want := range []byte{11, 21, 31} {
		var size [4]byte
		_, err := r.Read(size[:])
		require.NoError(t, err)
		require.Equal(t, uint32(1), binary.LittleEndian.Uint32(size[:]))
		b, err := r.ReadByte()
		require.NoError(t, err)
		require.Equal(t, want, b)
	}
}

func TestRunContinuesBatchAfterOneFailure(t *testing.T) {
	images := [][]byte{{1}, {2}, {3}}
	in := bytes.NewReader(encodeStreamingRequest(images))
	var out bytes.Buffer
	eng := &fakeEngine{failIndex: 2} // the payload {2} triggers a failure

	metrics, err := Run(in, &out, eng, Options{QueueCapacity: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), metrics.Processed)
	require.Equal(t, int64(1), metrics.Errors)
}

func TestRunRejectsOversizedBatchCount(t *testing.T) {
	var buf bytes.Buffer
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], 5000)
	buf.Write(n[:])

	var out bytes.Buffer
	eng := &fakeEngine{failIndex: -1}

	_, err := Run(&buf, &out, eng, Options{})
	require.Error(t, err)
}
