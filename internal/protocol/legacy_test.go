package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeLegacyRequest(t *testing.T, version uint32, images [][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, writeU32(&buf, LegacyMagic))
	require.NoError(t, writeU32(&buf, version))
	require.NoError(t, writeU32(&buf, uint32(len(images))))
	require.NoError(t, writeU32(&buf, 0))
	for _, img := range images {
		require.NoError(t, writeLenPrefixed(&buf, img))
	}
	return buf.Bytes()
}

// TestLegacyBatchRoundTrip mirrors spec.md §9 scenario S3: two images in,
// two {status=0, size>0, bytes} triples out.
func TestLegacyBatchRoundTrip(t *testing.T) {
	images := [][]byte{[]byte("image-a"), []byte("image-b")}
	raw := encodeLegacyRequest(t, 1, images)

	req, err := ReadLegacyRequest(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, uint32(2), req.NumImages)
	require.Equal(t, images, req.Images)

	var out bytes.Buffer
	results := []LegacyResult{
		{OK: true, Output: []byte("out-a")},
		{OK: true, Output: []byte("out-b")},
	}
	require.NoError(t, WriteLegacyResponse(&out, req.Version, req.NumImages, results))

	r := bytes.NewReader(out.Bytes())
	magic, _ := readU32(r)
	require.Equal(t, LegacyMagic, magic)
	version, _ := readU32(r)
	require.Equal(t, uint32(1), version)
	numImages, _ := readU32(r)
	require.Equal(t, uint32(2), numImages)
	reserved, _ := readU32(r)
	require.Equal(t, uint32(0), reserved)

	status0, _ := readU32(r)
	require.Equal(t, LegacyStatusOK, status0)
	payload0, err := readLenPrefixed(r, MaxLegacyImageBytes)
	require.NoError(t, err)
	require.Equal(t, "out-a", string(payload0))

	status1, _ := readU32(r)
	require.Equal(t, LegacyStatusOK, status1)
	payload1, err := readLenPrefixed(r, MaxLegacyImageBytes)
	require.NoError(t, err)
	require.Equal(t, "out-b", string(payload1))
}

func TestLegacyBatchRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeU32(&buf, 0xdeadbeef))
	_, err := ReadLegacyRequest(&buf)
	require.Error(t, err)
}

func TestLegacyResponseMarksFailuresWithZeroPayload(t *testing.T) {
	var out bytes.Buffer
	results := []LegacyResult{{OK: false}}
	require.NoError(t, WriteLegacyResponse(&out, 1, 1, results))

	r := bytes.NewReader(out.Bytes())
	for i := 0; i < 4; i++ {
		_, _ = readU32(r)
	}
	status, _ := readU32(r)
	require.Equal(t, LegacyStatusFail, status)
	size, _ := readU32(r)
	require.Equal(t, uint32(0), size)
}
