package protocol

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildRequestFrame(t *testing.T, magic uint32, version, msgType byte, requestID uint32, engine byte, meta string, gpuID int32, images [][]byte) []byte {
	t.Helper()
	var body bytes.Buffer
	require.NoError(t, writeU32(&body, magic))
	body.WriteByte(version)
	body.WriteByte(msgType)
	require.NoError(t, writeU32(&body, requestID))
	body.WriteByte(engine)
	require.NoError(t, writeLenPrefixed(&body, []byte(meta)))
	require.NoError(t, writeI32(&body, gpuID))
	require.NoError(t, writeU32(&body, uint32(len(images))))
	for _, img := range images {
		require.NoError(t, writeLenPrefixed(&body, img))
	}
	return body.Bytes()
}

func wrapFrame(t *testing.T, body []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, writeU32(&out, uint32(len(body))))
	out.Write(body)
	return out.Bytes()
}

func TestV2RequestRoundTrip(t *testing.T) {
	body := buildRequestFrame(t, V2Magic, V2Version, byte(MsgTypeRequest), 42, byte(EngineESRGAN), "x2", 0, [][]byte{[]byte("abc")})
	framed := wrapFrame(t, body)

	frame, err := ReadFrame(bytes.NewReader(framed))
	require.NoError(t, err)

	req, err := ParseRequest(frame)
	require.NoError(t, err)
	require.Equal(t, uint32(42), req.RequestID)
	require.Equal(t, EngineESRGAN, req.Engine)
	require.Equal(t, "x2", req.QualityOrScale)
	require.Equal(t, [][]byte{[]byte("abc")}, req.Images)
}

func TestV2ReadFrameZeroLengthIsEOF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeU32(&buf, 0))
	_, err := ReadFrame(&buf)
	require.ErrorIs(t, err, io.EOF)
}

func TestV2ParseRejectsBadMagic(t *testing.T) {
	body := buildRequestFrame(t, 0xdeadbeef, V2Version, byte(MsgTypeRequest), 1, 0, "", 0, nil)
	_, err := ParseRequest(body)
	require.Error(t, err)
}

func TestV2ParseRejectsBadVersion(t *testing.T) {
	body := buildRequestFrame(t, V2Magic, 1, byte(MsgTypeRequest), 1, 0, "", 0, nil)
	_, err := ParseRequest(body)
	require.Error(t, err)
}

func TestV2ParseRejectsNonRequestMessageType(t *testing.T) {
	body := buildRequestFrame(t, V2Magic, V2Version, byte(MsgTypeResponse), 1, 0, "", 0, nil)
	_, err := ParseRequest(body)
	require.Error(t, err)
}

func TestV2ParseRejectsBadEngineByte(t *testing.T) {
	body := buildRequestFrame(t, V2Magic, V2Version, byte(MsgTypeRequest), 1, 7, "", 0, nil)
	_, err := ParseRequest(body)
	require.Error(t, err)
}

func TestV2ParseRejectsZeroBatchCount(t *testing.T) {
	body := buildRequestFrame(t, V2Magic, V2Version, byte(MsgTypeRequest), 1, 0, "", 0, nil)
	_, err := ParseRequest(body)
	require.Error(t, err)
}

func TestV2ParseRejectsTrailingBytes(t *testing.T) {
	body := buildRequestFrame(t, V2Magic, V2Version, byte(MsgTypeRequest), 1, 0, "", 0, [][]byte{[]byte("a")})
	body = append(body, 0xff, 0xff)
	_, err := ParseRequest(body)
	require.Error(t, err)
}

func TestValidateBatchCountRejectsOverMax(t *testing.T) {
	req := &Request{Images: [][]byte{{1}, {2}, {3}}}
	require.Error(t, ValidateBatchCount(req, 2))
	require.NoError(t, ValidateBatchCount(req, 3))
}

func TestResponseFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	resp := Response{RequestID: 9, Status: StatusOK, Outputs: [][]byte{[]byte("out1"), []byte("out2")}}
	require.NoError(t, WriteResponseFrame(&buf, resp))

	frame, err := ReadFrame(&buf)
	require.NoError(t, err)

	r := bytes.NewReader(frame)
	magic, _ := readU32(r)
	require.Equal(t, V2Magic, magic)
}
