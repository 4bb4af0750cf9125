package handler

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream(t *testing.T) {
	syncer := newFakeSyncer(errPortalDown, "Logging into ABI...", "Accessing Schedule...")
	var buf bytes.Buffer
	flushes := 0

	err := Stream(&buf, func() error { flushes++; return nil }, syncer.Execute(t.Context(), validRequest()))
	require.NoError(t, err)

	assert.Equal(t,
		"data: {\"status\":\"Logging into ABI...\"}\n\n"+
			"data: {\"status\":\"Accessing Schedule...\"}\n\n"+
			"data: {\"status\":\"❌ Error: portal down\"}\n\n",
		buf.String())
	assert.Equal(t, 3, flushes)
}

func TestStream_DoesNotEscapeHTML(t *testing.T) {
	var buf bytes.Buffer

	err := writeEvent(&buf, "9:00 AM <Main> & \"Rink\"")
	require.NoError(t, err)
	assert.Equal(t, "data: {\"status\":\"9:00 AM <Main> & \\\"Rink\\\"\"}\n\n", buf.String())
}

// failingWriter は指定回数の書き込み後に失敗する
type failingWriter struct {
	remaining int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.remaining == 0 {
		return 0, errors.New("connection reset")
	}
	w.remaining--
	return len(p), nil
}

func TestStream_StopsOnWriteError(t *testing.T) {
	syncer := newFakeSyncer(nil, "one", "two", "three", "four")

	err := Stream(&failingWriter{remaining: 1}, nil, syncer.Execute(t.Context(), validRequest()))
	assert.ErrorContains(t, err, "connection reset")
	// 2件目の書き込みで失敗し、それ以降は生成されない
	assert.Equal(t, int32(2), syncer.yielded.Load())
}

func TestStream_StopsOnFlushError(t *testing.T) {
	syncer := newFakeSyncer(nil, "one", "two")
	var buf bytes.Buffer

	err := Stream(&buf, func() error { return errors.New("client gone") }, syncer.Execute(t.Context(), validRequest()))
	assert.ErrorContains(t, err, "client gone")
	assert.Equal(t, 1, strings.Count(buf.String(), "data: "))
}

func TestDecodeSyncRequest(t *testing.T) {
	req, err := decodeSyncRequest(strings.NewReader(validBody))
	require.NoError(t, err)
	assert.Equal(t, validRequest(), req)

	_, err = decodeSyncRequest(strings.NewReader(`{"venue_id": 1234}`))
	assert.ErrorContains(t, err, "JSONの解析に失敗しました")

	_, err = decodeSyncRequest(strings.NewReader(`{"venue_id": "1234"}`))
	assert.ErrorContains(t, err, "username, password は必須です")
}
