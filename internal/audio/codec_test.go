package audio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		tag     CommandID
		payload []byte
	}{
		{"no payload", CmdStop, nil},
		{"4 byte payload", CmdRemoveCallback, []byte{1, 2, 3, 4}},
		{"13 byte payload", CmdAECDump, make([]byte, 13)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := WriteMessage(&buf, tt.tag, tt.payload)
			require.NoError(t, err)

			frame, err := ReadMessage(&buf, 256)
			require.NoError(t, err)
			assert.Equal(t, tt.tag, frame.Tag)
			assert.Equal(t, len(tt.payload), len(frame.Payload))
		})
	}
}

func TestReadMessageRejectsOversized(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMessage(&buf, CmdAECDump, make([]byte, 200))
	require.NoError(t, err)

	_, err = ReadMessage(&buf, 64)
	require.Error(t, err)
	assert.Equal(t, ErrNoMem.Code(), CodeOf(err))
}

func TestReadMessageEmptyReaderIsFatal(t *testing.T) {
	var buf bytes.Buffer
	_, err := ReadMessage(&buf, 256)
	require.Error(t, err)
	assert.Equal(t, ErrPipe.Code(), CodeOf(err))
}

func TestWriteReadResponseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, -22))

	code, err := ReadResponse(&buf)
	require.NoError(t, err)
	assert.Equal(t, int32(-22), code)
}
