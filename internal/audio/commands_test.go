package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jetkvm/audiothread/internal/audio/iodev"
)

func TestScalarPayloadRoundTripRemoveCallback(t *testing.T) {
	req := commandRequest{tag: CmdRemoveCallback, fd: 17}
	payload := scalarPayload(req)
	fd, _, _, _ := decodeScalarPayload(CmdRemoveCallback, payload)
	assert.Equal(t, 17, fd)
}

func TestScalarPayloadRoundTripDevStartRamp(t *testing.T) {
	req := commandRequest{tag: CmdDevStartRamp, ramp: iodev.RampRequestDown}
	payload := scalarPayload(req)
	_, ramp, _, _ := decodeScalarPayload(CmdDevStartRamp, payload)
	assert.Equal(t, iodev.RampRequestDown, ramp)
}

func TestScalarPayloadRoundTripAECDump(t *testing.T) {
	req := commandRequest{tag: CmdAECDump, streamID: 42, aecStart: true, fd: 9}
	payload := scalarPayload(req)
	fd, _, streamID, start := decodeScalarPayload(CmdAECDump, payload)
	assert.Equal(t, iodev.StreamID(42), streamID)
	assert.True(t, start)
	assert.Equal(t, 9, fd)
}

func TestCommandIDString(t *testing.T) {
	assert.Equal(t, "ADD_STREAM", CmdAddStream.String())
	assert.Equal(t, "UNKNOWN", CommandID(255).String())
}

func TestNewCommandChannelPipesUsable(t *testing.T) {
	cc, err := newCommandChannel()
	assert.NoError(t, err)
	defer cc.close()
	assert.GreaterOrEqual(t, cc.commandFD(), 0)
}
