package audio

import (
	"encoding/binary"
	"os"
	"sync"

	"github.com/jetkvm/audiothread/internal/audio/iodev"
)

// CommandID is the closed set of commands a controller may post to the
// audio worker.
type CommandID uint8

const (
	CmdAddOpenDevice CommandID = iota
	CmdRemoveOpenDevice
	CmdIsDevOpen
	CmdAddStream
	CmdDisconnectStream
	CmdDrainStream
	CmdDevStartRamp
	CmdConfigGlobalRemix
	CmdDumpThreadInfo
	CmdAECDump
	CmdRemoveCallback
	CmdStop
)

func (c CommandID) String() string {
	switch c {
	case CmdAddOpenDevice:
		return "ADD_OPEN_DEV"
	case CmdRemoveOpenDevice:
		return "RM_OPEN_DEV"
	case CmdIsDevOpen:
		return "IS_DEV_OPEN"
	case CmdAddStream:
		return "ADD_STREAM"
	case CmdDisconnectStream:
		return "DISCONNECT_STREAM"
	case CmdDrainStream:
		return "DRAIN_STREAM"
	case CmdDevStartRamp:
		return "DEV_START_RAMP"
	case CmdConfigGlobalRemix:
		return "CONFIG_GLOBAL_REMIX"
	case CmdDumpThreadInfo:
		return "DUMP_THREAD_INFO"
	case CmdAECDump:
		return "AEC_DUMP"
	case CmdRemoveCallback:
		return "REMOVE_CALLBACK"
	case CmdStop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// commandRequest is the command channel's single in-flight slot. Opaque
// (device/stream/converter) fields are resolved here rather than encoded
// onto the wire, since they're same-process Go values; scalar fields are
// also mirrored here for convenience even though AEC_DUMP/REMOVE_CALLBACK/
// DEV_START_RAMP additionally frame them as wire bytes.
type commandRequest struct {
	tag CommandID

	device    iodev.Device
	devices   []iodev.Device
	stream    iodev.Stream
	streamID  iodev.StreamID
	ramp      iodev.RampRequest
	converter interface{}
	snapshot  *ThreadSnapshot
	fd        int
	aecStart  bool

	// result is populated by the worker before it writes the wire
	// response; for most commands it's identical to the wire int, but
	// CONFIG_GLOBAL_REMIX's real "return value" (the displaced
	// converter) only ever exists here, never on the wire.
	result       int32
	oldConverter interface{}
}

// CommandChannel implements the synchronous post-and-wait protocol between
// a controller and the audio worker: two pipe pairs (to-thread, to-main)
// plus a single pending-request slot, serialized by mu so that "the
// controller cannot issue command N+1 until N's response is read" holds
// even if multiple goroutines call Post concurrently.
type CommandChannel struct {
	toThreadR, toThreadW *os.File
	toMainR, toMainW     *os.File

	mu      sync.Mutex
	pending commandRequest
}

func newCommandChannel() (*CommandChannel, error) {
	toThreadR, toThreadW, err := os.Pipe()
	if err != nil {
		return nil, wrapf(ErrPipe, "to-thread pipe: %v", err)
	}
	toMainR, toMainW, err := os.Pipe()
	if err != nil {
		toThreadR.Close()
		toThreadW.Close()
		return nil, wrapf(ErrPipe, "to-main pipe: %v", err)
	}
	return &CommandChannel{
		toThreadR: toThreadR,
		toThreadW: toThreadW,
		toMainR:   toMainR,
		toMainW:   toMainW,
	}, nil
}

func (cc *CommandChannel) close() {
	cc.toThreadR.Close()
	cc.toThreadW.Close()
	cc.toMainR.Close()
	cc.toMainW.Close()
}

// commandFD is the fd the scheduler polls for incoming commands (always
// pollfd index 0).
func (cc *CommandChannel) commandFD() int {
	return int(cc.toThreadR.Fd())
}

// post writes req onto the to-thread pipe and blocks until the worker's
// response arrives on the to-main pipe. It returns the request (now
// populated with whatever the worker stored in result/oldConverter) and
// the wire response code.
func (cc *CommandChannel) post(req commandRequest) (commandRequest, int32, error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.pending = req

	if err := WriteMessage(cc.toThreadW, req.tag, scalarPayload(req)); err != nil {
		return cc.pending, 0, err
	}
	code, err := ReadResponse(cc.toMainR)
	if err != nil {
		return cc.pending, 0, err
	}
	return cc.pending, code, nil
}

// scalarPayload frames the plain-integer fields a command carries
// directly on the wire. Opaque handles never appear here.
func scalarPayload(req commandRequest) []byte {
	switch req.tag {
	case CmdRemoveCallback:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(req.fd))
		return buf
	case CmdDevStartRamp:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(req.ramp))
		return buf
	case CmdAECDump:
		buf := make([]byte, 13)
		binary.LittleEndian.PutUint64(buf[0:8], uint64(req.streamID))
		if req.aecStart {
			buf[8] = 1
		}
		binary.LittleEndian.PutUint32(buf[9:13], uint32(req.fd))
		return buf
	default:
		return nil
	}
}

// decodeScalarPayload fills in the scalar fields of req from the wire
// bytes the worker just read; called on the worker side after ReadMessage.
func decodeScalarPayload(tag CommandID, payload []byte) (fd int, ramp iodev.RampRequest, streamID iodev.StreamID, aecStart bool) {
	switch tag {
	case CmdRemoveCallback:
		if len(payload) >= 4 {
			fd = int(binary.LittleEndian.Uint32(payload))
		}
	case CmdDevStartRamp:
		if len(payload) >= 4 {
			ramp = iodev.RampRequest(binary.LittleEndian.Uint32(payload))
		}
	case CmdAECDump:
		if len(payload) >= 13 {
			streamID = iodev.StreamID(binary.LittleEndian.Uint64(payload[0:8]))
			aecStart = payload[8] != 0
			fd = int(binary.LittleEndian.Uint32(payload[9:13]))
		}
	}
	return
}
