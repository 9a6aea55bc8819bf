package audio

import (
	"sync"

	"github.com/jetkvm/audiothread/internal/audio/iodev"
)

// AudioThread owns the single worker goroutine that runs the wake
// scheduler, the command channel it's driven through, and every piece of
// state (open devices, callbacks, event log) the worker touches. Device
// and stream state is only ever mutated from the worker goroutine, which
// other goroutines reach through CommandChannel.post. The callback
// registry is the exception: RegisterCallback adds to it directly from the
// caller's goroutine, under the registry's own mutex.
type AudioThread struct {
	cc        *CommandChannel
	devices   *devices
	callbacks *callbackRegistry
	eventLog  *EventLog
	scheduler *WakeScheduler
	runner    iodev.Runner
	log       *AudioLoggerStandards

	remixConverter interface{}

	stopCh chan struct{}
	doneCh chan struct{}

	state             runState
	commandsProcessed AtomicCounter

	startOnce sync.Once
	stopOnce  sync.Once
}

// IsRunning reports whether the worker goroutine is currently active.
func (at *AudioThread) IsRunning() bool {
	return at.state.isRunning()
}

// CommandsProcessed returns the total number of commands the worker has
// handled since it started.
func (at *AudioThread) CommandsProcessed() int64 {
	return at.commandsProcessed.Load()
}

// NewAudioThread builds an AudioThread ready to Start. runner may be nil
// if the caller never intends to exercise device I/O (e.g. a test that
// only checks attach/detach bookkeeping).
func NewAudioThread(runner iodev.Runner) (*AudioThread, error) {
	cc, err := newCommandChannel()
	if err != nil {
		return nil, err
	}

	log := NewAudioLogger(GetDefaultLogger(), "lifecycle")
	devLog := log.WithSubComponent("attach-detach")
	eventLog := NewEventLog(GetConfig().EventLogCapacity)
	callbacks := newCallbackRegistry()
	devs := newDevices(devLog)

	at := &AudioThread{
		cc:        cc,
		devices:   devs,
		callbacks: callbacks,
		eventLog:  eventLog,
		runner:    runner,
		log:       log,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	at.scheduler = newWakeScheduler(cc.commandFD(), callbacks, devs, runner, eventLog, log.WithSubComponent("wake-scheduler"), func() interface{} { return at.remixConverter })
	return at, nil
}

// Start launches the worker goroutine and attempts to raise it to
// realtime priority (best-effort, never fatal).
func (at *AudioThread) Start() {
	at.startOnce.Do(func() {
		at.log.LogComponentStarting()
		go at.run()
	})
}

func (at *AudioThread) run() {
	at.state.trySetRunning(true)
	defer close(at.doneCh)
	defer at.state.trySetRunning(false)

	if err := SetAudioThreadPriority(); err != nil {
		at.log.LogWarningWithError(err, "realtime priority unavailable, continuing at normal priority")
	}
	at.log.LogComponentStarted()

	for {
		select {
		case <-at.stopCh:
			return
		default:
		}
		if err := at.scheduler.RunOnce(at.dispatchCommand); err != nil {
			if err == errStopRequested {
				return
			}
			at.log.LogError(err, "scheduler iteration failed")
			return
		}
	}
}

// Stop posts STOP to the worker and blocks until it has exited. It is
// safe to call more than once.
func (at *AudioThread) Stop() {
	at.stopOnce.Do(func() {
		_, _, _ = at.cc.post(commandRequest{tag: CmdStop})
		close(at.stopCh)
		<-at.doneCh
		_ = ResetThreadPriority()
		at.cc.close()
		at.log.LogComponentStopped()
	})
}

// dispatchCommand is invoked by the scheduler when the command fd is
// readable: it reads one framed message, resolves opaque arguments from
// the pending slot the controller populated in post(), runs the matching
// handler, and writes the synchronous integer response. STOP is the one
// command whose response is written before its side effect (loop
// termination) takes place, since the worker goroutine that would
// otherwise write the response no longer runs after the loop exits.
func (at *AudioThread) dispatchCommand() error {
	frame, err := ReadMessage(at.cc.toThreadR, GetConfig().MaxMessageSize)
	if err != nil {
		return err
	}
	pending := at.cc.pending
	fd, ramp, streamID, aecStart := decodeScalarPayload(frame.Tag, frame.Payload)
	_ = streamID

	at.commandsProcessed.Increment()
	RecordCommand(frame.Tag.String())

	var code int32
	switch frame.Tag {
	case CmdAddOpenDevice:
		code = CodeOf(at.devices.handleAddOpenDevice(pending.device))
		at.eventLog.Log(EventDevAdded, int64(pending.device.Index()), 0)

	case CmdRemoveOpenDevice:
		code = CodeOf(at.devices.handleRemoveOpenDevice(pending.device))

	case CmdIsDevOpen:
		if at.devices.handleIsDevOpen(pending.device.Direction(), pending.device.Index()) {
			code = 1
		}

	case CmdAddStream:
		err := at.devices.handleAddStream(pending.stream, pending.devices, now())
		if err != nil {
			RecordAttachRollback()
		} else {
			at.eventLog.Log(EventStreamAdded, int64(pending.stream.ID()), 0)
		}
		code = CodeOf(err)

	case CmdDisconnectStream:
		code = CodeOf(at.devices.handleDisconnectStream(pending.stream, pending.devices))

	case CmdDrainStream:
		msRemaining, err := at.devices.handleDrainStream(pending.stream)
		if err != nil {
			code = CodeOf(err)
		} else {
			if msRemaining == 0 {
				RecordDrainReaped()
			}
			code = int32(msRemaining)
		}

	case CmdDevStartRamp:
		code = CodeOf(at.devices.handleStartRamp(pending.device, ramp))

	case CmdConfigGlobalRemix:
		at.cc.pending.oldConverter = at.remixConverter
		at.remixConverter = pending.converter
		code = 0

	case CmdDumpThreadInfo:
		at.cc.pending.snapshot = at.devices.buildSnapshot(at.eventLog)
		code = 0

	case CmdAECDump:
		code = at.handleAECDump(streamID, aecStart, fd)

	case CmdRemoveCallback:
		if at.callbacks.remove(fd) {
			code = 0
		} else {
			code = CodeOf(ErrInvalid)
		}

	case CmdStop:
		if err := WriteResponse(at.cc.toMainW, 0); err != nil {
			return err
		}
		return errStopRequested

	default:
		code = CodeOf(ErrInvalid)
	}

	at.cc.pending.result = code
	return WriteResponse(at.cc.toMainW, code)
}

// handleAECDump is a narrow hook: the scheduler itself never inspects AEC
// state. It looks streamID up among the attached dev-streams and returns
// -EINVAL if no such stream is attached or it carries no APM handle, else
// 0. The start flag and fd are not forwarded anywhere.
func (at *AudioThread) handleAECDump(streamID iodev.StreamID, start bool, fd int) int32 {
	var stream iodev.Stream
	for _, list := range []*deviceList{at.devices.outputs, at.devices.inputs} {
		for _, rec := range list.records {
			for _, ds := range rec.streams {
				if ds.stream.ID() == streamID {
					stream = ds.stream
				}
			}
		}
	}
	if stream == nil || stream.APM() == nil {
		return CodeOf(ErrInvalid)
	}
	_ = start
	_ = fd
	return 0
}

// errStopRequested signals the worker loop to exit after STOP's response
// has already been written, distinct from a real I/O failure.
var errStopRequested = wrapf(ErrInvalid, "stop requested")

// AddOpenDevice posts ADD_OPEN_DEV.
func (at *AudioThread) AddOpenDevice(dev iodev.Device) error {
	_, code, err := at.cc.post(commandRequest{tag: CmdAddOpenDevice, device: dev})
	if err != nil {
		return err
	}
	return codeToErr(code)
}

// RemoveOpenDevice posts RM_OPEN_DEV.
func (at *AudioThread) RemoveOpenDevice(dev iodev.Device) error {
	_, code, err := at.cc.post(commandRequest{tag: CmdRemoveOpenDevice, device: dev})
	if err != nil {
		return err
	}
	return codeToErr(code)
}

// IsDevOpen posts IS_DEV_OPEN.
func (at *AudioThread) IsDevOpen(dev iodev.Device) (bool, error) {
	_, code, err := at.cc.post(commandRequest{tag: CmdIsDevOpen, device: dev})
	if err != nil {
		return false, err
	}
	return code == 1, nil
}

// AddStream posts ADD_STREAM.
func (at *AudioThread) AddStream(stream iodev.Stream, devs []iodev.Device) error {
	_, code, err := at.cc.post(commandRequest{tag: CmdAddStream, stream: stream, devices: devs})
	if err != nil {
		return err
	}
	return codeToErr(code)
}

// DisconnectStream posts DISCONNECT_STREAM. An empty devs detaches stream
// from every device currently holding it.
func (at *AudioThread) DisconnectStream(stream iodev.Stream, devs []iodev.Device) error {
	_, code, err := at.cc.post(commandRequest{tag: CmdDisconnectStream, stream: stream, devices: devs})
	if err != nil {
		return err
	}
	return codeToErr(code)
}

// DrainStream posts DRAIN_STREAM, returning milliseconds remaining.
func (at *AudioThread) DrainStream(stream iodev.Stream) (int, error) {
	_, code, err := at.cc.post(commandRequest{tag: CmdDrainStream, stream: stream})
	if err != nil {
		return 0, err
	}
	if code < 0 {
		return 0, codeToErr(code)
	}
	return int(code), nil
}

// DevStartRamp posts DEV_START_RAMP.
func (at *AudioThread) DevStartRamp(dev iodev.Device, req iodev.RampRequest) error {
	_, code, err := at.cc.post(commandRequest{tag: CmdDevStartRamp, device: dev, ramp: req})
	if err != nil {
		return err
	}
	return codeToErr(code)
}

// ConfigGlobalRemix posts CONFIG_GLOBAL_REMIX, returning the converter it
// displaced (nil if none was configured).
func (at *AudioThread) ConfigGlobalRemix(converter interface{}) (interface{}, error) {
	req, _, err := at.cc.post(commandRequest{tag: CmdConfigGlobalRemix, converter: converter})
	if err != nil {
		return nil, err
	}
	return req.oldConverter, nil
}

// DumpThreadInfo posts DUMP_THREAD_INFO and returns the snapshot the
// worker built.
func (at *AudioThread) DumpThreadInfo() (*ThreadSnapshot, error) {
	req, _, err := at.cc.post(commandRequest{tag: CmdDumpThreadInfo})
	if err != nil {
		return nil, err
	}
	return req.snapshot, nil
}

// AECDump posts AEC_DUMP.
func (at *AudioThread) AECDump(streamID iodev.StreamID, start bool, fd int) error {
	_, code, err := at.cc.post(commandRequest{tag: CmdAECDump, streamID: streamID, aecStart: start, fd: fd})
	if err != nil {
		return err
	}
	return codeToErr(code)
}

// RegisterCallback adds a process-wide fd callback the scheduler will
// poll alongside device/stream wake fds.
func (at *AudioThread) RegisterCallback(fd int, data interface{}, fn func(data interface{}) error) *Callback {
	return at.callbacks.add(fd, data, fn)
}

// RemoveCallback posts REMOVE_CALLBACK.
func (at *AudioThread) RemoveCallback(fd int) error {
	_, code, err := at.cc.post(commandRequest{tag: CmdRemoveCallback, fd: fd})
	if err != nil {
		return err
	}
	return codeToErr(code)
}

func codeToErr(code int32) error {
	if code >= 0 {
		return nil
	}
	switch code {
	case ErrInvalid.code:
		return ErrInvalid
	case ErrExist.code:
		return ErrExist
	case ErrPipe.code:
		return ErrPipe
	case ErrNoMem.code:
		return ErrNoMem
	default:
		return ErrInvalid
	}
}
