package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"syscall"
)

// lengthPrefixWidth is the size in bytes of the length field itself. The
// length a frame carries is the number of bytes that follow the length
// field (tag + scalar payload); it does not count the length field.
const lengthPrefixWidth = 4

// frameHeader is tag + scalar payload for one command message. Opaque
// values (device/stream handles) never appear here — they're resolved
// through the command channel's single in-flight pending slot, per the
// "same-process convenience" design note: passing a Go pointer as raw
// wire bytes and reconstructing it later isn't safe under a moving/tracing
// GC, so only plain scalars are framed.
type frameHeader struct {
	Tag     CommandID
	Payload []byte
}

// readUntilFinished reads exactly len(buf) bytes from r, retrying on
// EINTR and on short reads, matching the reference read_until_finished.
// A zero-byte read (EOF) is reported as ErrPipe, fatal to the caller.
func readUntilFinished(r io.Reader, buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		if n > 0 {
			total += n
			continue
		}
		if err == nil {
			continue
		}
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		if err == io.EOF {
			return ErrPipe
		}
		return wrapf(ErrPipe, "read: %v", err)
	}
	return nil
}

// writeUntilFinished writes exactly len(buf) bytes to w, retrying on
// EINTR and on short writes.
func writeUntilFinished(w io.Writer, buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := w.Write(buf[total:])
		if n > 0 {
			total += n
			continue
		}
		if err == nil {
			continue
		}
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		return wrapf(ErrPipe, "write: %v", err)
	}
	return nil
}

// WriteMessage frames and writes one command message: a 4-byte
// little-endian length prefix (counting the tag byte and payload, not
// itself), the 1-byte command tag, then the scalar payload.
func WriteMessage(w io.Writer, tag CommandID, payload []byte) error {
	length := uint32(1 + len(payload))
	buf := make([]byte, lengthPrefixWidth+1+len(payload))
	binary.LittleEndian.PutUint32(buf[0:lengthPrefixWidth], length)
	buf[lengthPrefixWidth] = byte(tag)
	copy(buf[lengthPrefixWidth+1:], payload)
	return writeUntilFinished(w, buf)
}

// ReadMessage reads one complete command message, bounded by maxSize (the
// total frame size including the length prefix itself). A message whose
// declared length would overflow maxSize is rejected with ErrNoMem without
// attempting to read the oversized payload.
func ReadMessage(r io.Reader, maxSize int) (frameHeader, error) {
	lenBuf := make([]byte, lengthPrefixWidth)
	if err := readUntilFinished(r, lenBuf); err != nil {
		return frameHeader{}, err
	}
	length := binary.LittleEndian.Uint32(lenBuf)
	if int(length)+lengthPrefixWidth > maxSize {
		return frameHeader{}, wrapf(ErrNoMem, "message length %d exceeds max %d", length, maxSize)
	}
	if length < 1 {
		return frameHeader{}, wrapf(ErrInvalid, "zero-length message")
	}
	rest := make([]byte, length)
	if err := readUntilFinished(r, rest); err != nil {
		return frameHeader{}, err
	}
	return frameHeader{Tag: CommandID(rest[0]), Payload: rest[1:]}, nil
}

// WriteResponse writes the synchronous integer reply for a command.
func WriteResponse(w io.Writer, code int32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(code))
	return writeUntilFinished(w, buf)
}

// ReadResponse reads the synchronous integer reply for a command.
func ReadResponse(r io.Reader) (int32, error) {
	buf := make([]byte, 4)
	if err := readUntilFinished(r, buf); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf)), nil
}
