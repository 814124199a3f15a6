package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize caps a single frame's payload. Larger length prefixes are
// treated as protocol corruption rather than allocated.
const MaxFrameSize = 64 * 1024

// frameHeaderSize is the big-endian byte-count prefix length.
const frameHeaderSize = 4

// WriteFrame writes one length-prefixed frame: a 4-byte big-endian byte
// count followed by the payload.
//
// Precondition: len(payload) must not exceed MaxFrameSize.
// Postcondition: The header and payload are written, or a non-nil error.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds limit of %d", len(payload), MaxFrameSize)
	}

	header := make([]byte, frameHeaderSize, frameHeaderSize+len(payload))
	binary.BigEndian.PutUint32(header, uint32(len(payload)))

	// Single write so concurrent writers interleave at frame granularity
	// only when the caller serializes them.
	if _, err := w.Write(append(header, payload...)); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r.
//
// Postcondition: Returns the payload bytes, io.EOF on a clean end of stream
// before the header, or another non-nil error.
func ReadFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading frame header: %w", err)
	}

	size := binary.BigEndian.Uint32(header)
	if size > MaxFrameSize {
		return nil, fmt.Errorf("frame header declares %d bytes, limit is %d", size, MaxFrameSize)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("reading frame payload: %w", err)
	}
	return payload, nil
}

// WriteMessage encodes msg and writes it as one frame.
//
// Postcondition: Exactly one frame is written, or a non-nil error.
func WriteMessage(w io.Writer, msg Message) error {
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	return WriteFrame(w, data)
}

// ReadMessage reads one frame and decodes it.
//
// Postcondition: Returns a concrete Message, io.EOF on clean end of stream,
// or another non-nil error (including ErrUnknownType).
func ReadMessage(r io.Reader) (Message, error) {
	data, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
