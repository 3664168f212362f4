package bridge

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Sentinels that wrap every frame on the UxAS TCP bridge:
//
//	+=+=+=+=<size>#@#@#@#@<data>!%!%!%!%<checksum>?^?^?^?^
const (
	SentinelBeforeSize     = "+=+=+=+="
	SentinelAfterSize      = "#@#@#@#@"
	SentinelBeforeChecksum = "!%!%!%!%"
	SentinelAfterChecksum  = "?^?^?^?^"

	// MaxFrameSize bounds the data carried by a single frame.
	MaxFrameSize = 16 << 20
)

var (
	ErrBadSentinel    = errors.New("bridge: bad sentinel")
	ErrChecksum       = errors.New("bridge: checksum mismatch")
	ErrFrameTooLarge  = errors.New("bridge: frame too large")
	errIncompleteData = errors.New("bridge: incomplete frame")
)

// Checksum is the sum of all data bytes.
func Checksum(data []byte) uint32 {
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
	}
	return sum
}

// Encode wraps data in bridge sentinels.
func Encode(data []byte) []byte {
	size := strconv.Itoa(len(data))
	sum := strconv.FormatUint(uint64(Checksum(data)), 10)

	b := make([]byte, 0, len(data)+len(size)+len(sum)+4*len(SentinelBeforeSize))
	b = append(b, SentinelBeforeSize...)
	b = append(b, size...)
	b = append(b, SentinelAfterSize...)
	b = append(b, data...)
	b = append(b, SentinelBeforeChecksum...)
	b = append(b, sum...)
	b = append(b, SentinelAfterChecksum...)
	return b
}

// WriteFrame writes data to w as one sentinel frame.
func WriteFrame(w io.Writer, data []byte) error {
	if len(data) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	if _, err := w.Write(Encode(data)); err != nil {
		return fmt.Errorf("bridge: write frame: %w", err)
	}
	return nil
}

// Scanner reads sentinel frames from a byte stream, buffering partial reads
// until a complete frame is available.
type Scanner struct {
	s *bufio.Scanner
}

func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), MaxFrameSize+128)
	s.Split(splitFrame)
	return &Scanner{s: s}
}

// Scan advances to the next frame. It returns false at the end of the stream
// or on error; Err tells which.
func (s *Scanner) Scan() bool { return s.s.Scan() }

// Frame returns the data of the last frame read. The slice is only valid until
// the next call to Scan.
func (s *Scanner) Frame() []byte { return s.s.Bytes() }

func (s *Scanner) Err() error {
	if errors.Is(s.s.Err(), bufio.ErrTooLong) {
		return ErrFrameTooLarge
	}
	return s.s.Err()
}

func splitFrame(data []byte, atEOF bool) (int, []byte, error) {
	n, frame, err := parseFrame(data)
	if errors.Is(err, errIncompleteData) {
		if atEOF && len(data) > 0 {
			return 0, nil, io.ErrUnexpectedEOF
		}
		return 0, nil, nil
	}
	return n, frame, err
}

// parseFrame decodes one frame at the start of data and returns the number of
// bytes it spans.
func parseFrame(data []byte) (int, []byte, error) {
	if len(data) < len(SentinelBeforeSize) {
		if !bytes.HasPrefix([]byte(SentinelBeforeSize), data) {
			return 0, nil, ErrBadSentinel
		}
		return 0, nil, errIncompleteData
	}
	if !bytes.HasPrefix(data, []byte(SentinelBeforeSize)) {
		return 0, nil, ErrBadSentinel
	}
	pos := len(SentinelBeforeSize)

	end := bytes.Index(data[pos:], []byte(SentinelAfterSize))
	if end < 0 {
		// The size field is short; a long run without the sentinel is garbage.
		if len(data)-pos > 20+len(SentinelAfterSize) {
			return 0, nil, ErrBadSentinel
		}
		return 0, nil, errIncompleteData
	}
	size, err := strconv.Atoi(string(data[pos : pos+end]))
	if err != nil || size < 0 {
		return 0, nil, fmt.Errorf("%w: size %q", ErrBadSentinel, data[pos:pos+end])
	}
	if size > MaxFrameSize {
		return 0, nil, ErrFrameTooLarge
	}
	pos += end + len(SentinelAfterSize)

	if len(data)-pos < size {
		return 0, nil, errIncompleteData
	}
	frame := data[pos : pos+size]
	pos += size

	tail := data[pos:]
	if len(tail) < len(SentinelBeforeChecksum) {
		return 0, nil, errIncompleteData
	}
	if !bytes.HasPrefix(tail, []byte(SentinelBeforeChecksum)) {
		return 0, nil, ErrBadSentinel
	}
	pos += len(SentinelBeforeChecksum)

	end = bytes.Index(data[pos:], []byte(SentinelAfterChecksum))
	if end < 0 {
		if len(data)-pos > 20+len(SentinelAfterChecksum) {
			return 0, nil, ErrBadSentinel
		}
		return 0, nil, errIncompleteData
	}
	sum, err := strconv.ParseUint(string(data[pos:pos+end]), 10, 32)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: checksum %q", ErrBadSentinel, data[pos:pos+end])
	}
	if uint32(sum) != Checksum(frame) {
		return 0, nil, ErrChecksum
	}
	pos += end + len(SentinelAfterChecksum)

	return pos, frame, nil
}
