package sonar

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// File is an open ARIS recording. Frames are decoded on demand.
//
// File holds no state between Frame calls other than the underlying reader,
// so it is safe to call Frame concurrently and in any order.
type File struct {
	name   string
	r      io.ReaderAt
	closer io.Closer
	header FileHeader

	// size is the source length in bytes, or -1 when the reader cannot say.
	size int64
}

// sizer is implemented by readers that know their length, such as
// *bytes.Reader and *io.SectionReader.
type sizer interface {
	Size() int64
}

// Open opens the recording at path and decodes its file header.
//
// The caller must Close the returned File when done.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sonar file: %w", err)
	}

	sf, err := NewFile(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	sf.closer = f

	if st, err := f.Stat(); err == nil {
		sf.size = st.Size()
	}

	return sf, nil
}

// NewFile decodes the file header from r. The name is used in error messages.
// Close on the returned File is a no-op; r stays owned by the caller.
func NewFile(r io.ReaderAt, name string) (*File, error) {
	buf := make([]byte, FileHeaderSize)
	if err := readAt(r, buf, 0); err != nil {
		return nil, &DecodeError{Path: name, Frame: -1, Err: err}
	}

	header, err := decodeFileHeader(buf[:fileHeaderFieldsSize])
	if err != nil {
		return nil, &DecodeError{Path: name, Frame: -1, Err: err}
	}

	size := int64(-1)
	if s, ok := r.(sizer); ok {
		size = s.Size()
	}

	return &File{name: name, r: r, header: header, size: size}, nil
}

// Name returns the path or name the file was opened with.
func (f *File) Name() string { return f.name }

// Header returns a copy of the decoded file header.
func (f *File) Header() FileHeader { return f.header }

// FrameCount returns the number of frames declared by the file header.
func (f *File) FrameCount() int { return int(f.header.FrameCount) }

// FrameRate returns the declared acquisition frame rate in frames per second.
func (f *File) FrameRate() int { return int(f.header.FrameRate) }

// FrameOffset returns the byte offset of frame index's header record.
func (f *File) FrameOffset(index int) int64 {
	return FileHeaderSize + int64(index)*f.header.FrameStride()
}

// Frame reads and decodes frame index.
//
// Decoding steps:
//  1. Reject index outside [0, FrameCount) with ErrIndexOutOfRange
//  2. Read the 1024-byte frame header at FrameOffset(index)
//  3. Reject any version tag other than VersionDDF05 with ErrUnsupportedVersion
//  4. Derive the beam count from the frame's ping mode (ErrUnsupportedPingMode)
//  5. Read exactly beams * samplesPerBeam pixel bytes following the header
//
// A short read at either step returns ErrTruncated, as does a header whose
// pixel block would run past the end of a source of known size. No partial
// frame is ever returned alongside an error.
func (f *File) Frame(index int) (*Frame, error) {
	if index < 0 || index >= f.FrameCount() {
		return nil, f.frameError(index, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, f.FrameCount()))
	}

	offset := f.FrameOffset(index)
	buf := make([]byte, FrameHeaderSize)
	if err := readAt(f.r, buf, offset); err != nil {
		return nil, f.frameError(index, err)
	}

	header, err := decodeFrameHeader(buf[:frameHeaderFieldsSize])
	if err != nil {
		return nil, f.frameError(index, err)
	}

	if header.Version != VersionDDF05 {
		return nil, f.frameError(index, fmt.Errorf("%w: got %#08x, want %#08x", ErrUnsupportedVersion, header.Version, VersionDDF05))
	}

	beams, err := BeamsForPingMode(header.PingMode)
	if err != nil {
		return nil, f.frameError(index, err)
	}

	pixelOffset := offset + FrameHeaderSize
	pixelBytes := int64(beams) * int64(header.SamplesPerBeam)
	if f.size >= 0 && pixelOffset+pixelBytes > f.size {
		return nil, f.frameError(index, fmt.Errorf("%w: frame needs %d pixel bytes at offset %d, source has %d bytes",
			ErrTruncated, pixelBytes, pixelOffset, f.size))
	}

	samples := int(header.SamplesPerBeam)
	pixels := make([]byte, pixelBytes)
	if err := readAt(f.r, pixels, pixelOffset); err != nil {
		return nil, f.frameError(index, err)
	}

	return &Frame{
		Index:   index,
		Header:  header,
		Beams:   beams,
		Samples: samples,
		Pixels:  pixels,
	}, nil
}

// Close releases the underlying file when the File was created by Open.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

func (f *File) frameError(index int, err error) error {
	return &DecodeError{Path: f.name, Frame: index, Err: err}
}

// readAt fills buf from r at offset, mapping short reads to ErrTruncated.
func readAt(r io.ReaderAt, buf []byte, offset int64) error {
	n, err := r.ReadAt(buf, offset)
	if n == len(buf) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: read %d of %d bytes at offset %d", ErrTruncated, n, len(buf), offset)
	}
	return fmt.Errorf("failed to read at offset %d: %w", offset, err)
}
