// Package boxenc encodes ISOBMFF box headers into a byte buffer. It can
// produce every header form a decoder must accept (32-bit, 64-bit large
// size, size zero) as well as deliberately malformed ones.
package boxenc

import "encoding/binary"

var be = binary.BigEndian

// boxFrame tracks the start offset of an open box for size backpatching.
type boxFrame struct {
	offset int
	large  bool
}

// Writer appends boxes to a growing buffer.
type Writer struct {
	buf   []byte
	stack []boxFrame
}

// NewWriter creates a Writer that appends to buf.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf[:0]}
}

// Bytes returns the written data.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int { return len(w.buf) }

// Write appends raw bytes. Implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// Reset discards all written data and open boxes.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
	w.stack = w.stack[:0]
}

func (w *Writer) putUint32(v uint32) {
	w.buf = be.AppendUint32(w.buf, v)
}

func (w *Writer) putUint64(v uint64) {
	w.buf = be.AppendUint64(w.buf, v)
}

// PutZeros appends n zero bytes.
func (w *Writer) PutZeros(n int) {
	w.buf = append(w.buf, make([]byte, n)...)
}

// StartBox begins a box with a 32-bit size. Write content, then call EndBox.
func (w *Writer) StartBox(t [4]byte) {
	w.stack = append(w.stack, boxFrame{offset: len(w.buf)})
	w.putUint32(0) // placeholder size
	w.buf = append(w.buf, t[:]...)
}

// StartLargeBox begins a box whose size is stored in the 64-bit largesize
// field.
func (w *Writer) StartLargeBox(t [4]byte) {
	w.stack = append(w.stack, boxFrame{offset: len(w.buf), large: true})
	w.putUint32(1)
	w.buf = append(w.buf, t[:]...)
	w.putUint64(0) // placeholder largesize
}

// StartFullBox begins a box followed by version and flags.
func (w *Writer) StartFullBox(t [4]byte, version uint8, flags uint32) {
	w.StartBox(t)
	w.putUint32(uint32(version)<<24 | flags&0x00ffffff)
}

// EndBox finishes the innermost open box by backpatching its size.
func (w *Writer) EndBox() {
	f := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	size := len(w.buf) - f.offset
	if f.large {
		be.PutUint64(w.buf[f.offset+8:], uint64(size))
		return
	}
	be.PutUint32(w.buf[f.offset:], uint32(size))
}

// Box writes a complete box with the given payload.
func (w *Writer) Box(t [4]byte, payload []byte) {
	w.StartBox(t)
	w.buf = append(w.buf, payload...)
	w.EndBox()
}

// LargeBox writes a complete box using the 64-bit size form.
func (w *Writer) LargeBox(t [4]byte, payload []byte) {
	w.StartLargeBox(t)
	w.buf = append(w.buf, payload...)
	w.EndBox()
}

// ZeroSizeBox writes a box whose size field is 0, meaning it extends to the
// end of its container.
func (w *Writer) ZeroSizeBox(t [4]byte, payload []byte) {
	w.Header(0, t)
	w.buf = append(w.buf, payload...)
}

// Header writes a bare 8-byte header with an arbitrary size field.
func (w *Writer) Header(size uint32, t [4]byte) {
	w.putUint32(size)
	w.buf = append(w.buf, t[:]...)
}

// LargeHeader writes a bare 16-byte header with an arbitrary largesize.
func (w *Writer) LargeHeader(largeSize uint64, t [4]byte) {
	w.Header(1, t)
	w.putUint64(largeSize)
}

// Type converts a 4-character string to a box type.
func Type(s string) [4]byte {
	var t [4]byte
	copy(t[:], s)
	return t
}
