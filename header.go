package mp4parser

import (
	"strconv"
	"strings"
)

const (
	headerSize      = 8  // size(4) + type(4)
	largeHeaderSize = 16 // headerSize + largesize(8)
	fullBoxPrefix   = 4  // version(1) + flags(3)
)

// BoxHeader describes one box found in the input. Offsets are absolute
// positions in the whole input.
type BoxHeader struct {
	Type          BoxType `json:"type" yaml:"type"`
	Size          uint64  `json:"size" yaml:"size"`                   // total box size including header
	Offset        int64   `json:"offset" yaml:"offset"`               // first header byte
	Level         int     `json:"level" yaml:"level"`                 // 0 for top-level boxes
	HeaderSize    int     `json:"headerSize" yaml:"headerSize"`       // 8, or 16 for the 64-bit size form
	PayloadOffset int64   `json:"payloadOffset" yaml:"payloadOffset"` // Offset + HeaderSize
	PayloadSize   uint64  `json:"payloadSize" yaml:"payloadSize"`     // Size - HeaderSize
}

// End returns the offset just past the box.
func (h BoxHeader) End() int64 {
	return h.Offset + int64(h.Size)
}

// String formats the header as one line of a tab-indented tree.
func (h BoxHeader) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("\t", h.Level))
	sb.WriteByte('[')
	sb.WriteString(h.Type.String())
	sb.WriteString(", size: ")
	sb.WriteString(strconv.FormatUint(h.Size, 10))
	sb.WriteString(", offset: ")
	sb.WriteString(strconv.FormatInt(h.Offset, 10))
	sb.WriteByte(']')
	return sb.String()
}

// rawHeader is a decoded but not yet validated header.
type rawHeader struct {
	typ        BoxType
	size       uint64
	headerSize int
	large      bool // size field was 1; 8 more bytes are needed
}

// decodeHeader decodes the fixed 8-byte header at boxOffset. A size field of
// 0 extends the box to containerEnd. A size field of 1 leaves size unset and
// reports large; the caller reads the 64-bit size with decodeLargeSize.
func decodeHeader(hdr []byte, boxOffset, containerEnd int64) rawHeader {
	h := rawHeader{headerSize: headerSize}
	copy(h.typ[:], hdr[4:8])
	switch size := be.Uint32(hdr[:4]); size {
	case 0:
		h.size = uint64(containerEnd - boxOffset)
	case 1:
		h.large = true
		h.headerSize = largeHeaderSize
	default:
		h.size = uint64(size)
	}
	return h
}

// decodeLargeSize fills in the 64-bit size that follows a large header.
func decodeLargeSize(h *rawHeader, ext []byte) {
	h.size = be.Uint64(ext[:8])
}
