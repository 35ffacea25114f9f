// Package mp4parser decodes the box structure of ISO Base Media File Format
// (ISOBMFF) containers such as MP4 and MOV into a flat, depth-first index of
// box headers. Box payloads are never interpreted; only headers are read and
// container boxes are descended into.
package mp4parser

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

var be = binary.BigEndian

const maxInt64 = math.MaxInt64

// BoxType is a 4-byte box type identifier. The bytes are opaque; they are
// compared byte-wise and only decoded as Latin-1 for display.
type BoxType [4]byte

// String decodes the type as Latin-1, so every byte maps to exactly one rune.
func (t BoxType) String() string {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(t[:])
	if err != nil {
		return string(t[:])
	}
	return string(s)
}

// MarshalText implements encoding.TextMarshaler.
func (t BoxType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *BoxType) UnmarshalText(text []byte) error {
	v, err := ParseBoxType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseBoxType encodes s as Latin-1 and returns the resulting type. s must
// encode to exactly four bytes.
func ParseBoxType(s string) (BoxType, error) {
	var t BoxType
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return t, errors.Wrapf(err, "box type %q is not Latin-1", s)
	}
	if len(b) != len(t) {
		return t, errors.Errorf("box type %q must be 4 characters, got %d", s, len(b))
	}
	copy(t[:], b)
	return t, nil
}

func newBoxType(s string) BoxType {
	var t BoxType
	copy(t[:], s)
	return t
}

// Known box types.
var (
	TypeFtyp = newBoxType("ftyp")
	TypeMoov = newBoxType("moov")
	TypeMvhd = newBoxType("mvhd")
	TypeTrak = newBoxType("trak")
	TypeTkhd = newBoxType("tkhd")
	TypeEdts = newBoxType("edts")
	TypeMdia = newBoxType("mdia")
	TypeMdhd = newBoxType("mdhd")
	TypeHdlr = newBoxType("hdlr")
	TypeMinf = newBoxType("minf")
	TypeDinf = newBoxType("dinf")
	TypeStbl = newBoxType("stbl")
	TypeStsd = newBoxType("stsd")
	TypeMvex = newBoxType("mvex")
	// Fragment boxes
	TypeMoof = newBoxType("moof")
	TypeMfhd = newBoxType("mfhd")
	TypeTraf = newBoxType("traf")
	TypeTfhd = newBoxType("tfhd")
	TypeTrun = newBoxType("trun")
	TypeMfra = newBoxType("mfra")
	TypeTfra = newBoxType("tfra")
	TypeMfro = newBoxType("mfro")
	// Metadata boxes
	TypeMeta = newBoxType("meta")
	TypeUdta = newBoxType("udta")
	TypeIlst = newBoxType("ilst")
	// Data boxes
	TypeMdat = newBoxType("mdat")
	TypeFree = newBoxType("free")
	TypeSkip = newBoxType("skip")
)

// defaultContainerTypes are the boxes whose payload is scanned for child
// boxes unless configured otherwise.
var defaultContainerTypes = []BoxType{
	TypeMoov, TypeTrak, TypeMdia, TypeMinf,
	TypeStbl, TypeEdts, TypeDinf, TypeUdta,
	TypeMeta, TypeIlst, TypeMoof, TypeTraf,
	TypeMfra,
}

// DefaultContainerTypes returns a copy of the default container set.
func DefaultContainerTypes() []BoxType {
	return slices.Clone(defaultContainerTypes)
}
