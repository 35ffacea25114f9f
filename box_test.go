package mp4parser

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxTypeLatin1(t *testing.T) {
	typ := BoxType{0xa9, 'n', 'a', 'm'}
	assert.Equal(t, "©nam", typ.String())

	parsed, err := ParseBoxType("©nam")
	require.NoError(t, err)
	assert.Equal(t, typ, parsed)

	text, err := typ.MarshalText()
	require.NoError(t, err)
	var back BoxType
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, typ, back)
}

func TestParseBoxTypeErrors(t *testing.T) {
	for _, s := range []string{"", "moo", "moovv", "mo€v"} {
		_, err := ParseBoxType(s)
		assert.Error(t, err, "%q", s)
	}
}

func TestDefaultContainerTypesIsCopy(t *testing.T) {
	types := DefaultContainerTypes()
	require.Len(t, types, 13)
	types[0] = TypeMdat
	assert.Equal(t, TypeMoov, DefaultContainerTypes()[0])
}

func TestDecodeHeader(t *testing.T) {
	h := decodeHeader([]byte{0, 0, 0, 24, 'm', 'o', 'o', 'v'}, 100, 1000)
	assert.Equal(t, rawHeader{typ: TypeMoov, size: 24, headerSize: 8}, h)

	h = decodeHeader([]byte{0, 0, 0, 0, 'm', 'd', 'a', 't'}, 100, 1000)
	assert.Equal(t, uint64(900), h.size)
	assert.False(t, h.large)

	h = decodeHeader([]byte{0, 0, 0, 1, 'm', 'd', 'a', 't'}, 100, 1000)
	assert.True(t, h.large)
	assert.Equal(t, 16, h.headerSize)
	decodeLargeSize(&h, []byte{0, 0, 0, 1, 0, 0, 0, 0})
	assert.Equal(t, uint64(1)<<32, h.size)
}

func TestCheckBounds(t *testing.T) {
	tests := []struct {
		name    string
		hdrSize int
		size    uint64
		offset  int64
		end     int64
		kind    DefectKind // 0 means valid
	}{
		{"exact fit", 8, 8, 0, 8, 0},
		{"fills container", 8, 92, 8, 100, 0},
		{"large header minimum", 16, 16, 0, 16, 0},
		{"smaller than header", 8, 7, 0, 100, UndersizedBox},
		{"smaller than large header", 16, 15, 0, 100, UndersizedBox},
		{"zero after decoding", 8, 0, 0, 100, UndersizedBox},
		{"past int64", 16, math.MaxInt64 + 1, 0, 100, UnrepresentableSize},
		{"max uint64", 16, math.MaxUint64, 0, 100, UnrepresentableSize},
		{"one past container", 8, 93, 8, 100, ContainerOverrun},
		{"huge but representable", 16, math.MaxInt64, 1 << 40, 1<<40 + 64, ContainerOverrun},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := checkBounds(TypeFree, tt.hdrSize, tt.size, tt.offset, tt.end)
			if tt.kind == 0 {
				assert.Nil(t, d)
				return
			}
			require.NotNil(t, d)
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, tt.offset, d.Offset)
			assert.ErrorIs(t, d, ErrMalformed)
		})
	}
}

func TestDefectErrorMessages(t *testing.T) {
	d := &DefectError{Kind: UndersizedBox, Type: TypeFree, Offset: 16, Size: 4}
	assert.Equal(t, "mp4parser: invalid box size 4 for 'free' at offset 16", d.Error())

	d = &DefectError{Kind: ContainerOverrun, Type: TypeTrak, Offset: 20, Size: 64, End: 28}
	assert.Equal(t, "mp4parser: box 'trak' at offset 20 overflows its container, size=64, container_end=28", d.Error())

	assert.Equal(t, "malformed meta", MalformedMeta.String())
	assert.Equal(t, "DefectKind(42)", DefectKind(42).String())
}

func TestBoxHeaderString(t *testing.T) {
	h := BoxHeader{Type: TypeTrak, Size: 80, Offset: 8, Level: 1}
	assert.Equal(t, "\t[trak, size: 80, offset: 8]", h.String())

	h = BoxHeader{Type: TypeMoov, Size: 100}
	assert.Equal(t, "[moov, size: 100, offset: 0]", h.String())
}
