package boxenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBox(t *testing.T) {
	w := NewWriter(nil)
	w.Box(Type("free"), []byte{1, 2})
	assert.Equal(t, []byte{0, 0, 0, 10, 'f', 'r', 'e', 'e', 1, 2}, w.Bytes())
}

func TestNestedBoxes(t *testing.T) {
	w := NewWriter(nil)
	w.StartBox(Type("moov"))
	w.StartFullBox(Type("mvhd"), 1, 0x000102)
	w.PutZeros(4)
	w.EndBox()
	w.EndBox()

	assert.Equal(t, []byte{
		0, 0, 0, 24, 'm', 'o', 'o', 'v',
		0, 0, 0, 16, 'm', 'v', 'h', 'd',
		1, 0, 1, 2,
		0, 0, 0, 0,
	}, w.Bytes())
}

func TestLargeBox(t *testing.T) {
	w := NewWriter(nil)
	w.LargeBox(Type("mdat"), []byte{0xff})
	assert.Equal(t, []byte{
		0, 0, 0, 1, 'm', 'd', 'a', 't',
		0, 0, 0, 0, 0, 0, 0, 17,
		0xff,
	}, w.Bytes())
}

func TestRawHeaders(t *testing.T) {
	w := NewWriter(make([]byte, 4))
	w.ZeroSizeBox(Type("mdat"), []byte{9})
	w.Header(3, Type("bad!"))
	w.LargeHeader(1<<40, Type("huge"))
	assert.Equal(t, []byte{
		0, 0, 0, 0, 'm', 'd', 'a', 't', 9,
		0, 0, 0, 3, 'b', 'a', 'd', '!',
		0, 0, 0, 1, 'h', 'u', 'g', 'e',
		0, 0, 1, 0, 0, 0, 0, 0,
	}, w.Bytes())
	assert.Equal(t, 33, w.Len())

	w.Reset()
	assert.Zero(t, w.Len())
}
