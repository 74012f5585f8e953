package depot

import (
	"fmt"
	"iter"
	"math/bits"
	"strings"

	"github.com/TheBitDrifter/mask"
)

// MaxComponentTypes is the hard ceiling on distinct registered component types.
// Widen it with the mask build tags (m256, m512, m1024).
const MaxComponentTypes = mask.MaxBits

// Mask is a fixed-width set of component types, one bit per type
type Mask mask.Mask

// MaskFromOffset returns the single-bit mask for bit
func MaskFromOffset(bit uint32) Mask {
	var m mask.Mask
	m.Mark(bit)
	return Mask(m)
}

func (m Mask) Or(other Mask) Mask {
	for i := range m {
		m[i] |= other[i]
	}
	return m
}

func (m Mask) And(other Mask) Mask {
	for i := range m {
		m[i] &= other[i]
	}
	return m
}

func (m Mask) AndNot(other Mask) Mask {
	for i := range m {
		m[i] &^= other[i]
	}
	return m
}

func (m Mask) Not() Mask {
	for i := range m {
		m[i] = ^m[i]
	}
	return m
}

// Contains reports whether every bit of other is set in m, i.e. (m & other) == other
func (m Mask) Contains(other Mask) bool {
	return mask.Mask(m).ContainsAll(mask.Mask(other))
}

func (m Mask) ContainsAny(other Mask) bool {
	return mask.Mask(m).ContainsAny(mask.Mask(other))
}

func (m Mask) Has(bit uint32) bool {
	return mask.Mask(m).Contains(bit)
}

func (m Mask) IsEmpty() bool {
	return mask.Mask(m).IsEmpty()
}

func (m Mask) Count() int {
	n := 0
	for _, word := range m {
		n += bits.OnesCount64(word)
	}
	return n
}

// Offset returns the position of the only set bit. It is defined only for
// single-bit masks; ok is false otherwise.
func (m Mask) Offset() (bit uint32, ok bool) {
	if m.Count() != 1 {
		return 0, false
	}
	for i, word := range m {
		if word != 0 {
			return uint32(i*64 + bits.TrailingZeros64(word)), true
		}
	}
	return 0, false
}

// Offsets yields every set bit position in ascending order
func (m Mask) Offsets() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for i, word := range m {
			for word != 0 {
				tz := bits.TrailingZeros64(word)
				if !yield(uint32(i*64 + tz)) {
					return
				}
				word &= word - 1
			}
		}
	}
}

// Units yields each set bit as its own single-bit mask
func (m Mask) Units() iter.Seq[Mask] {
	return func(yield func(Mask) bool) {
		for bit := range m.Offsets() {
			if !yield(MaskFromOffset(bit)) {
				return
			}
		}
	}
}

func (m Mask) String() string {
	var sb strings.Builder
	for i := len(m) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%016x", m[i])
	}
	return sb.String()
}
