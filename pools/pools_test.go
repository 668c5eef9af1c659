package pools

import (
	"testing"

	"github.com/ChristianF88/gcodex/gcode"
)

func TestWordSlicePool(t *testing.T) {
	s := Pools.GetWordSlice()
	if len(s) != 0 {
		t.Fatalf("expected empty slice, got len %d", len(s))
	}

	s = append(s, gcode.Word{Letter: 'G', Number: 1})
	Pools.ReturnWordSlice(s)

	s2 := Pools.GetWordSlice()
	if len(s2) != 0 {
		t.Errorf("expected recycled slice to be reset, got len %d", len(s2))
	}
}

func TestWordSlicePool_RejectsBloated(t *testing.T) {
	huge := make([]gcode.Word, 0, 8192)
	Pools.ReturnWordSlice(huge) // must not panic; oversized capacity is dropped
}

func TestByteBufferPool(t *testing.T) {
	b := Pools.GetByteBuffer()
	b = append(b, "G1 X1"...)
	Pools.ReturnByteBuffer(b)

	b2 := Pools.GetByteBuffer()
	if len(b2) != 0 {
		t.Errorf("expected recycled buffer to be reset, got len %d", len(b2))
	}
}

func TestBuilderPool(t *testing.T) {
	builder := Pools.GetBuilder()
	builder.WriteString("G1 X1")
	Pools.ReturnBuilder(builder)

	builder2 := Pools.GetBuilder()
	if builder2.Len() != 0 {
		t.Errorf("expected recycled builder to be reset, got len %d", builder2.Len())
	}
}

func TestReset(t *testing.T) {
	s := Pools.GetWordSlice()
	Pools.ReturnWordSlice(s)
	Pools.Reset()

	s2 := Pools.GetWordSlice()
	if len(s2) != 0 {
		t.Errorf("expected fresh slice after reset, got len %d", len(s2))
	}
}
