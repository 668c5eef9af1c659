package window

import (
	"testing"
	"time"

	"github.com/ChristianF88/gcodex/gcode"
)

func block(words ...gcode.Word) gcode.Block {
	return gcode.Block{Words: words}
}

func num(letter byte, v float64) gcode.Word {
	return gcode.Word{Letter: letter, Kind: gcode.KindNumber, Number: v}
}

func TestWindow_AddAndStats(t *testing.T) {
	w := New(time.Hour, 100)
	now := time.Now()

	w.Add(block(num('G', 1), num('X', 2)), now)
	w.Add(block(num('G', 0)), now)

	if w.Size() != 2 {
		t.Fatalf("expected 2 blocks, got %d", w.Size())
	}

	letters := w.Letters()
	if letters['G'].Count != 2 {
		t.Errorf("expected 2 G words, got %d", letters['G'].Count)
	}
	if letters['X'].Count != 1 {
		t.Errorf("expected 1 X word, got %d", letters['X'].Count)
	}
	if letters['G'].Numbers != 2 || letters['G'].Strings != 0 {
		t.Errorf("expected numeric G words, got %+v", letters['G'])
	}
}

func TestWindow_TimeEviction(t *testing.T) {
	w := New(time.Minute, 100)
	base := time.Now()

	w.Add(block(num('G', 1)), base.Add(-2*time.Minute))
	w.Add(block(num('X', 1)), base)
	w.DropOld(base)

	if w.Size() != 1 {
		t.Fatalf("expected 1 block after eviction, got %d", w.Size())
	}
	letters := w.Letters()
	if _, ok := letters['G']; ok {
		t.Error("expected evicted G stats to be removed")
	}
	if letters['X'].Count != 1 {
		t.Errorf("expected X to survive, got %+v", letters['X'])
	}
}

func TestWindow_SizeEviction(t *testing.T) {
	w := New(time.Hour, 2)
	now := time.Now()

	for i := 0; i < 5; i++ {
		w.Add(block(num('G', float64(i))), now)
	}
	w.DropOld(now)

	if w.Size() != 2 {
		t.Fatalf("expected window trimmed to 2, got %d", w.Size())
	}
	if w.Letters()['G'].Count != 2 {
		t.Errorf("expected 2 G words after trim, got %d", w.Letters()['G'].Count)
	}
}

func TestWindow_ClonesEphemeralWords(t *testing.T) {
	w := New(time.Hour, 10)
	shared := []gcode.Word{num('G', 1)}

	w.Add(gcode.Block{Words: shared}, time.Now())
	shared[0].Number = 99 // mutate the "parser scratch"

	if w.Queue[0].Words[0].Number != 1 {
		t.Error("expected window to hold an independent copy of the words")
	}
}

func TestWindow_MixedKinds(t *testing.T) {
	w := New(time.Hour, 10)
	now := time.Now()

	w.Add(block(
		num('M', 117),
		gcode.Word{Letter: 'P', Kind: gcode.KindString, Str: "status"},
	), now)

	letters := w.Letters()
	if letters['P'].Strings != 1 || letters['P'].Numbers != 0 {
		t.Errorf("expected one string P word, got %+v", letters['P'])
	}
	if letters['M'].Numbers != 1 {
		t.Errorf("expected one numeric M word, got %+v", letters['M'])
	}
}
