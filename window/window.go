package window

import (
	"time"

	"github.com/ChristianF88/gcodex/gcode"
	"github.com/ChristianF88/gcodex/pools"
	"github.com/alphadose/haxmap"
)

// TimedBlock is one accepted block with its arrival time.
type TimedBlock struct {
	Words []gcode.Word
	Time  time.Time
}

// LetterStat aggregates the words currently inside the window for one
// address letter.
type LetterStat struct {
	Last    time.Time
	Count   int
	Numbers int
	Strings int
}

// SlidingWindow keeps the most recent blocks of a live stream, bounded by
// both age and entry count, with per-letter stats in a concurrent map so the
// reporting loop can read while the intake loop inserts.
type SlidingWindow struct {
	Queue       []TimedBlock
	LetterStats *haxmap.Map[uint8, LetterStat]
	timeLimit   time.Duration
	maxEntries  int
}

func New(window time.Duration, maxEntries int) *SlidingWindow {
	return &SlidingWindow{
		Queue:       make([]TimedBlock, 0),
		LetterStats: haxmap.New[uint8, LetterStat](64),
		timeLimit:   window,
		maxEntries:  maxEntries,
	}
}

func insertIntoHaxmap(m *haxmap.Map[uint8, LetterStat], w gcode.Word, at time.Time) {
	stat, _ := m.Get(w.Letter)
	if w.Kind == gcode.KindString {
		stat.Strings++
	} else {
		stat.Numbers++
	}
	stat.Count++
	stat.Last = at
	m.Set(w.Letter, stat)
}

func deleteFromHaxmap(m *haxmap.Map[uint8, LetterStat], w gcode.Word) {
	stat, exists := m.Get(w.Letter)
	if !exists {
		return
	}
	stat.Count--
	if stat.Count <= 0 {
		m.Del(w.Letter)
		return
	}
	if w.Kind == gcode.KindString {
		stat.Strings--
	} else {
		stat.Numbers--
	}
	m.Set(w.Letter, stat)
}

// Add clones an ephemeral block into pooled storage and records its words.
func (s *SlidingWindow) Add(blk gcode.Block, at time.Time) {
	words := pools.Pools.GetWordSlice()
	for _, w := range blk.Words {
		words = append(words, w.Clone())
	}
	s.Queue = append(s.Queue, TimedBlock{Words: words, Time: at})
	for _, w := range words {
		insertIntoHaxmap(s.LetterStats, w, at)
	}
}

// DropOld evicts entries past the time limit, then trims to maxEntries.
func (s *SlidingWindow) DropOld(now time.Time) {
	cutoff := now.Add(-s.timeLimit)
	idx := 0
	for idx < len(s.Queue) && s.Queue[idx].Time.Before(cutoff) {
		s.evict(idx)
		idx++
	}

	remaining := len(s.Queue) - idx
	if remaining > s.maxEntries {
		toDelete := remaining - s.maxEntries
		for i := 0; i < toDelete; i++ {
			s.evict(idx + i)
		}
		idx += toDelete
	}

	if idx > 0 {
		// Memory-releasing slice copy
		s.Queue = append([]TimedBlock(nil), s.Queue[idx:]...)
	}
}

func (s *SlidingWindow) evict(i int) {
	for _, w := range s.Queue[i].Words {
		deleteFromHaxmap(s.LetterStats, w)
	}
	pools.Pools.ReturnWordSlice(s.Queue[i].Words)
	s.Queue[i].Words = nil
}

// Update inserts fresh blocks and evicts stale ones in one pass.
func (s *SlidingWindow) Update(blocks []gcode.Block, at time.Time) {
	for _, blk := range blocks {
		s.Add(blk, at)
	}
	s.DropOld(at)
}

// Size returns the number of blocks currently inside the window.
func (s *SlidingWindow) Size() int {
	return len(s.Queue)
}

// Letters returns a stable snapshot of the per-letter stats.
func (s *SlidingWindow) Letters() map[byte]LetterStat {
	snapshot := make(map[byte]LetterStat, 32)
	s.LetterStats.ForEach(func(letter uint8, stat LetterStat) bool {
		snapshot[letter] = stat
		return true
	})
	return snapshot
}
