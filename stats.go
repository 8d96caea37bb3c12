package treetable

import (
	"fmt"
	"strings"
)

// Stats computes a snapshot of table statistics by scanning every bucket.
func (m *Map[K, V]) Stats() *MapStats {
	stats := &MapStats{
		Capacity:     len(m.buckets),
		Size:         m.count,
		LoadFactor:   m.loadFactor,
		TotalGrowths: m.growths,
	}
	for i := range m.buckets {
		b := &m.buckets[i]
		n := b.size()
		if n == 0 {
			stats.EmptyBuckets++
			continue
		}
		switch b.kind {
		case kindChain:
			stats.ChainBuckets++
			if n > stats.MaxChain {
				stats.MaxChain = n
			}
		case kindTree:
			stats.TreeBuckets++
			stats.TreeEntries += n
		}
	}
	return stats
}

// MapStats is Map statistics.
//
// Warning: map statistics are intented to be used for diagnostic
// purposes, not for production code. This means that breaking changes
// may be introduced into this struct even between minor releases.
type MapStats struct {
	// Capacity is the current number of buckets.
	Capacity int
	// Size is the number of entries stored in the map.
	Size int
	// LoadFactor is the configured growth threshold fraction.
	LoadFactor float64
	// EmptyBuckets is the number of buckets that hold no entries.
	EmptyBuckets int
	// ChainBuckets is the number of non-empty buckets in chain form.
	ChainBuckets int
	// TreeBuckets is the number of buckets promoted to tree form.
	TreeBuckets int
	// TreeEntries is the total number of entries held in tree buckets.
	TreeEntries int
	// MaxChain is the longest chain among chain buckets.
	MaxChain int
	// TotalGrowths is the number of times the bucket array doubled.
	TotalGrowths uint64
}

// ToString returns string representation of map stats.
func (s *MapStats) ToString() string {
	var sb strings.Builder
	sb.WriteString("MapStats{\n")
	sb.WriteString(fmt.Sprintf("Capacity:     %d\n", s.Capacity))
	sb.WriteString(fmt.Sprintf("Size:         %d\n", s.Size))
	sb.WriteString(fmt.Sprintf("LoadFactor:   %v\n", s.LoadFactor))
	sb.WriteString(fmt.Sprintf("EmptyBuckets: %d\n", s.EmptyBuckets))
	sb.WriteString(fmt.Sprintf("ChainBuckets: %d\n", s.ChainBuckets))
	sb.WriteString(fmt.Sprintf("TreeBuckets:  %d\n", s.TreeBuckets))
	sb.WriteString(fmt.Sprintf("TreeEntries:  %d\n", s.TreeEntries))
	sb.WriteString(fmt.Sprintf("MaxChain:     %d\n", s.MaxChain))
	sb.WriteString(fmt.Sprintf("TotalGrowths: %d\n", s.TotalGrowths))
	sb.WriteString("}\n")
	return sb.String()
}
