package treetable

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize is the allocation granule for tree-node arenas: arenas grow
// by whole cache lines so a bucket's nodes stay densely packed.
// It's automatically calculated using the `golang.org/x/sys` package.
const CacheLineSize = unsafe.Sizeof(cpu.CacheLinePad{})
