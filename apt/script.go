package apt

import (
	"fmt"

	"github.com/zboralski/apt-dumper/apt/bytecode"
)

// MaxDecodeDepth caps nesting of function bodies.
const MaxDecodeDepth = 64

// MaxGlobalPool caps the number of entries in a global constant pool.
const MaxGlobalPool = 1 << 20

// Script is a decoded APT movie: the shared global constant pool plus the
// action blocks that reference it.
type Script struct {
	Filename string
	Global   *GlobalPool
	Actions  []Action
}

// Action is one action block: frame actions, clip events, init actions.
type Action struct {
	Name string
	Code []bytecode.Instruction
}

// GlobalPool is the file-wide constant table indexed by integer
// ConstantPool parameters. It is read-only once built and safe to share
// between goroutines.
type GlobalPool struct {
	entries []string
}

// NewGlobalPool returns a pool holding entries.
func NewGlobalPool(entries []string) *GlobalPool {
	return &GlobalPool{entries: append([]string(nil), entries...)}
}

// Len returns the number of entries. A nil pool is empty.
func (g *GlobalPool) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

// Lookup returns entry i.
func (g *GlobalPool) Lookup(i int) (string, error) {
	if i < 0 || i >= g.Len() {
		return "", fmt.Errorf("global pool index %d out of range [0,%d)", i, g.Len())
	}
	return g.entries[i], nil
}

// Entries returns a copy of the pool contents.
func (g *GlobalPool) Entries() []string {
	if g == nil {
		return nil
	}
	return append([]string(nil), g.entries...)
}
