package catalog

import (
	"crypto/sha256"
	"sync/atomic"
)

// Holder publishes the server's current catalog. Each published Catalog is
// itself immutable; a reload swaps in a whole new one.
type Holder struct {
	current atomic.Pointer[snapshot]
}

type snapshot struct {
	catalog *Catalog
	sum     [sha256.Size]byte
}

// NewHolder returns a holder publishing c.
func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	h.current.Store(&snapshot{catalog: c})
	return h
}

// Current returns the catalog currently published.
func (h *Holder) Current() *Catalog {
	return h.current.Load().catalog
}

// Replace parses data and publishes it unless its checksum equals the one
// already published. It reports whether the catalog changed.
func (h *Holder) Replace(data []byte) (bool, error) {
	sum := sha256.Sum256(data)
	if h.current.Load().sum == sum {
		return false, nil
	}
	c, err := Parse(data)
	if err != nil {
		return false, err
	}
	h.current.Store(&snapshot{catalog: c, sum: sum})
	return true, nil
}
