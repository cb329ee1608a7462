package dedup

import (
	"sync"

	"github.com/DarkFirexs/Parser/internal/model"
)

// ParseFunc turns a raw descriptor into a structured one, or reports false.
type ParseFunc func(raw string) (model.Descriptor, bool)

// Filter remembers identity keys it has already seen.
type Filter struct {
	seen map[string]struct{}
	mu   sync.Mutex
}

func New() *Filter {
	return &Filter{
		seen: make(map[string]struct{}),
	}
}

// Seen reports whether key was recorded before and records it if not.
func (f *Filter) Seen(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.seen[key]; exists {
		return true
	}
	f.seen[key] = struct{}{}
	return false
}

// Deduplicate keeps the first raw descriptor for every identity@host:port key,
// in input order. Entries that do not parse are dropped.
//
// removed is len(raws) - len(unique), so it counts unparsable entries as
// well as real duplicates.
func Deduplicate(raws []string, parse ParseFunc) (unique []string, removed int) {
	f := New()
	unique = make([]string, 0, len(raws))

	for _, raw := range raws {
		d, ok := parse(raw)
		if !ok {
			continue
		}
		if f.Seen(d.Key()) {
			continue
		}
		unique = append(unique, raw)
	}

	return unique, len(raws) - len(unique)
}
