package store

import (
	"strconv"
	"sync"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/rcliao/browser-memory/internal/model"
)

// patternIndex is an in-process cache of pattern rows keyed by pattern key.
// It is rebuilt from the patterns table on open and refreshed after each
// committed write. SQLite stays authoritative: a miss falls back to the table.
//
// Entries live under a generation. Commits made by other connections to the
// same database file start a new generation, which hides every older entry
// without touching the cache concurrently with readers.
type patternIndex struct {
	c *ristretto.Cache[string, model.Pattern]

	mu  sync.Mutex
	gen uint64
	// version is the last PRAGMA data_version seen on the store's connection.
	version int64
}

func newPatternIndex(maxEntries int64) (*patternIndex, error) {
	if maxEntries < 1 {
		maxEntries = DefaultIndexSize
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, model.Pattern]{
		NumCounters:        maxEntries * 10,
		MaxCost:            maxEntries,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &patternIndex{c: c}, nil
}

func genKey(gen uint64, key string) string {
	return strconv.FormatUint(gen, 10) + ":" + key
}

// observe records the connection's data_version and returns the generation
// valid for it, starting a new one when another connection has committed.
func (x *patternIndex) observe(version int64) uint64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	if version != x.version {
		x.version = version
		x.gen++
	}
	return x.gen
}

func (x *patternIndex) get(gen uint64, key string) (model.Pattern, bool) {
	return x.c.Get(genKey(gen, key))
}

// put stores p under gen and waits for the write buffer to drain, so no
// older value for the same key can land after it. New keys may still be
// rejected by the admission policy, which only costs a miss.
func (x *patternIndex) put(gen uint64, p model.Pattern) {
	x.c.Set(genKey(gen, p.Key), p, 1)
	x.c.Wait()
}

// current is the generation for entries written right after an own commit.
func (x *patternIndex) current() uint64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.gen
}

// load queues p without waiting. Used for bulk warming followed by wait.
func (x *patternIndex) load(gen uint64, p model.Pattern) {
	x.c.Set(genKey(gen, p.Key), p, 1)
}

func (x *patternIndex) wait() {
	x.c.Wait()
}

// clear drops every entry. Callers hold the store's write lock.
func (x *patternIndex) clear() {
	x.c.Clear()
}

func (x *patternIndex) close() {
	x.c.Close()
}
