package rule

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/rulegate/rulegate/internal/domain/state"
)

// defaultCacheSize bounds the per-engine evaluation result cache.
const defaultCacheSize = 256

// Engine is an append-only registry of rules with fail-fast evaluation.
//
// Rules run in registration order and the first failing rule wins. Outcomes
// are order-independent (the rule set is a pure conjunction), but which
// violation message is returned is not, so the order is a documented
// commitment that tests pin.
type Engine struct {
	rules []Rule
	ids   map[string]struct{}
	cache *resultCache
}

// Option configures an Engine.
type Option func(*Engine)

// WithCacheSize overrides the evaluation result cache bound.
// A size of 0 disables caching.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		if n <= 0 {
			e.cache = nil
			return
		}
		e.cache = newResultCache(n)
	}
}

// NewEngine creates an engine and registers the given rules in order.
// Duplicate rule IDs and nil checks are rejected.
func NewEngine(rules []Rule, opts ...Option) (*Engine, error) {
	e := &Engine{
		ids:   make(map[string]struct{}, len(rules)),
		cache: newResultCache(defaultCacheSize),
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, r := range rules {
		if err := e.register(r); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) register(r Rule) error {
	if r.ID == "" {
		return fmt.Errorf("rule has empty id")
	}
	if r.Check == nil {
		return fmt.Errorf("rule %q has nil check", r.ID)
	}
	switch r.Category {
	case CategoryAction, CategoryCapability:
	default:
		return fmt.Errorf("rule %q has unknown category %q", r.ID, r.Category)
	}
	if _, exists := e.ids[r.ID]; exists {
		return fmt.Errorf("duplicate rule id %q", r.ID)
	}
	e.ids[r.ID] = struct{}{}
	e.rules = append(e.rules, r)
	return nil
}

// Evaluate runs every registered rule of the given category against the
// snapshot in registration order and returns the first violation, or nil
// when all pass. Evaluation is pure and deterministic: identical inputs
// always yield the identical outcome.
func (e *Engine) Evaluate(category Category, snap state.Snapshot, params Params) *Violation {
	var key uint64
	if e.cache != nil {
		key = cacheKey(category, snap, params)
		if v, ok := e.cache.get(key); ok {
			return v
		}
	}

	v := e.evaluate(category, snap, params)
	if e.cache != nil {
		e.cache.put(key, v)
	}
	return v
}

func (e *Engine) evaluate(category Category, snap state.Snapshot, params Params) *Violation {
	for _, r := range e.rules {
		if r.Category != category {
			continue
		}
		if res := r.Check(snap, params); !res.Allowed {
			return &Violation{RuleID: r.ID, Reason: res.Reason}
		}
	}
	return nil
}

// Descriptions returns every rule's planning-time description in
// registration order.
func (e *Engine) Descriptions() []Description {
	out := make([]Description, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, Description{ID: r.ID, Category: r.Category, Description: r.Description})
	}
	return out
}

// cacheKey digests the full evaluation input. Snapshot items are already in
// declaration order, so the encoding is canonical.
func cacheKey(category Category, snap state.Snapshot, params Params) uint64 {
	var b strings.Builder
	b.WriteString(string(category))
	b.WriteByte(0)
	for _, it := range snap.Items {
		b.WriteString(string(it))
		b.WriteByte(1)
	}
	b.WriteByte(0)
	for _, it := range snap.Purchases {
		b.WriteString(string(it))
		b.WriteByte(1)
	}
	b.WriteByte(0)
	b.WriteString(string(snap.Weather))
	b.WriteByte(0)
	if snap.WeatherChecked {
		b.WriteByte(1)
	}
	b.WriteByte(0)
	if snap.Activity != nil {
		b.WriteString(string(*snap.Activity))
	}
	b.WriteByte(0)
	b.WriteString(string(params.Capability))
	b.WriteByte(0)
	if params.Activity != nil {
		b.WriteString(string(*params.Activity))
	}
	return xxhash.Sum64String(b.String())
}

// resultCache is a bounded LRU over evaluation outcomes. Evaluation is pure,
// so cached entries never go stale within an engine's lifetime.
type resultCache struct {
	mu      sync.Mutex
	entries map[uint64]*lruEntry
	head    *lruEntry
	tail    *lruEntry
	maxSize int
}

type lruEntry struct {
	key       uint64
	violation *Violation
	prev      *lruEntry
	next      *lruEntry
}

func newResultCache(maxSize int) *resultCache {
	return &resultCache{
		entries: make(map[uint64]*lruEntry, maxSize),
		maxSize: maxSize,
	}
}

func (c *resultCache) get(key uint64) (*Violation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.moveToHeadLocked(e)
		return e.violation, true
	}
	return nil, false
}

func (c *resultCache) put(key uint64, v *Violation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.violation = v
		c.moveToHeadLocked(e)
		return
	}
	if len(c.entries) >= c.maxSize {
		c.evictTailLocked()
	}
	e := &lruEntry{key: key, violation: v}
	c.entries[key] = e
	c.pushHeadLocked(e)
}

func (c *resultCache) moveToHeadLocked(e *lruEntry) {
	if c.head == e {
		return
	}
	c.unlinkLocked(e)
	c.pushHeadLocked(e)
}

func (c *resultCache) pushHeadLocked(e *lruEntry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *resultCache) unlinkLocked(e *lruEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

func (c *resultCache) evictTailLocked() {
	if c.tail == nil {
		return
	}
	victim := c.tail
	c.unlinkLocked(victim)
	delete(c.entries, victim.key)
}
