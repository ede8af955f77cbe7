package domain

// Ledger counts units in stock per kind. Counts never go below zero.
// A Ledger is not safe for concurrent use.
type Ledger[K comparable] struct {
	counts map[K]int
}

// NewLedger returns a ledger tracking keys, each seeded at zero.
func NewLedger[K comparable](keys ...K) *Ledger[K] {
	l := &Ledger[K]{counts: make(map[K]int, len(keys))}
	for _, k := range keys {
		l.Initialize(k)
	}
	return l
}

// Initialize starts tracking key at zero. Already tracked keys keep their count.
func (l *Ledger[K]) Initialize(key K) {
	if _, ok := l.counts[key]; !ok {
		l.counts[key] = 0
	}
}

// Add increments key by one, tracking it first if needed.
func (l *Ledger[K]) Add(key K) {
	l.counts[key]++
}

// Remove decrements key by one. Removing from an empty or untracked key is a no-op.
func (l *Ledger[K]) Remove(key K) {
	if l.counts[key] > 0 {
		l.counts[key]--
	}
}

func (l *Ledger[K]) RemoveMany(keys []K) {
	for _, k := range keys {
		l.Remove(k)
	}
}

func (l *Ledger[K]) RefillMany(keys []K) {
	for _, k := range keys {
		l.Add(k)
	}
}

// Set overwrites the count of key, flooring negative values at zero.
func (l *Ledger[K]) Set(key K, count int) {
	if count < 0 {
		count = 0
	}
	l.counts[key] = count
}

func (l *Ledger[K]) Count(key K) int {
	return l.counts[key]
}

func (l *Ledger[K]) HasAtLeastOne(key K) bool {
	return l.Count(key) >= 1
}

// Reset zeroes every tracked key without forgetting it.
func (l *Ledger[K]) Reset() {
	for k := range l.counts {
		l.counts[k] = 0
	}
}

// Snapshot returns a copy of all tracked keys and their counts.
func (l *Ledger[K]) Snapshot() map[K]int {
	out := make(map[K]int, len(l.counts))
	for k, v := range l.counts {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy of the ledger.
func (l *Ledger[K]) Clone() *Ledger[K] {
	return &Ledger[K]{counts: l.Snapshot()}
}
