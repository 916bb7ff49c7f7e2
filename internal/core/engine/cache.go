package engine

// memoTable is the cache shape every engine component uses: a plain
// map that wipes itself entirely once it crosses its entry cap.
type memoTable[K comparable, V any] struct {
	entries map[K]V
	cap     int
}

func newMemoTable[K comparable, V any](cap int) *memoTable[K, V] {
	return &memoTable[K, V]{
		entries: make(map[K]V),
		cap:     cap,
	}
}

func (t *memoTable[K, V]) get(key K) (V, bool) {
	v, ok := t.entries[key]
	return v, ok
}

func (t *memoTable[K, V]) put(key K, v V) {
	if len(t.entries) >= t.cap {
		t.reset()
	}
	t.entries[key] = v
}

func (t *memoTable[K, V]) reset() {
	clear(t.entries)
}
