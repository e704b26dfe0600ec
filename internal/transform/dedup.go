package transform

// Deduplicator tracks every unique key seen during one run. It is owned
// exclusively by one Processor instance and must be cleared before being
// reused for another run.
type Deduplicator struct {
	seen map[int64]struct{}
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[int64]struct{})}
}

// IsDuplicate records key and reports whether it was already seen. The
// first occurrence of a key returns false, every later one true.
func (d *Deduplicator) IsDuplicate(key int64) bool {
	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

// UniqueCount returns the number of distinct keys seen so far.
func (d *Deduplicator) UniqueCount() int {
	return len(d.seen)
}

// Clear discards all seen keys.
func (d *Deduplicator) Clear() {
	d.seen = make(map[int64]struct{})
}
