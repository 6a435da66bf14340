package store

// ChunkRange invokes fn over [start, end) windows covering total elements.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

// DedupeStrings drops empty and repeated values, preserving first-seen order.
func DedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// DedupeFactsFirstWins removes repeated (entity1, relationship, entity2)
// triples, keeping the first occurrence. Later facts with the same triple
// but a different value are dropped.
func DedupeFactsFirstWins[F interface{ Key() [3]string }](facts []F) []F {
	if len(facts) == 0 {
		return nil
	}
	seen := make(map[[3]string]struct{}, len(facts))
	out := make([]F, 0, len(facts))
	for _, f := range facts {
		key := f.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}
