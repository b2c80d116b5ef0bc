package object

import (
	"fmt"
	"sort"
	"strings"
)

// ReachableSet returns every object reachable from roots by following
// object references, keyed by hash with the stored type. Unlike a GC walk,
// a referenced object that is missing is an error wrapping
// ErrObjectNotFound, so the result doubles as a connectivity check.
func (s *Store) ReachableSet(roots []Hash) (map[Hash]ObjectType, error) {
	roots = uniqueNormalizedHashes(roots)
	out := make(map[Hash]ObjectType, len(roots))

	stack := make([]Hash, 0, len(roots))
	stack = append(stack, roots...)
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := out[h]; ok {
			continue
		}

		objType, data, err := s.Read(h)
		if err != nil {
			return nil, fmt.Errorf("reachable set read %s: %w", h, err)
		}
		out[h] = objType

		refs, err := referencedHashes(objType, data)
		if err != nil {
			return nil, fmt.Errorf("reachable set parse %s (%s): %w: %v", h, objType, ErrCorruptObject, err)
		}
		stack = append(stack, refs...)
	}

	return out, nil
}

func uniqueNormalizedHashes(in []Hash) []Hash {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[Hash]struct{}, len(in))
	out := make([]Hash, 0, len(in))
	for _, h := range in {
		h = Hash(strings.TrimSpace(string(h)))
		if h.IsZero() {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
