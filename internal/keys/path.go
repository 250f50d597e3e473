package keys

import "fmt"

// Path returns the Sui derivation path of wallet index i.
func Path(index int) string {
	return fmt.Sprintf("m/44'/%d'/%d'/0'/0'", CoinType, index)
}

// PathIndex parses a path produced by Path back into its index.
func PathIndex(path string) (int, bool) {
	var coin, index int
	if _, err := fmt.Sscanf(path, "m/44'/%d'/%d'/0'/0'", &coin, &index); err != nil {
		return 0, false
	}
	if coin != CoinType || index < 0 || Path(index) != path {
		return 0, false
	}
	return index, true
}

// NextFreeIndices returns the n smallest non-negative indices that are not
// used by any path in used, in increasing order. Gaps left by removed
// wallets are filled first; a still-present index is never returned.
func NextFreeIndices(used []string, n int) []int {
	if n <= 0 {
		return nil
	}

	taken := make(map[int]struct{}, len(used))
	for _, p := range used {
		if i, ok := PathIndex(p); ok {
			taken[i] = struct{}{}
		}
	}

	free := make([]int, 0, n)
	for i := 0; len(free) < n; i++ {
		if _, ok := taken[i]; ok {
			continue
		}
		free = append(free, i)
	}

	return free
}
