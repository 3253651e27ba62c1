package match

import "strings"

// Normalize prepares question text for comparison: case-fold, then strip
// everything except ASCII letters and digits. Punctuation and whitespace
// differences introduced by form exports disappear entirely.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Ratio returns a similarity measure in [0,1] between two strings:
// 2*M / (len(a)+len(b)), where M is the total length of all matching
// blocks found by repeatedly locating the longest common substring and
// recursing into the pieces on either side of it. Two equal strings score
// 1.0; strings with nothing in common score 0.0.
func Ratio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	matched := matchingBlocks([]byte(a), []byte(b), 0, len(a), 0, len(b))
	return 2.0 * float64(matched) / float64(len(a)+len(b))
}

// matchingBlocks sums the sizes of all matching blocks between a[alo:ahi]
// and b[blo:bhi].
func matchingBlocks(a, b []byte, alo, ahi, blo, bhi int) int {
	ai, bj, size := longestMatch(a, b, alo, ahi, blo, bhi)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingBlocks(a, b, alo, ai, blo, bj)
	total += matchingBlocks(a, b, ai+size, ahi, bj+size, bhi)
	return total
}

// longestMatch finds the longest matching block in a[alo:ahi] and
// b[blo:bhi]. Among blocks of equal size the one starting earliest in a,
// then earliest in b, wins, which keeps the result deterministic.
func longestMatch(a, b []byte, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	// Positions of each byte value in b[blo:bhi].
	b2j := make(map[byte][]int)
	for j := blo; j < bhi; j++ {
		b2j[b[j]] = append(b2j[b[j]], j)
	}

	besti, bestj = alo, blo
	// j2len[j] is the length of the match ending at a[i-1], b[j-1].
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}
