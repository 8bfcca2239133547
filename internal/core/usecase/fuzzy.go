package usecase

import "strings"

// sequenceRatio is a Ratcliff/Obershelp similarity in [0,1]: twice the
// total length of recursively matched blocks over the summed lengths,
// matching Python difflib's SequenceMatcher.ratio so the waterfall
// thresholds keep their calibrated meanings.
func sequenceRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	matched := matchingTotal(a, b)
	return 2 * float64(matched) / float64(len(a)+len(b))
}

func matchingTotal(a, b string) int {
	ai, bi, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingTotal(a[:ai], b[:bi])
	total += matchingTotal(a[ai+size:], b[bi+size:])
	return total
}

func longestCommonBlock(a, b string) (ai, bi, size int) {
	// lengths[j] holds the common-suffix length ending at a[i-1], b[j-1]
	// for the previous row of the DP table.
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > size {
					size = cur[j]
					ai = i - size
					bi = j - size
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}

// wordOverlapRatio is the word-set intersection over the larger word-set
// size; zero when the sets are disjoint.
func wordOverlapRatio(a, b string) float64 {
	aWords := fieldSet(a)
	bWords := fieldSet(b)
	if len(aWords) == 0 || len(bWords) == 0 {
		return 0
	}
	common := 0
	for w := range aWords {
		if _, ok := bWords[w]; ok {
			common++
		}
	}
	if common == 0 {
		return 0
	}
	larger := len(aWords)
	if len(bWords) > larger {
		larger = len(bWords)
	}
	return float64(common) / float64(larger)
}

func fieldSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}
