package service

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// processForScore: drop non-ASCII, punctuation -> space, lowercase, trim.
func processForScore(s string) string {
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(strings.ToLower(nonWord.ReplaceAllString(s, " ")))
}

// TokenSortRatio scores a against b on 0..100 ignoring token order:
// both sides are processed, tokens sorted, then compared with the indel ratio
// 2*LCS/(len(a)+len(b)), rounded half to even.
func TokenSortRatio(a, b string) int {
	sa := tokenSort(processForScore(a))
	sb := tokenSort(processForScore(b))
	if sa == "" || sb == "" {
		return 0
	}
	return ratio(sa, sb)
}

func ratio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	l := lcsLen(ra, rb)
	return int(math.RoundToEven(100 * float64(2*l) / float64(total)))
}

// lcsLen is the longest common subsequence length; two rolling rows.
func lcsLen(ra, rb []rune) int {
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
