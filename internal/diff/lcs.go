package diff

// pair is one matched index couple from an LCS backtrack.
type pair struct {
	a, b int
}

// lcsPairs computes the longest common subsequence of two sequences under
// an arbitrary match predicate and returns the matched index pairs in
// order. The predicate makes the paragraph alignment similarity-tolerant;
// with plain equality it is the word-level LCS.
func lcsPairs(lenA, lenB int, match func(i, j int) bool) []pair {
	if lenA == 0 || lenB == 0 {
		return nil
	}
	dp := make([][]int, lenA+1)
	for i := range dp {
		dp[i] = make([]int, lenB+1)
	}
	for i := 1; i <= lenA; i++ {
		for j := 1; j <= lenB; j++ {
			if match(i-1, j-1) {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}
	var out []pair
	i, j := lenA, lenB
	for i > 0 && j > 0 {
		switch {
		case match(i-1, j-1) && dp[i][j] == dp[i-1][j-1]+1:
			out = append(out, pair{a: i - 1, b: j - 1})
			i--
			j--
		case dp[i-1][j] >= dp[i][j-1]:
			i--
		default:
			j--
		}
	}
	// Reverse into document order.
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}
