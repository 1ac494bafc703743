// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package decision

import "github.com/scale-vision/runtime/internal/types"

// weightedVote sums each class's probability across all observations in
// the current window and ranks by total score. Returns ("", 0, 0) for
// an empty window. Grounded on original_source/decision/voting.py's
// weighted_vote.
func weightedVote(items []types.ClassProb) (classID string, prob float64, margin float64) {
	if len(items) == 0 {
		return "", 0, 0
	}

	scores := make(map[string]float64, len(items))
	order := make([]string, 0, len(items))
	var total float64
	for _, item := range items {
		if _, seen := scores[item.ClassID]; !seen {
			order = append(order, item.ClassID)
		}
		scores[item.ClassID] += float64(item.Prob)
		total += float64(item.Prob)
	}

	topClass, topScore := order[0], scores[order[0]]
	secondScore := 0.0
	for _, id := range order[1:] {
		if scores[id] > topScore {
			secondScore = topScore
			topClass, topScore = id, scores[id]
		} else if scores[id] > secondScore {
			secondScore = scores[id]
		}
	}

	if total == 0 {
		total = 1.0
	}
	return topClass, topScore / total, (topScore - secondScore) / total
}
