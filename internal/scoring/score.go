// Package scoring computes set-overlap classification quality between an
// expected label set and the labels a classifier returned.
package scoring

import (
	"strings"

	"github.com/FairForge/labelbench/internal/classifier"
	"github.com/FairForge/labelbench/internal/labels"
)

// Scores holds precision, recall and F1, each in [0,1].
type Scores struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
}

// Counts are the confusion counts behind a Scores value.
type Counts struct {
	TruePositives  int
	FalsePositives int
	FalseNegatives int
}

// Compare lower-cases actual and counts TP, FP and FN against expected.
// Duplicate actual labels count once. Actual labels are not trimmed, so a
// blank or padded name is a false positive.
func Compare(expected labels.Set, actual []string) Counts {
	seen := make(map[string]struct{}, len(actual))

	var c Counts
	for _, a := range actual {
		a = strings.ToLower(a)
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		if expected.Contains(a) {
			c.TruePositives++
		} else {
			c.FalsePositives++
		}
	}
	c.FalseNegatives = expected.Len() - c.TruePositives
	return c
}

// FromCounts applies the zero-division conventions:
// precision is 1 when nothing was predicted, recall is 1 when nothing was
// expected, and F1 is 1 only when there is nothing to get wrong at all.
func FromCounts(c Counts) Scores {
	tp := float64(c.TruePositives)
	fp := float64(c.FalsePositives)
	fn := float64(c.FalseNegatives)

	s := Scores{Precision: 1, Recall: 1, F1: 1}
	if tp+fp > 0 {
		s.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		s.Recall = tp / (tp + fn)
	}
	if tp+fp+fn > 0 {
		s.F1 = 2 * tp / (2*tp + fp + fn)
	}
	return s
}

// Score is Compare followed by FromCounts.
func Score(expected labels.Set, actual []string) Scores {
	return FromCounts(Compare(expected, actual))
}

// ScoreLabels scores classifier output against expected.
func ScoreLabels(expected labels.Set, actual []classifier.Label) Scores {
	names := make([]string, 0, len(actual))
	for _, l := range actual {
		names = append(names, l.Name)
	}
	return Score(expected, names)
}
