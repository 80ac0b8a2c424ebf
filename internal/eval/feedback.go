package eval

import (
	"fmt"

	"github.com/antzucaro/matchr"

	"github.com/verbalis-ai/verbalis/pkg/types"
)

const (
	// maxReportedIssues caps how many critical issues the feedback names
	// explicitly; more than that overwhelms rather than helps.
	maxReportedIssues = 3

	// nearMissSimilarity is the Jaro-Winkler threshold above which a
	// misrecognized word is phrased as a near miss instead of a substitution.
	nearMissSimilarity = 0.84

	// Confidence-proxy thresholds on the mean segment log-probability.
	proxyUnclear = -3.0
	proxyLow     = -1.8
)

// ComposeFeedback builds the ordered coaching lines for one evaluation:
// either a praise line or up to three named issues plus a coaching line,
// then a contraction compliment and a clarity warning where applicable.
//
// The transcript supplies the confidence proxy; a nil transcript or one
// without segments simply omits the clarity line.
func ComposeFeedback(sc Score, tr *types.Transcript) []string {
	var lines []string

	if len(sc.Issues) == 0 {
		lines = append(lines, "Great job! Every key word came through clearly.")
	} else {
		for i, issue := range sc.Issues {
			if i == maxReportedIssues {
				break
			}
			lines = append(lines, issueLine(issue))
		}
		lines = append(lines, "Focus on finishing each content word fully; they carry the meaning of the sentence.")
	}

	if sc.ContractionUsed {
		lines = append(lines, "Nice use of natural contractions, that's how fluent speakers sound.")
	}

	if tr != nil {
		if proxy, ok := tr.ConfidenceProxy(); ok {
			switch {
			case proxy < proxyUnclear:
				lines = append(lines, "The recording was hard to make out; try again in a quieter spot or closer to the microphone.")
			case proxy < proxyLow:
				lines = append(lines, "Some parts came through with low confidence, so a few words may have been misheard.")
			}
		}
	}

	return lines
}

// issueLine phrases one critical issue. A missing word reads differently from
// a substitution, and a substitution that is nearly right gets encouragement
// instead of a correction.
func issueLine(issue Issue) string {
	if issue.Recognized == "" {
		return fmt.Sprintf("The word %q was not clearly heard.", issue.Target)
	}
	if matchr.JaroWinkler(issue.Target, issue.Recognized, false) >= nearMissSimilarity {
		return fmt.Sprintf("You said %q instead of %q, but that was very close.", issue.Recognized, issue.Target)
	}
	return fmt.Sprintf("It sounds like you said %q instead of %q.", issue.Recognized, issue.Target)
}
