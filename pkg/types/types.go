// Package types defines the shared types used across all Verbalis packages.
//
// These types form the lingua franca between the speech providers, the
// evaluation engine, and the pipeline orchestrator. Each package defines its
// own domain types; cross-cutting data structures live here to avoid circular
// imports.
package types

// AudioSample is an opaque handle to speaker audio: the raw container bytes
// (typically a RIFF/WAVE file) plus the name it was uploaded under. A sample
// is owned by the evaluation session and read exactly once per recognition
// request.
type AudioSample struct {
	// Name is the original file name (e.g., "recorded_audio.wav").
	Name string

	// Data is the complete audio container, header included.
	Data []byte
}

// Empty reports whether the sample carries no audio data.
func (s AudioSample) Empty() bool {
	return len(s.Data) == 0
}

// Segment is one recognition segment with its average token log-probability.
// Segment-level log-probabilities are the basis for the overall-clarity
// confidence proxy used by the feedback generator.
type Segment struct {
	// Text is the transcribed text of this segment.
	Text string

	// AvgLogProb is the mean log-probability of the tokens in this segment.
	// Values near 0 indicate high confidence; values below about -1 indicate
	// the recognizer was guessing.
	AvgLogProb float64
}

// WordDetail holds per-word metadata from recognition engines that report it.
type WordDetail struct {
	Word       string
	Confidence float64
}

// Transcript is the result of one batch recognition request.
//
// WordConfidence is keyed by token string, not by position — duplicate tokens
// in the utterance share a single confidence entry. This mirrors how the
// scorer looks confidences up and is the contract recognition engines must
// honour.
type Transcript struct {
	// Text is the full transcribed utterance.
	Text string

	// WordConfidence maps each recognized token to a confidence in [0, 1].
	// Keys use the normalized token form: lowercase, apostrophes dropped
	// ("don't" keys as "dont"). May be empty when the engine does not report
	// word-level confidence.
	WordConfidence map[string]float64

	// Segments holds the ordered recognition segments. May be empty for
	// engines without segment-level output.
	Segments []Segment
}

// Confidence returns the recognition confidence for word, or 0 when the word
// was not recognized (or the engine reported no word-level confidence).
func (t *Transcript) Confidence(word string) float64 {
	if t == nil || t.WordConfidence == nil {
		return 0
	}
	return t.WordConfidence[word]
}

// ConfidenceProxy returns the mean of all segment-level average
// log-probabilities. The second return value is false when no segments are
// available, in which case the proxy must not be used.
func (t *Transcript) ConfidenceProxy() (float64, bool) {
	if t == nil || len(t.Segments) == 0 {
		return 0, false
	}
	var sum float64
	for _, seg := range t.Segments {
		sum += seg.AvgLogProb
	}
	return sum / float64(len(t.Segments)), true
}
