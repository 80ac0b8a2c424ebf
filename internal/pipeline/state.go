package pipeline

import (
	"fmt"
	"sync"
)

// Key identifies one value in the pipeline state. Stages write disjoint key
// namespaces by convention; the merge log exists to catch the cases where
// that convention is broken.
type Key string

// Well-known state keys.
const (
	// KeyUserName is the display name of the speaker (string).
	KeyUserName Key = "user_name"
	// KeyTargetText is the sentence the speaker intends to produce (string).
	KeyTargetText Key = "target_text"
	// KeyAudio is the speaker's audio sample (types.AudioSample).
	KeyAudio Key = "audio"
	// KeyResultUS is the US tutor evaluation (*tutor.Evaluation).
	KeyResultUS Key = "us_result"
	// KeyResultUK is the UK tutor evaluation (*tutor.Evaluation).
	KeyResultUK Key = "uk_result"
	// KeySynthesisDone marks that both tutor branches completed (bool).
	KeySynthesisDone Key = "synthesis_done"
	// KeyAttemptID is the persisted attempt identifier (string).
	KeyAttemptID Key = "attempt_id"
)

// ErrorKey returns the state key under which the named stage records its
// failure. Stage errors are state values, never aborts: the graph always
// reaches its end stage.
func ErrorKey(stage string) Key {
	return Key("err_" + stage)
}

// Delta is the set of writes one stage produces. Stages return a Delta
// instead of mutating state directly, keeping stage functions
// side-effect-transparent; the graph applies deltas and records the merge
// decisions.
type Delta map[Key]any

// MergeAction says how a delta write interacted with existing state.
type MergeAction string

const (
	// ActionAdd records a write to a previously unset key.
	ActionAdd MergeAction = "add"
	// ActionOverwrite records a write that replaced an existing value.
	ActionOverwrite MergeAction = "overwrite"
)

// MergeDecision is one entry of the merge log: what a write found and what it
// left behind. Concurrent branches touching the same key become visible here
// instead of silently clobbering each other.
type MergeDecision struct {
	Stage  string      `json:"stage"`
	Key    Key         `json:"key"`
	Before any         `json:"before"`
	After  any         `json:"after"`
	Action MergeAction `json:"action"`
}

// State is the keyed store one pipeline run operates on. It is created at
// pipeline start, mutated only through [State.Apply], and discarded when the
// run's response has been assembled. Safe for concurrent use.
type State struct {
	mu     sync.Mutex
	values map[Key]any
	log    []MergeDecision
}

// NewState creates an empty State, optionally seeded with initial values.
// Seeding records merge decisions under the stage name "init".
func NewState(seed Delta) *State {
	s := &State{values: make(map[Key]any)}
	if len(seed) > 0 {
		s.Apply("init", seed)
	}
	return s
}

// Apply merges a stage's delta into the state, recording one merge decision
// per key. Iteration order over the delta is made deterministic per key set
// by the caller being a single stage; decisions for one Apply call are
// appended contiguously.
func (s *State) Apply(stage string, d Delta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range sortedKeys(d) {
		v := d[k]
		decision := MergeDecision{Stage: stage, Key: k, After: v, Action: ActionAdd}
		if before, ok := s.values[k]; ok {
			decision.Before = before
			decision.Action = ActionOverwrite
		}
		s.values[k] = v
		s.log = append(s.log, decision)
	}
}

// Get returns the value stored under k.
func (s *State) Get(k Key) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[k]
	return v, ok
}

// GetString returns the string stored under k, or "" when the key is unset or
// holds a different type.
func (s *State) GetString(k Key) string {
	v, _ := s.Get(k)
	str, _ := v.(string)
	return str
}

// MergeLog returns a copy of the merge decisions recorded so far, in apply
// order.
func (s *State) MergeLog() []MergeDecision {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MergeDecision, len(s.log))
	copy(out, s.log)
	return out
}

// StageErrors collects the per-stage error markers recorded in the state,
// keyed by stage name.
func (s *State) StageErrors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string)
	for k, v := range s.values {
		if stage, ok := cutErrorKey(k); ok {
			out[stage] = fmt.Sprint(v)
		}
	}
	return out
}

// Snapshot returns a shallow copy of all current values.
func (s *State) Snapshot() map[Key]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Key]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func cutErrorKey(k Key) (string, bool) {
	const prefix = "err_"
	s := string(k)
	if len(s) > len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):], true
	}
	return "", false
}

func sortedKeys(d Delta) []Key {
	keys := make([]Key, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
