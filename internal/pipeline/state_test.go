package pipeline_test

import (
	"testing"

	"github.com/verbalis-ai/verbalis/internal/pipeline"
)

func TestState_ApplyRecordsMergeDecisions(t *testing.T) {
	t.Parallel()
	st := pipeline.NewState(nil)

	st.Apply("ingest", pipeline.Delta{pipeline.KeyTargetText: "hello"})
	st.Apply("rewrite", pipeline.Delta{pipeline.KeyTargetText: "goodbye"})

	log := st.MergeLog()
	if len(log) != 2 {
		t.Fatalf("got %d merge decisions, want 2: %v", len(log), log)
	}

	first := log[0]
	if first.Stage != "ingest" || first.Action != pipeline.ActionAdd || first.Before != nil || first.After != "hello" {
		t.Errorf("first decision = %+v, want add of hello by ingest", first)
	}
	second := log[1]
	if second.Stage != "rewrite" || second.Action != pipeline.ActionOverwrite {
		t.Errorf("second decision = %+v, want overwrite by rewrite", second)
	}
	if second.Before != "hello" || second.After != "goodbye" {
		t.Errorf("second decision = %+v, want hello -> goodbye", second)
	}

	if got := st.GetString(pipeline.KeyTargetText); got != "goodbye" {
		t.Errorf("GetString = %q, want goodbye", got)
	}
}

func TestState_SeedRecordsInitStage(t *testing.T) {
	t.Parallel()
	st := pipeline.NewState(pipeline.Delta{
		pipeline.KeyUserName:   "ada",
		pipeline.KeyTargetText: "hello",
	})

	log := st.MergeLog()
	if len(log) != 2 {
		t.Fatalf("got %d merge decisions, want 2", len(log))
	}
	for _, d := range log {
		if d.Stage != "init" {
			t.Errorf("decision %+v: stage = %q, want init", d, d.Stage)
		}
		if d.Action != pipeline.ActionAdd {
			t.Errorf("decision %+v: action = %q, want add", d, d.Action)
		}
	}
	// Delta keys are applied in sorted order for a deterministic log.
	if log[0].Key != pipeline.KeyTargetText || log[1].Key != pipeline.KeyUserName {
		t.Errorf("log order = [%s, %s], want [target_text, user_name]", log[0].Key, log[1].Key)
	}
}

func TestState_StageErrors(t *testing.T) {
	t.Parallel()
	st := pipeline.NewState(nil)
	st.Apply("ingest", pipeline.Delta{pipeline.ErrorKey("ingest"): "no audio data found"})
	st.Apply("evaluate_us", pipeline.Delta{pipeline.KeyResultUS: "something"})

	errs := st.StageErrors()
	if len(errs) != 1 {
		t.Fatalf("StageErrors = %v, want exactly one entry", errs)
	}
	if errs["ingest"] != "no audio data found" {
		t.Errorf("StageErrors[ingest] = %q, want the recorded message", errs["ingest"])
	}
}

func TestState_GetMissingKey(t *testing.T) {
	t.Parallel()
	st := pipeline.NewState(nil)
	if _, ok := st.Get(pipeline.KeyAudio); ok {
		t.Error("Get on an empty state reported ok")
	}
	if got := st.GetString(pipeline.KeyUserName); got != "" {
		t.Errorf("GetString on an empty state = %q, want empty", got)
	}
}

func TestState_MergeLogIsACopy(t *testing.T) {
	t.Parallel()
	st := pipeline.NewState(pipeline.Delta{pipeline.KeyUserName: "ada"})
	log := st.MergeLog()
	log[0].Stage = "tampered"
	if st.MergeLog()[0].Stage != "init" {
		t.Error("mutating the returned log changed the state's log")
	}
}
