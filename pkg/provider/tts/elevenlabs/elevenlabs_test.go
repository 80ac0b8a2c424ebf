package elevenlabs_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/verbalis-ai/verbalis/pkg/audio"
	"github.com/verbalis-ai/verbalis/pkg/provider/tts"
	"github.com/verbalis-ai/verbalis/pkg/provider/tts/elevenlabs"
)

var testVoice = tts.VoiceProfile{ID: "voice-123", Name: "Emma", Language: "en-US"}

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()
	if _, err := elevenlabs.New(""); err == nil {
		t.Error("empty apiKey accepted")
	}
}

func TestSynthesize(t *testing.T) {
	t.Parallel()
	pcm := make([]byte, 32000) // one second at 16 kHz

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/text-to-speech/voice-123" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("xi-api-key"); got != "secret" {
			t.Errorf("xi-api-key = %q", got)
		}
		if got := r.URL.Query().Get("output_format"); got != "pcm_16000" {
			t.Errorf("output_format = %q", got)
		}
		var body struct {
			Text    string `json:"text"`
			ModelID string `json:"model_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Text != "How are you?" {
			t.Errorf("text = %q", body.Text)
		}
		if body.ModelID != "eleven_flash_v2_5" {
			t.Errorf("model_id = %q", body.ModelID)
		}
		w.Write(pcm)
	}))
	defer srv.Close()

	e, err := elevenlabs.New("secret", elevenlabs.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	wav, err := e.Synthesize(context.Background(), "How are you?", testVoice)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	// The raw PCM must come back wrapped in a WAV container at the format's
	// sample rate.
	d, err := audio.Duration(wav)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if d != 1.0 {
		t.Errorf("duration = %v, want 1.0", d)
	}
}

func TestSynthesize_Validation(t *testing.T) {
	t.Parallel()
	e, err := elevenlabs.New("secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.Synthesize(context.Background(), "  ", testVoice); err == nil {
		t.Error("blank text accepted")
	}
	if _, err := e.Synthesize(context.Background(), "hi", tts.VoiceProfile{}); err == nil {
		t.Error("missing voice ID accepted")
	}
}

func TestSynthesize_BadOutputFormat(t *testing.T) {
	t.Parallel()
	e, err := elevenlabs.New("secret", elevenlabs.WithOutputFormat("mp3_44100_128"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.Synthesize(context.Background(), "hi", testVoice); err == nil {
		t.Error("non-PCM output format accepted")
	}
}

func TestSynthesize_ServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusUnauthorized)
	}))
	defer srv.Close()

	e, err := elevenlabs.New("secret", elevenlabs.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.Synthesize(context.Background(), "hi", testVoice); err == nil {
		t.Error("error status accepted")
	}
}

func TestListVoices(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/voices" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"voices": []map[string]any{
				{"voice_id": "v1", "name": "Emma", "labels": map[string]string{"language": "en-US"}},
				{"voice_id": "v2", "name": "Oliver"},
			},
		})
	}))
	defer srv.Close()

	e, err := elevenlabs.New("secret", elevenlabs.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	voices, err := e.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("got %d voices, want 2", len(voices))
	}
	if voices[0].ID != "v1" || voices[0].Language != "en-US" {
		t.Errorf("voices[0] = %+v", voices[0])
	}
}
