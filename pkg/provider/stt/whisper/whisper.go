// Package whisper provides a local whisper.cpp-backed STT engine.
//
// It submits complete utterances to a running whisper-server binary (which
// exposes a REST API at POST /inference) and maps the verbose JSON response
// to a [types.Transcript]. whisper.cpp does not report word-level confidence,
// so per-word confidence is derived from the average log-probability of the
// segment each word belongs to (exp(avg_logprob), clamped to [0, 1]).
//
// Usage:
//
//	e, err := whisper.New("http://localhost:8080",
//	    whisper.WithLanguage("en"),
//	    whisper.WithTimeout(30*time.Second),
//	)
//	tr, err := e.Transcribe(ctx, sample, "en-US")
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/verbalis-ai/verbalis/pkg/provider/stt"
	"github.com/verbalis-ai/verbalis/pkg/types"
)

const (
	inferenceEndpoint = "/inference"
	defaultLanguage   = "en"
	defaultTimeout    = 60 * time.Second
)

// Compile-time assertion that Engine implements stt.Engine.
var _ stt.Engine = (*Engine)(nil)

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithModel sets the model identifier forwarded to the whisper-server
// (e.g., "base.en", "small"). When empty the server uses whichever model it
// was started with — this is the default.
func WithModel(model string) Option {
	return func(e *Engine) { e.model = model }
}

// WithLanguage sets the default language code sent with every request
// (e.g., "en", "de"). A non-empty language argument to Transcribe overrides
// it. Defaults to "en".
func WithLanguage(lang string) Option {
	return func(e *Engine) { e.language = lang }
}

// WithTimeout sets the per-request HTTP timeout. Whisper inference on CPU can
// take several seconds per utterance; the default is 60 s.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.httpClient.Timeout = d }
}

// Engine implements stt.Engine backed by a local whisper-server HTTP API.
// It is safe for concurrent use; each Transcribe call is one HTTP request.
type Engine struct {
	serverURL  string
	model      string
	language   string
	httpClient *http.Client
}

// New creates an Engine that connects to the whisper-server at serverURL
// (e.g., "http://localhost:8080"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Engine, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	e := &Engine{
		serverURL:  strings.TrimRight(serverURL, "/"),
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// inferenceResponse is the verbose JSON body returned by POST /inference.
type inferenceResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Text       string  `json:"text"`
		AvgLogProb float64 `json:"avg_logprob"`
	} `json:"segments"`
	Error string `json:"error,omitempty"`
}

// Transcribe submits the sample to the whisper-server and maps the response
// to a Transcript. Word confidences are derived from segment log-probability.
func (e *Engine) Transcribe(ctx context.Context, sample types.AudioSample, language string) (*types.Transcript, error) {
	if sample.Empty() {
		return nil, fmt.Errorf("%w: empty audio sample", stt.ErrRecognition)
	}

	lang := e.language
	if language != "" {
		// Reduce BCP-47 tags like "en-US" to the primary subtag.
		lang, _, _ = strings.Cut(language, "-")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	name := sample.Name
	if name == "" {
		name = "audio.wav"
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(sample.Data); err != nil {
		return nil, fmt.Errorf("whisper: write form file: %w", err)
	}
	fields := map[string]string{
		"response_format": "verbose_json",
		"language":        lang,
	}
	if e.model != "" {
		fields["model"] = e.model
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("whisper: write form field %s: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.serverURL+inferenceEndpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %v", stt.ErrRecognition, inferenceEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: POST %s returned status %d", stt.ErrRecognition, inferenceEndpoint, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", stt.ErrRecognition, err)
	}

	var inf inferenceResponse
	if err := json.Unmarshal(raw, &inf); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", stt.ErrRecognition, err)
	}
	if inf.Error != "" {
		return nil, fmt.Errorf("%w: server error: %s", stt.ErrRecognition, inf.Error)
	}

	tr := &types.Transcript{
		Text:           strings.TrimSpace(inf.Text),
		WordConfidence: make(map[string]float64),
	}
	for _, seg := range inf.Segments {
		conf := confidenceFromLogProb(seg.AvgLogProb)
		for _, word := range wordTokens(seg.Text) {
			tr.WordConfidence[word] = conf
		}
		tr.Segments = append(tr.Segments, types.Segment{
			Text:       strings.TrimSpace(seg.Text),
			AvgLogProb: seg.AvgLogProb,
		})
	}
	return tr, nil
}

// confidenceFromLogProb maps a segment average log-probability to a [0, 1]
// confidence value via exp(x).
func confidenceFromLogProb(avgLogProb float64) float64 {
	conf := math.Exp(avgLogProb)
	if conf > 1 {
		conf = 1
	}
	return conf
}

// wordTokens lowercases s and extracts maximal runs of letters. Apostrophes
// are dropped without splitting the word ("don't" yields "dont"), the
// normalized token form [types.Transcript.WordConfidence] keys must use.
func wordTokens(s string) []string {
	s = strings.ToLower(s)
	var tokens []string
	var cur strings.Builder
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			cur.WriteRune(r)
			continue
		}
		if r == '\'' || r == '’' {
			continue
		}
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}
