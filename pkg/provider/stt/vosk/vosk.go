// Package vosk provides a vosk-server-backed STT engine.
//
// It speaks the vosk-server WebSocket protocol: a JSON configuration frame,
// followed by binary PCM chunks, followed by an EOF frame. The server
// answers with interim partial results (discarded here) and one or more
// final results carrying per-word confidence, which Verbalis needs for
// confidence-weighted scoring.
//
// Audio is normalized to 16 kHz 16-bit mono PCM before transmission, the
// fixed format the Kaldi recognizer behind vosk-server expects.
package vosk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/verbalis-ai/verbalis/pkg/audio"
	"github.com/verbalis-ai/verbalis/pkg/provider/stt"
	"github.com/verbalis-ai/verbalis/pkg/types"
)

const (
	// chunkSize is the number of PCM bytes sent per binary frame. 4000 bytes
	// is 125 ms at 16 kHz mono, the chunk size recommended by the vosk-server
	// examples.
	chunkSize = 4000

	defaultTimeout = 60 * time.Second
)

// Compile-time assertion that Engine implements stt.Engine.
var _ stt.Engine = (*Engine)(nil)

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithTimeout bounds one complete Transcribe exchange (dial, stream, drain).
// Defaults to 60 s.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// Engine implements stt.Engine backed by a vosk-server WebSocket endpoint.
// Each Transcribe call opens its own connection, so the engine is safe for
// concurrent use.
type Engine struct {
	serverURL string
	timeout   time.Duration
}

// New creates an Engine that connects to the vosk-server at serverURL
// (e.g., "ws://localhost:2700"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Engine, error) {
	if serverURL == "" {
		return nil, errors.New("vosk: serverURL must not be empty")
	}
	e := &Engine{
		serverURL: serverURL,
		timeout:   defaultTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// configFrame is the first JSON frame sent on a new connection.
type configFrame struct {
	Config struct {
		SampleRate int  `json:"sample_rate"`
		Words      bool `json:"words"`
	} `json:"config"`
}

// resultFrame is a JSON frame received from vosk-server. Partial results set
// only Partial; final results set Text and Result.
type resultFrame struct {
	Partial string `json:"partial"`
	Text    string `json:"text"`
	Result  []struct {
		Word string  `json:"word"`
		Conf float64 `json:"conf"`
	} `json:"result"`
}

// wordKey lowercases a recognized word and drops apostrophes, the normalized
// token form [types.Transcript.WordConfidence] keys must use.
func wordKey(w string) string {
	return strings.Map(func(r rune) rune {
		if r == '\'' || r == '’' {
			return -1
		}
		return r
	}, strings.ToLower(w))
}

// Transcribe normalizes the sample to the recognizer format, streams it to
// vosk-server, and aggregates all final results into one Transcript.
//
// vosk-server reports no segment log-probabilities, so the returned
// Transcript has an empty Segments list and the feedback generator's
// confidence proxy is unavailable for this engine.
func (e *Engine) Transcribe(ctx context.Context, sample types.AudioSample, _ string) (*types.Transcript, error) {
	if sample.Empty() {
		return nil, fmt.Errorf("%w: empty audio sample", stt.ErrRecognition)
	}

	pcm, err := audio.Normalize(sample.Data, audio.RecognizerFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: normalize audio: %v", stt.ErrRecognition, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, e.serverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", stt.ErrRecognition, e.serverURL, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	var cfg configFrame
	cfg.Config.SampleRate = audio.RecognizerFormat.SampleRate
	cfg.Config.Words = true
	cfgBytes, _ := json.Marshal(cfg)
	if err := conn.Write(ctx, websocket.MessageText, cfgBytes); err != nil {
		return nil, fmt.Errorf("%w: send config: %v", stt.ErrRecognition, err)
	}

	// Collect finals concurrently so the server's send buffer never fills
	// while audio is still being written.
	type collected struct {
		tr  *types.Transcript
		err error
	}
	resultCh := make(chan collected, 1)
	go func() {
		tr := &types.Transcript{WordConfidence: make(map[string]float64)}
		var parts []string
		for {
			_, msg, err := conn.Read(ctx)
			if err != nil {
				// Normal closure after EOF means all finals were delivered.
				if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
					err = nil
				}
				tr.Text = strings.Join(parts, " ")
				resultCh <- collected{tr: tr, err: err}
				return
			}
			var frame resultFrame
			if jsonErr := json.Unmarshal(msg, &frame); jsonErr != nil {
				continue
			}
			if frame.Text == "" && len(frame.Result) == 0 {
				continue // interim partial
			}
			if frame.Text != "" {
				parts = append(parts, frame.Text)
			}
			for _, w := range frame.Result {
				tr.WordConfidence[wordKey(w.Word)] = w.Conf
			}
		}
	}()

	for off := 0; off < len(pcm); off += chunkSize {
		end := min(off+chunkSize, len(pcm))
		if err := conn.Write(ctx, websocket.MessageBinary, pcm[off:end]); err != nil {
			return nil, fmt.Errorf("%w: send audio: %v", stt.ErrRecognition, err)
		}
	}
	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"eof" : 1}`)); err != nil {
		return nil, fmt.Errorf("%w: send eof: %v", stt.ErrRecognition, err)
	}

	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, fmt.Errorf("%w: read results: %v", stt.ErrRecognition, res.err)
		}
		return res.tr, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", stt.ErrRecognition, ctx.Err())
	}
}
