package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	elevenLabsWSBaseURL = "wss://api.elevenlabs.io/v1/text-to-speech"
	defaultModelID      = "eleven_flash_v2_5"
	handshakeTimeout    = 10 * time.Second
)

// ElevenLabsWS is a streaming TTS speaker over the ElevenLabs websocket
// stream-input API. Audio chunks are handed to OnAudio as they arrive; the
// rover side owns playback, so the core never blocks on audio I/O.
type ElevenLabsWS struct {
	apiKey  string
	voiceID string
	modelID string
	logger  *slog.Logger

	conn   *websocket.Conn
	connMu sync.Mutex

	// OnAudio receives decoded PCM chunks. Nil drops audio (useful when the
	// dashboard only wants the transcript).
	OnAudio func(pcm []byte)

	ctx    context.Context
	cancel context.CancelFunc
}

// NewElevenLabsWS creates the streaming speaker. The connection is
// established by Connect so startup can fail fast on a bad key.
func NewElevenLabsWS(apiKey, voiceID string, logger *slog.Logger) (*ElevenLabsWS, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ElevenLabsWS{
		apiKey:  apiKey,
		voiceID: voiceID,
		modelID: defaultModelID,
		logger:  logger.With("component", "voice.elevenlabs_ws"),
	}, nil
}

// Connect dials the websocket and starts the audio read loop.
func (e *ElevenLabsWS) Connect(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	url := fmt.Sprintf("%s/%s/stream-input?model_id=%s&output_format=pcm_24000",
		elevenLabsWSBaseURL, e.voiceID, e.modelID)

	headers := http.Header{}
	headers.Set("xi-api-key", e.apiKey)

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(e.ctx, url, headers)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}

	// Begin-of-stream message primes the voice settings.
	bos := map[string]any{
		"text": " ",
		"voice_settings": map[string]any{
			"stability":        0.5,
			"similarity_boost": 0.75,
		},
	}
	if err := conn.WriteJSON(bos); err != nil {
		conn.Close()
		return fmt.Errorf("send BOS: %w", err)
	}

	e.connMu.Lock()
	e.conn = conn
	e.connMu.Unlock()

	go e.readLoop()
	e.logger.Info("websocket connected", "voice", e.voiceID, "model", e.modelID)
	return nil
}

// Say streams one line for synthesis. Errors are logged, not returned:
// speech is best-effort and the control loops must not stall on it.
func (e *ElevenLabsWS) Say(text string) {
	if text == "" {
		return
	}
	if err := e.send(text); err != nil {
		e.logger.Warn("speech send failed", "error", err)
	}
}

func (e *ElevenLabsWS) send(text string) error {
	e.connMu.Lock()
	defer e.connMu.Unlock()
	if e.conn == nil {
		return ErrNotConnected
	}
	// Trailing space plus trigger flushes generation for short lines.
	msg := map[string]any{
		"text":                 text + " ",
		"try_trigger_generation": true,
	}
	return e.conn.WriteJSON(msg)
}

// readLoop drains audio chunks until the connection closes.
func (e *ElevenLabsWS) readLoop() {
	for {
		e.connMu.Lock()
		conn := e.conn
		e.connMu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-e.ctx.Done():
			default:
				e.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		var frame struct {
			Audio   string `json:"audio"`
			IsFinal bool   `json:"isFinal"`
		}
		if err := json.Unmarshal(data, &frame); err != nil || frame.Audio == "" {
			continue
		}
		pcm, err := base64.StdEncoding.DecodeString(frame.Audio)
		if err != nil {
			e.logger.Warn("bad audio frame", "error", err)
			continue
		}
		if e.OnAudio != nil {
			e.OnAudio(pcm)
		}
	}
}

// Close tears the connection down.
func (e *ElevenLabsWS) Close() error {
	if e.cancel != nil {
		e.cancel()
	}
	e.connMu.Lock()
	defer e.connMu.Unlock()
	if e.conn == nil {
		return nil
	}
	err := e.conn.Close()
	e.conn = nil
	return err
}
