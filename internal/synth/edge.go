package synth

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Edge speech service endpoint and output format. The service streams MP3
// frames plus word-boundary metadata over one websocket per utterance.
const (
	edgeEndpoint     = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"
	edgeOutputFormat = "audio-24khz-48kbitrate-mono-mp3"

	// The service reports offsets in 100-nanosecond ticks.
	ticksPerDuration = 100
)

// EdgeConfig controls the websocket synthesizer.
type EdgeConfig struct {
	// Endpoint overrides the default service URL (used by tests).
	Endpoint string
	// Token is appended as the trusted client token query parameter.
	Token string
	// HandshakeTimeout bounds the websocket dial.
	HandshakeTimeout time.Duration
}

// EdgeSynthesizer speaks the Edge read-aloud websocket protocol: a
// speech.config message, then an SSML request, then a stream of binary audio
// frames and JSON metadata messages until turn.end.
type EdgeSynthesizer struct {
	cfg    EdgeConfig
	dialer *websocket.Dialer
	logger *zap.Logger
}

// NewEdgeSynthesizer builds the client; it holds no connection state, one
// websocket is dialed per Synthesize call.
func NewEdgeSynthesizer(cfg EdgeConfig, logger *zap.Logger) *EdgeSynthesizer {
	if cfg.Endpoint == "" {
		cfg.Endpoint = edgeEndpoint
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EdgeSynthesizer{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		logger: logger,
	}
}

// Synthesize streams the synthesis of text in the given voice, forwarding
// audio chunks and word boundaries to handle in arrival order.
func (s *EdgeSynthesizer) Synthesize(ctx context.Context, text, voice string, handle EventHandler) error {
	requestID := strings.ReplaceAll(uuid.NewString(), "-", "")

	endpoint := s.cfg.Endpoint + "?ConnectionId=" + requestID
	if s.cfg.Token != "" {
		endpoint += "&TrustedClientToken=" + s.cfg.Token
	}
	conn, _, err := s.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial speech service: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			s.logger.Debug("close synthesis socket", zap.Error(closeErr))
		}
	}()

	stopWatch := watchContext(ctx, conn)
	defer stopWatch()

	if err := conn.WriteMessage(websocket.TextMessage, speechConfigMessage()); err != nil {
		return fmt.Errorf("send speech config: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, ssmlMessage(requestID, text, voice)); err != nil {
		return fmt.Errorf("send ssml request: %w", err)
	}

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("synthesis canceled: %w", ctx.Err())
			}
			return fmt.Errorf("read synthesis stream: %w", err)
		}
		switch msgType {
		case websocket.BinaryMessage:
			done, err := s.handleBinary(payload, handle)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		case websocket.TextMessage:
			done, err := s.handleText(payload, handle)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

// handleBinary decodes an audio frame: a big-endian 2-byte header length,
// the headers, then raw audio bytes.
func (s *EdgeSynthesizer) handleBinary(payload []byte, handle EventHandler) (bool, error) {
	if len(payload) < 2 {
		return false, fmt.Errorf("binary frame shorter than header length prefix")
	}
	headerLen := int(binary.BigEndian.Uint16(payload[:2]))
	if len(payload) < 2+headerLen {
		return false, fmt.Errorf("binary frame shorter than declared header length %d", headerLen)
	}
	headers := string(payload[2 : 2+headerLen])
	if !strings.Contains(headers, "Path:audio") {
		return false, nil
	}
	audio := payload[2+headerLen:]
	if len(audio) == 0 {
		return false, nil
	}
	return false, handle(Event{Type: EventAudioChunk, Audio: audio})
}

func (s *EdgeSynthesizer) handleText(payload []byte, handle EventHandler) (bool, error) {
	headers, body, found := strings.Cut(string(payload), "\r\n\r\n")
	if !found {
		return false, nil
	}
	switch {
	case strings.Contains(headers, "Path:turn.end"):
		return true, nil
	case strings.Contains(headers, "Path:audio.metadata"):
		return false, s.handleMetadata([]byte(body), handle)
	default:
		return false, nil
	}
}

type edgeMetadata struct {
	Metadata []struct {
		Type string `json:"Type"`
		Data struct {
			Offset   int64 `json:"Offset"`
			Duration int64 `json:"Duration"`
			Text     struct {
				Text string `json:"Text"`
			} `json:"text"`
		} `json:"Data"`
	} `json:"Metadata"`
}

func (s *EdgeSynthesizer) handleMetadata(body []byte, handle EventHandler) error {
	var meta edgeMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return fmt.Errorf("parse synthesis metadata: %w", err)
	}
	for _, entry := range meta.Metadata {
		if entry.Type != "WordBoundary" {
			continue
		}
		evt := Event{
			Type:     EventWordBoundary,
			Word:     entry.Data.Text.Text,
			Offset:   time.Duration(entry.Data.Offset * ticksPerDuration),
			Duration: time.Duration(entry.Data.Duration * ticksPerDuration),
		}
		if err := handle(evt); err != nil {
			return err
		}
	}
	return nil
}

func speechConfigMessage() []byte {
	const config = `{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"true"},"outputFormat":"` + edgeOutputFormat + `"}}}}`
	return []byte("X-Timestamp:" + timestamp() + "\r\n" +
		"Content-Type:application/json; charset=utf-8\r\n" +
		"Path:speech.config\r\n\r\n" + config)
}

func ssmlMessage(requestID, text, voice string) []byte {
	var escaped strings.Builder
	_ = xml.EscapeText(&escaped, []byte(text))
	ssml := `<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>` +
		`<voice name='` + voice + `'>` + escaped.String() + `</voice></speak>`
	return []byte("X-RequestId:" + requestID + "\r\n" +
		"X-Timestamp:" + timestamp() + "\r\n" +
		"Content-Type:application/ssml+xml\r\n" +
		"Path:ssml\r\n\r\n" + ssml)
}

func timestamp() string {
	return time.Now().UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")
}

// watchContext closes the connection when ctx is done so blocked reads
// return promptly.
func watchContext(ctx context.Context, conn *websocket.Conn) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	return func() { close(done) }
}
