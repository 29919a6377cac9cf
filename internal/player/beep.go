package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

const (
	speakerBuffer   = 250 * time.Millisecond
	resampleQuality = 4
)

var errNoSource = errors.New("no source set")

// BeepHandle is a [Handle] that streams an MP3 over HTTP and plays it on the speaker.
type BeepHandle struct {
	httpClient *http.Client
	logger     *log.Logger

	mu          sync.Mutex
	source      string
	cancel      context.CancelFunc
	streamer    beep.StreamSeekCloser
	ctrl        *beep.Ctrl
	ended       bool
	onEnded     func()
	gen         uint64
	speakerRate beep.SampleRate
}

var _ Handle = (*BeepHandle)(nil)

// NewStreamClient returns an HTTP client for audio streams. It has no overall
// timeout; dialing, TLS handshake and response headers are bounded.
func NewStreamClient() *http.Client {
	return &http.Client{
		Timeout: 0,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 15 * time.Second,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			DisableCompression:    true,
		},
	}
}

// NewBeepHandle creates a [BeepHandle]. A nil httpClient uses [NewStreamClient].
func NewBeepHandle(httpClient *http.Client, logger *log.Logger) *BeepHandle {
	if httpClient == nil {
		httpClient = NewStreamClient()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &BeepHandle{httpClient: httpClient, logger: logger}
}

func (h *BeepHandle) SetSource(url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopLocked()
	h.source = url
	return nil
}

// Play resumes a paused stream, or opens and decodes the source and starts it.
func (h *BeepHandle) Play(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ctrl != nil && !h.ended {
		speaker.Lock()
		h.ctrl.Paused = false
		speaker.Unlock()
		return nil
	}
	if h.source == "" {
		return errNoSource
	}
	h.stopLocked()

	// The stream outlives the caller's request scope.
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, h.source, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to create stream request: %w", err)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to open stream: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		cancel()
		return fmt.Errorf("stream request failed: %s", resp.Status)
	}

	streamer, format, err := mp3.Decode(resp.Body)
	if err != nil {
		resp.Body.Close()
		cancel()
		return fmt.Errorf("failed to decode mp3: %w", err)
	}

	if err := h.initSpeaker(format.SampleRate); err != nil {
		streamer.Close()
		cancel()
		return err
	}

	var s beep.Streamer = streamer
	if format.SampleRate != h.speakerRate {
		s = beep.Resample(resampleQuality, format.SampleRate, h.speakerRate, streamer)
	}

	h.gen++
	gen := h.gen
	h.cancel = cancel
	h.streamer = streamer
	h.ended = false
	h.ctrl = &beep.Ctrl{Streamer: beep.Seq(s, beep.Callback(func() {
		// Runs on the speaker goroutine with the speaker locked.
		go h.finished(gen)
	}))}

	speaker.Play(h.ctrl)
	h.logger.Debug("stream started", "url", h.source, "rate", format.SampleRate)
	return nil
}

func (h *BeepHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ctrl == nil {
		return
	}
	speaker.Lock()
	h.ctrl.Paused = true
	speaker.Unlock()
}

func (h *BeepHandle) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ctrl == nil || h.ended {
		return true
	}
	speaker.Lock()
	defer speaker.Unlock()
	return h.ctrl.Paused
}

func (h *BeepHandle) OnEnded(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEnded = fn
}

func (h *BeepHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
	h.source = ""
	return nil
}

func (h *BeepHandle) finished(gen uint64) {
	h.mu.Lock()
	if gen != h.gen {
		h.mu.Unlock()
		return
	}
	h.ended = true
	fn, src := h.onEnded, h.source
	h.mu.Unlock()

	h.logger.Debug("stream ended", "url", src)
	if fn != nil {
		fn()
	}
}

// initSpeaker initializes the speaker once at the first stream's sample rate.
func (h *BeepHandle) initSpeaker(rate beep.SampleRate) error {
	if h.speakerRate != 0 {
		return nil
	}
	if err := speaker.Init(rate, rate.N(speakerBuffer)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	h.speakerRate = rate
	return nil
}

func (h *BeepHandle) stopLocked() {
	h.gen++
	if h.ctrl != nil {
		speaker.Clear()
		h.ctrl = nil
	}
	if h.streamer != nil {
		h.streamer.Close()
		h.streamer = nil
	}
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.ended = false
}
