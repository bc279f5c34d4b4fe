package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"whisperkey/internal/domain"
)

// Whisper expects 16 kHz mono input.
const (
	sampleRate      = 16000
	channels        = 1
	framesPerBuffer = 1024
)

// inputStream abstracts the PortAudio stream for testability.
type inputStream interface {
	Start() error
	Read() error
	Stop() error
	Close() error
}

type streamOpener func(device *int, frames []int16) (inputStream, error)

// Capture records microphone audio into memory and flushes it to a
// temporary WAV artifact on stop. Each Stop produces one fresh file;
// the caller owns its deletion.
type Capture struct {
	log     zerolog.Logger
	open    streamOpener
	tempDir string

	mu        sync.Mutex
	recording bool
	device    *int
	chunks    [][]int16
	stream    inputStream
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewCapture creates a recorder using the system PortAudio backend.
func NewCapture(log zerolog.Logger) *Capture {
	return &Capture{
		log:     log.With().Str("component", "audio").Logger(),
		open:    openPortAudioStream,
		tempDir: os.TempDir(),
	}
}

// SetDevice selects the input device used by the next Start. Nil means
// the system default. Changing it mid-recording has no effect on the
// active stream.
func (c *Capture) SetDevice(device *int) {
	c.mu.Lock()
	c.device = device
	c.mu.Unlock()
}

// Start opens the input stream and begins buffering audio.
func (c *Capture) Start() error {
	c.mu.Lock()
	if c.recording {
		c.mu.Unlock()
		c.log.Warn().Msg("already recording")
		return nil
	}
	// Claim the recorder before the slow stream open so an overlapping
	// Start cannot race past the guard and open a second stream.
	c.recording = true
	device := c.device
	c.mu.Unlock()

	frames := make([]int16, framesPerBuffer)
	stream, err := c.open(device, frames)
	if err != nil {
		c.rollbackStart()
		return &domain.DeviceError{Op: "open input stream", Err: err}
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		c.rollbackStart()
		return &domain.DeviceError{Op: "start input stream", Err: err}
	}

	c.mu.Lock()
	c.chunks = nil
	c.stream = stream
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	stopCh, doneCh := c.stopCh, c.doneCh
	c.mu.Unlock()

	go c.captureLoop(stream, frames, stopCh, doneCh)
	c.log.Info().Msg("recording started")
	return nil
}

func (c *Capture) rollbackStart() {
	c.mu.Lock()
	c.recording = false
	c.mu.Unlock()
}

func (c *Capture) captureLoop(stream inputStream, frames []int16, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		if err := stream.Read(); err != nil {
			// Stop() halts the stream, which surfaces here as a failed
			// read on the blocked loop.
			select {
			case <-stopCh:
				return
			default:
			}
			c.log.Warn().Err(err).Msg("stream read failed")
			time.Sleep(10 * time.Millisecond)
			continue
		}

		chunk := make([]int16, len(frames))
		copy(chunk, frames)
		c.mu.Lock()
		c.chunks = append(c.chunks, chunk)
		c.mu.Unlock()
	}
}

// Stop halts the stream and writes the buffered samples, in arrival
// order, to a fresh 16 kHz mono PCM WAV file. It returns an empty path
// and no error when not recording or when no audio was captured.
func (c *Capture) Stop() (string, error) {
	c.mu.Lock()
	if !c.recording || c.stream == nil {
		// Either idle, or a Start claimed the recorder but is still
		// opening its stream; there is nothing to flush yet.
		c.mu.Unlock()
		c.log.Warn().Msg("not currently recording")
		return "", nil
	}
	c.recording = false
	stream, stopCh, doneCh := c.stream, c.stopCh, c.doneCh
	c.stream = nil
	c.mu.Unlock()

	close(stopCh)
	if err := stream.Stop(); err != nil {
		c.log.Warn().Err(err).Msg("stream stop failed")
	}
	<-doneCh
	if err := stream.Close(); err != nil {
		c.log.Warn().Err(err).Msg("stream close failed")
	}

	c.mu.Lock()
	chunks := c.chunks
	c.chunks = nil
	c.mu.Unlock()

	if len(chunks) == 0 {
		c.log.Warn().Msg("no audio data recorded")
		return "", nil
	}

	total := 0
	for _, chunk := range chunks {
		total += len(chunk)
	}
	samples := make([]int, 0, total)
	for _, chunk := range chunks {
		for _, s := range chunk {
			samples = append(samples, int(s))
		}
	}

	path, err := c.writeArtifact(samples)
	if err != nil {
		return "", err
	}
	c.log.Info().Str("artifact", path).Int("samples", total).Msg("recording saved")
	return path, nil
}

func (c *Capture) writeArtifact(samples []int) (string, error) {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	path := filepath.Join(c.tempDir, fmt.Sprintf("whisperkey-%s.wav", id))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}

	enc := wav.NewEncoder(file, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = file.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("finalize artifact: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close artifact: %w", err)
	}
	return path, nil
}
