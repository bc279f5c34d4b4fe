package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"

	"whisperkey/internal/domain"
)

// openPortAudioStream opens the production input stream. PortAudio is
// initialized per stream and terminated when the stream closes.
func openPortAudioStream(device *int, frames []int16) (inputStream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}

	var stream *portaudio.Stream
	var err error
	if device == nil {
		stream, err = portaudio.OpenDefaultStream(channels, 0, float64(sampleRate), len(frames), frames)
	} else {
		stream, err = openDeviceStream(*device, frames)
	}
	if err != nil {
		_ = portaudio.Terminate()
		return nil, err
	}
	return &paStream{stream: stream}, nil
}

func openDeviceStream(index int, frames []int16) (*portaudio.Stream, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(devices) {
		return nil, fmt.Errorf("input device index %d out of range", index)
	}

	params := portaudio.LowLatencyParameters(devices[index], nil)
	params.Input.Channels = channels
	params.SampleRate = float64(sampleRate)
	params.FramesPerBuffer = len(frames)
	return portaudio.OpenStream(params, frames)
}

type paStream struct {
	stream *portaudio.Stream
}

func (s *paStream) Start() error { return s.stream.Start() }
func (s *paStream) Read() error  { return s.stream.Read() }
func (s *paStream) Stop() error  { return s.stream.Stop() }

func (s *paStream) Close() error {
	err := s.stream.Close()
	_ = portaudio.Terminate()
	return err
}

// Devices enumerates audio inputs for the settings dialog.
type Devices struct {
	log zerolog.Logger
}

func NewDevices(log zerolog.Logger) *Devices {
	return &Devices{log: log.With().Str("component", "audio").Logger()}
}

// InputDevices returns (index, name) pairs for every device that can
// capture audio. Indexes refer to the full PortAudio device list so they
// stay valid for SetDevice.
func (d *Devices) InputDevices() ([]domain.InputDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, &domain.DeviceError{Op: "initialize", Err: err}
	}
	defer portaudio.Terminate()

	all, err := portaudio.Devices()
	if err != nil {
		return nil, &domain.DeviceError{Op: "enumerate devices", Err: err}
	}

	var inputs []domain.InputDevice
	for i, dev := range all {
		if dev.MaxInputChannels > 0 {
			inputs = append(inputs, domain.InputDevice{Index: i, Name: dev.Name})
		}
	}
	return inputs, nil
}

// DefaultInputDevice returns the index of the system default input.
func (d *Devices) DefaultInputDevice() (int, error) {
	if err := portaudio.Initialize(); err != nil {
		return 0, &domain.DeviceError{Op: "initialize", Err: err}
	}
	defer portaudio.Terminate()

	def, err := portaudio.DefaultInputDevice()
	if err != nil {
		return 0, &domain.DeviceError{Op: "default device", Err: err}
	}

	all, err := portaudio.Devices()
	if err != nil {
		return 0, &domain.DeviceError{Op: "enumerate devices", Err: err}
	}
	for i, dev := range all {
		if dev == def {
			return i, nil
		}
	}
	return 0, &domain.DeviceError{Op: "default device", Err: fmt.Errorf("not found in device list")}
}
