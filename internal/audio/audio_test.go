package audio

import (
	"bytes"
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/go-audio/wav"
)

type fakeCompressor struct {
	calls      int
	sampleRate int
	channels   int
	frames     int
	out        []byte
	err        error
}

func (f *fakeCompressor) Compress(ctx context.Context, data []byte, out Format, bitrate int) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	d := wav.NewDecoder(bytes.NewReader(data))
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	f.sampleRate = int(d.SampleRate)
	f.channels = int(d.NumChans)
	f.frames = len(buf.Data) / f.channels
	return f.out, nil
}

func sine(n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/24000))
	}
	return s
}

func newTestEncoder(t *testing.T, cfg Config, comp Compressor) *Encoder {
	t.Helper()
	enc, err := NewEncoder(cfg, comp)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	return enc
}

func TestDurationComesFromBytes(t *testing.T) {
	comp := &fakeCompressor{out: make([]byte, 1234)}
	enc := newTestEncoder(t, Config{SampleRate: 24000, Channels: 1, Bitrate: 64000}, comp)

	// One second of samples; the duration must still follow the byte count.
	frame, err := enc.Encode(context.Background(), sine(24000), 24000)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := float64(1234) * 8 / 64000
	if frame.Duration != want {
		t.Fatalf("duration = %v, want %v", frame.Duration, want)
	}
	if len(frame.Data) != 1234 {
		t.Fatalf("data length = %d", len(frame.Data))
	}
	if comp.sampleRate != 24000 || comp.channels != 1 || comp.frames != 24000 {
		t.Fatalf("unexpected wav: rate=%d ch=%d frames=%d", comp.sampleRate, comp.channels, comp.frames)
	}
}

func TestDurationFromBytes(t *testing.T) {
	if got := DurationFromBytes(8000, 64000); got != 1.0 {
		t.Fatalf("got %v", got)
	}
	if got := DurationFromBytes(0, 64000); got != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestEncodeResamples(t *testing.T) {
	comp := &fakeCompressor{out: []byte{0xff, 0xfb}}
	enc := newTestEncoder(t, Config{SampleRate: 22050, Channels: 1, Bitrate: 64000}, comp)

	if _, err := enc.Encode(context.Background(), sine(24000), 24000); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if comp.sampleRate != 22050 {
		t.Fatalf("wav sample rate = %d, want 22050", comp.sampleRate)
	}
	if comp.frames != 22050 {
		t.Fatalf("resampled frames = %d, want 22050", comp.frames)
	}
}

func TestResampleKeepsLength(t *testing.T) {
	tests := []struct {
		frames, from, to int
	}{
		{24000, 24000, 22050},
		{24000, 24000, 44100},
		{1000, 24000, 16000},
		{7, 24000, 22050},
	}

	for _, tt := range tests {
		in := toInt16(sine(tt.frames))
		got, err := resample(in, tt.from, Format{SampleRate: tt.to, Channels: 1})
		if err != nil {
			t.Fatalf("resample %d -> %d: %v", tt.from, tt.to, err)
		}
		want := int(math.Round(float64(tt.frames) * float64(tt.to) / float64(tt.from)))
		if len(got) != want {
			t.Errorf("resample %d frames %d -> %d = %d frames, want %d", tt.frames, tt.from, tt.to, len(got), want)
		}
	}
}

func TestResampleKeepsTail(t *testing.T) {
	got, err := resample(toInt16(sine(24000)), 24000, Format{SampleRate: 22050, Channels: 1})
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	// The last 5 ms of a continuous tone must still carry signal.
	var peak int
	for _, s := range got[len(got)-110:] {
		peak = max(peak, abs(int(s)))
	}
	if peak < 1000 {
		t.Fatalf("tail peak = %d, sentence ending was cut", peak)
	}
}

func TestResampleStereoKeepsChannelsApart(t *testing.T) {
	left := toInt16(sine(24000))
	in := make([]int16, 2*len(left))
	for i, s := range left {
		in[2*i] = s
	}

	got, err := resample(in, 24000, Format{SampleRate: 22050, Channels: 2})
	if err != nil {
		t.Fatalf("resample: %v", err)
	}
	if len(got) != 2*22050 {
		t.Fatalf("samples = %d, want %d", len(got), 2*22050)
	}

	var leftEnergy int
	for i := 0; i < len(got); i += 2 {
		leftEnergy += abs(int(got[i]))
		if got[i+1] != 0 {
			t.Fatalf("right channel leaked at frame %d: %d", i/2, got[i+1])
		}
	}
	if leftEnergy/22050 < 1000 {
		t.Fatalf("mean |left| = %d, signal lost", leftEnergy/22050)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestEncodeUpmixesToStereo(t *testing.T) {
	comp := &fakeCompressor{out: []byte{1}}
	enc := newTestEncoder(t, Config{SampleRate: 24000, Channels: 2, Bitrate: 64000}, comp)

	if _, err := enc.Encode(context.Background(), sine(480), 24000); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if comp.channels != 2 || comp.frames != 480 {
		t.Fatalf("channels=%d frames=%d", comp.channels, comp.frames)
	}
}

func TestEncodePCMDownmixes(t *testing.T) {
	comp := &fakeCompressor{out: []byte{1}}
	enc := newTestEncoder(t, Config{SampleRate: 24000, Channels: 1, Bitrate: 64000}, comp)

	pcm := PCM{Samples: sine(960), Format: Format{SampleRate: 24000, Channels: 2}}
	if _, err := enc.EncodePCM(context.Background(), pcm); err != nil {
		t.Fatalf("EncodePCM: %v", err)
	}
	if comp.channels != 1 || comp.frames != 480 {
		t.Fatalf("channels=%d frames=%d", comp.channels, comp.frames)
	}
}

func TestEncodeEmptySamples(t *testing.T) {
	comp := &fakeCompressor{out: []byte{1}}
	enc := newTestEncoder(t, Config{SampleRate: 24000, Channels: 1, Bitrate: 64000}, comp)

	frame, err := enc.Encode(context.Background(), nil, 24000)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if comp.calls != 0 || len(frame.Data) != 0 || frame.Duration != 0 {
		t.Fatalf("expected empty frame without compression, got %+v (calls=%d)", frame, comp.calls)
	}
}

func TestEncodeRejectsCorruptInput(t *testing.T) {
	enc := newTestEncoder(t, Config{SampleRate: 24000, Channels: 1, Bitrate: 64000}, &fakeCompressor{})

	tests := []struct {
		name    string
		samples []float32
		rate    int
	}{
		{"nan sample", []float32{0, float32(math.NaN()), 0}, 24000},
		{"infinite sample", []float32{float32(math.Inf(1))}, 24000},
		{"zero rate", []float32{0.1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.Encode(context.Background(), tt.samples, tt.rate)
			var encErr *EncodingError
			if !errors.As(err, &encErr) {
				t.Fatalf("expected EncodingError, got %v", err)
			}
		})
	}
}

func TestEncodeCompressorFailure(t *testing.T) {
	comp := &fakeCompressor{err: errors.New("codec exploded")}
	enc := newTestEncoder(t, Config{SampleRate: 24000, Channels: 1, Bitrate: 64000}, comp)

	_, err := enc.Encode(context.Background(), sine(100), 24000)
	var encErr *EncodingError
	if !errors.As(err, &encErr) || encErr.Op != "compress" {
		t.Fatalf("expected compress EncodingError, got %v", err)
	}
}

func TestEncodeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	enc := newTestEncoder(t, Config{SampleRate: 24000, Channels: 1, Bitrate: 64000}, &fakeCompressor{})
	if _, err := enc.Encode(ctx, sine(100), 24000); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewEncoderValidation(t *testing.T) {
	bad := []Config{
		{SampleRate: 0, Channels: 1, Bitrate: 64000},
		{SampleRate: 22050, Channels: 3, Bitrate: 64000},
		{SampleRate: 22050, Channels: 1, Bitrate: 0},
	}
	for _, cfg := range bad {
		if _, err := NewEncoder(cfg, &fakeCompressor{}); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
	if _, err := NewEncoder(Config{SampleRate: 22050, Channels: 1, Bitrate: 64000}, nil); err == nil {
		t.Fatal("expected error for nil compressor")
	}
}

func TestToInt16Clips(t *testing.T) {
	got := toInt16([]float32{-2, -1, 0, 1, 2})
	want := []int16{-32768, -32768, 0, 32767, 32767}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRemix(t *testing.T) {
	if got := remix([]int16{1, 2}, 1, 2); !reflect.DeepEqual(got, []int16{1, 1, 2, 2}) {
		t.Fatalf("mono->stereo: %v", got)
	}
	if got := remix([]int16{10, 20, -4, 4}, 2, 1); !reflect.DeepEqual(got, []int16{15, 0}) {
		t.Fatalf("stereo->mono: %v", got)
	}
}

func TestParseBitrate(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"64k", 64000, false},
		{"96K", 96000, false},
		{"128000", 128000, false},
		{"", 0, true},
		{"fast", 0, true},
		{"-64k", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseBitrate(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ParseBitrate(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestFFmpegArgs(t *testing.T) {
	f, err := NewFFmpeg("ffmpeg -threads 1")
	if err != nil {
		t.Fatalf("NewFFmpeg: %v", err)
	}
	args := f.Args(Format{SampleRate: 22050, Channels: 1}, 64000)

	if args[0] != "-threads" || args[1] != "1" {
		t.Fatalf("extra flags not kept first: %v", args)
	}
	for _, pair := range [][2]string{
		{"-b:a", "64000"},
		{"-ar", "22050"},
		{"-ac", "1"},
		{"-write_xing", "0"},
		{"-id3v2_version", "0"},
	} {
		if !hasPair(args, pair[0], pair[1]) {
			t.Fatalf("missing %s %s in %v", pair[0], pair[1], args)
		}
	}

	if _, err := NewFFmpeg(""); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func hasPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}
