package tts

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-shellwords"
	"google.golang.org/api/iterator"
)

// LocalTTSConfig holds configuration for the local sidecar backend.
type LocalTTSConfig struct {
	Command  string // sidecar command line, e.g. "python -m kokoro_sidecar"
	LangCode string // voice catalogue language code, default "a"
}

// LocalTTS drives a synthesis sidecar process (Kokoro or similar) per
// request. The sidecar reads one JSON request line on stdin:
//
//	{"text": "...", "voice": "af_heart", "speed": 1.0}
//
// then, for every line "next" it reads, synthesizes one sub-chunk and
// writes it as one JSON line on stdout:
//
//	{"graphemes": "...", "phonemes": "...", "sample_rate": 24000, "audio": "<base64 s16le mono>"}
//
// When it has nothing left it exits. A line carrying a non-empty "error"
// field aborts the stream. Stdin is closed once the stream ends.
type LocalTTS struct {
	cmd []string
	cfg LocalTTSConfig
}

type sidecarRequest struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
}

type sidecarChunk struct {
	Graphemes  string `json:"graphemes"`
	Phonemes   string `json:"phonemes"`
	SampleRate int    `json:"sample_rate"`
	Audio      string `json:"audio"`
	Error      string `json:"error"`
}

const (
	sidecarDefaultRate = 24000
	maxSidecarLine     = 32 << 20
)

// NewLocalTTS creates a LocalTTS backed by a sidecar command.
func NewLocalTTS(cfg LocalTTSConfig) (*LocalTTS, error) {
	if cfg.LangCode == "" {
		cfg.LangCode = "a"
	}
	if len(KokoroVoices(cfg.LangCode)) == 0 {
		return nil, fmt.Errorf("no voices for language code %q", cfg.LangCode)
	}
	args, err := shellwords.NewParser().Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse tts command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("tts command is empty (set TTS_EXEC_COMMAND)")
	}
	return &LocalTTS{cmd: args, cfg: cfg}, nil
}

func (l *LocalTTS) Name() string { return "local-sidecar" }

func (l *LocalTTS) Voices() []Voice { return KokoroVoices(l.cfg.LangCode) }

// Synthesize starts the sidecar and returns a stream over its output. The
// process is killed when ctx is done or the stream is closed.
func (l *LocalTTS) Synthesize(ctx context.Context, req SynthesisRequest) (Stream, error) {
	payload, err := json.Marshal(sidecarRequest{Text: req.Input, Voice: req.Voice, Speed: req.Speed})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, l.cmd[0], l.cmd[1:]...)
	cmd.WaitDelay = 5 * time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("sidecar stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("sidecar stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start sidecar: %w", err)
	}
	if _, err := stdin.Write(append(payload, '\n')); err != nil {
		cancel()
		_ = cmd.Wait()
		return nil, fmt.Errorf("send sidecar request: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxSidecarLine)

	return &sidecarStream{
		cmd:     cmd,
		cancel:  cancel,
		stdin:   stdin,
		scanner: scanner,
		stderr:  &stderr,
	}, nil
}

type sidecarStream struct {
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	stdin   io.WriteCloser
	scanner *bufio.Scanner
	stderr  *bytes.Buffer

	once    sync.Once
	waitErr error
	done    bool
}

func (s *sidecarStream) Next() (*SubChunk, error) {
	if s.done {
		return nil, iterator.Done
	}

	// A sidecar that already exited makes this write fail; the scan below
	// then sees EOF and the exit status is reported from wait.
	_, _ = io.WriteString(s.stdin, "next\n")

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		chunk, err := decodeSidecarLine(line)
		if err != nil {
			s.stop()
			return nil, err
		}
		return chunk, nil
	}

	if err := s.scanner.Err(); err != nil {
		s.stop()
		return nil, fmt.Errorf("read sidecar output: %w", err)
	}
	s.done = true
	_ = s.stdin.Close()
	if err := s.wait(); err != nil {
		return nil, fmt.Errorf("sidecar failed: %w (stderr: %s)", err, strings.TrimSpace(s.stderr.String()))
	}
	return nil, iterator.Done
}

// Close kills the sidecar if it is still running.
func (s *sidecarStream) Close() error {
	s.stop()
	return nil
}

func (s *sidecarStream) stop() {
	s.done = true
	_ = s.stdin.Close()
	s.cancel()
	_ = s.wait()
}

func (s *sidecarStream) wait() error {
	s.once.Do(func() {
		s.waitErr = s.cmd.Wait()
		s.cancel()
	})
	return s.waitErr
}

func decodeSidecarLine(line []byte) (*SubChunk, error) {
	var msg sidecarChunk
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("decode sidecar output: %w", err)
	}
	if msg.Error != "" {
		return nil, errors.New("sidecar: " + msg.Error)
	}
	raw, err := base64.StdEncoding.DecodeString(msg.Audio)
	if err != nil {
		return nil, fmt.Errorf("decode sidecar audio: %w", err)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("sidecar audio not aligned to 16-bit samples")
	}
	rate := msg.SampleRate
	if rate == 0 {
		rate = sidecarDefaultRate
	}
	return &SubChunk{
		Graphemes:  msg.Graphemes,
		Phonemes:   msg.Phonemes,
		Samples:    pcm16ToFloat(raw),
		SampleRate: rate,
		Channels:   1,
	}, nil
}
