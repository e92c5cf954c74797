package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/mattn/go-shellwords"
)

// FFmpeg compresses WAV to MP3 with an ffmpeg subprocess per segment.
type FFmpeg struct {
	cmd []string
}

// NewFFmpeg parses command, which is the ffmpeg binary optionally followed
// by extra global flags (for example "ffmpeg -threads 1").
func NewFFmpeg(command string) (*FFmpeg, error) {
	args, err := shellwords.NewParser().Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse ffmpeg command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("ffmpeg command is empty")
	}
	return &FFmpeg{cmd: args}, nil
}

// Args returns the argument list passed to the binary for one segment.
// The Xing/LAME info frame and ID3 tags are disabled so segments can be
// appended to one continuous stream.
func (f *FFmpeg) Args(out Format, bitrate int) []string {
	args := append([]string{}, f.cmd[1:]...)
	return append(args,
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", "wav", "-i", "pipe:0",
		"-vn",
		"-ar", strconv.Itoa(out.SampleRate),
		"-ac", strconv.Itoa(out.Channels),
		"-codec:a", "libmp3lame",
		"-b:a", strconv.Itoa(bitrate),
		"-write_xing", "0",
		"-id3v2_version", "0",
		"-write_id3v1", "0",
		"-map_metadata", "-1",
		"-f", "mp3", "pipe:1",
	)
}

func (f *FFmpeg) Compress(ctx context.Context, wav []byte, out Format, bitrate int) ([]byte, error) {
	cmd := exec.CommandContext(ctx, f.cmd[0], f.Args(out, bitrate)...)
	cmd.Stdin = bytes.NewReader(wav)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w (stderr: %s)", err, bytes.TrimSpace(stderr.Bytes()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output")
	}
	return stdout.Bytes(), nil
}
