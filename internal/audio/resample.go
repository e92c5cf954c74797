package audio

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

// resample converts interleaved 16-bit samples from one rate to out's rate.
// Each channel is filtered on its own and flushed, and the result is fitted
// to exactly round(frames*out/in) frames.
func resample(samples []int16, fromRate int, out Format) ([]int16, error) {
	channels := out.Channels
	frames := len(samples) / channels
	want := resampledFrames(frames, fromRate, out.SampleRate)

	planar := make([][]float64, channels)
	for c := range planar {
		planar[c] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			planar[c][i] = float64(samples[i*channels+c]) / 32768.0
		}
	}

	result := make([]int16, want*channels)
	for c, in := range planar {
		resampled, err := resampling.ResampleMono(in, float64(fromRate), float64(out.SampleRate), resampling.QualityHigh)
		if err != nil {
			return nil, fmt.Errorf("resample channel %d %d -> %d Hz: %w", c, fromRate, out.SampleRate, err)
		}
		// Short output is padded with silence, filter overshoot is dropped.
		n := min(len(resampled), want)
		for i := 0; i < n; i++ {
			result[i*channels+c] = floatToInt16(resampled[i])
		}
	}
	return result, nil
}

func resampledFrames(frames, fromRate, toRate int) int {
	return int(math.Round(float64(frames) * float64(toRate) / float64(fromRate)))
}
