package audio

// toInt16 scales float samples to 16-bit, clipping out-of-range values.
func toInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = floatToInt16(float64(s))
	}
	return out
}

func floatToInt16(s float64) int16 {
	switch {
	case s >= 1:
		return 32767
	case s <= -1:
		return -32768
	default:
		return int16(s * 32767)
	}
}

// remix converts interleaved samples between channel layouts. Downmixing
// to mono averages all channels; any other conversion maps output channel
// c to input channel c modulo the input count.
func remix(samples []int16, from, to int) []int16 {
	if from == to {
		return samples
	}

	frames := len(samples) / from
	out := make([]int16, frames*to)
	for i := 0; i < frames; i++ {
		in := samples[i*from : (i+1)*from]
		if to == 1 {
			var sum int32
			for _, s := range in {
				sum += int32(s)
			}
			out[i] = int16(sum / int32(from))
			continue
		}
		for c := 0; c < to; c++ {
			out[i*to+c] = in[c%from]
		}
	}
	return out
}
