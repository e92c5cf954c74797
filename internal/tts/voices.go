package tts

import "slices"

// Voice describes one selectable voice.
type Voice struct {
	Name     string `json:"name"`
	Language string `json:"language"`
}

// kokoroVoices lists the Kokoro voices per pipeline language code.
var kokoroVoices = map[string][]string{
	"a": { // American English
		"af_heart", "af_nova", "af_sky", "af_bella", "af_sarah",
		"am_adam", "am_michael", "bf_emma", "bf_isabella", "bm_george", "bm_lewis",
	},
	"b": { // British English
		"bf_emma", "bf_isabella", "bm_george", "bm_lewis",
	},
}

// KokoroVoices returns the catalogue for a language code, in a stable order.
func KokoroVoices(langCode string) []Voice {
	names := kokoroVoices[langCode]
	voices := make([]Voice, 0, len(names))
	for _, n := range names {
		voices = append(voices, Voice{Name: n, Language: langCode})
	}
	return voices
}

// HasVoice reports whether s offers a voice called name.
func HasVoice(s Synthesizer, name string) bool {
	return slices.ContainsFunc(s.Voices(), func(v Voice) bool { return v.Name == name })
}
