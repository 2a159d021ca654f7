package assistant

// Emotion tags how a reply should sound.
type Emotion string

const (
	EmotionCalm   Emotion = "calm"
	EmotionHappy  Emotion = "happy"
	EmotionCaring Emotion = "caring"
)

// Voice carries speech synthesis hints.
type Voice struct {
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
}

// VoiceFor maps an emotion to speech parameters.
func VoiceFor(e Emotion) Voice {
	switch e {
	case EmotionHappy:
		return Voice{Rate: 1.1, Pitch: 1.2, Volume: 1}
	case EmotionCaring:
		return Voice{Rate: 0.95, Pitch: 1.05, Volume: 1}
	default:
		return Voice{Rate: 0.95, Pitch: 1.0, Volume: 1}
	}
}
