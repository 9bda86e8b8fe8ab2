package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SetDefaults registers every configuration key the application reads.
func SetDefaults() {
	viper.SetDefault("tts.type", "auto") // Auto-select best engine
	viper.SetDefault("tts.voice", "")
	viper.SetDefault("tts.speed", DefaultSpeed)
	viper.SetDefault("tts.auto_read", false)
	viper.SetDefault("tts.volume", 1.0)
	viper.SetDefault("tts.cache_path", "./cache/tts")
	viper.SetDefault("tts.resume_threshold", 5)
	viper.SetDefault("tts.voice_wait", 5*time.Second)
	viper.SetDefault("tts.voice_poll", 200*time.Millisecond)

	viper.SetDefault("api.backend", "http")
	viper.SetDefault("api.base_url", "http://localhost:8787")
	viper.SetDefault("api.timeout", 60*time.Second)
	viper.SetDefault("api.retry.max_attempts", 3)
	viper.SetDefault("api.retry.initial_wait", time.Second)
	viper.SetDefault("api.retry.multiplier", 2.0)
	viper.SetDefault("api.retry.max_wait", 10*time.Second)

	viper.SetDefault("openai.model", "gpt-4o")

	viper.SetDefault("server.addr", ":8787")
	viper.SetDefault("server.rps", 5.0)
	viper.SetDefault("server.burst", 10)

	viper.SetDefault("store.path", "lingoblitz.db")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("app.autoplay_delay", 800*time.Millisecond)
}

// DefaultSpeed is the narration rate used when settings carry none.
const DefaultSpeed = 0.8

// TTSSettings are the learner's narration preferences.
type TTSSettings struct {
	Voice    string  `json:"voice"`
	Speed    float64 `json:"speed"`
	AutoRead bool    `json:"autoRead"`
}

// Settings is the learner profile. It is always fully populated once it has
// passed through Normalize.
type Settings struct {
	NativeLanguage   Language    `json:"nativeLanguage"`
	LearningLanguage Language    `json:"learningLanguage"`
	Level            Level       `json:"level"`
	Interests        []Topic     `json:"interests"`
	CompletedTopics  []string    `json:"blitzedTopics"`
	TTS              TTSSettings `json:"tts"`
}

// Normalize fills every defaulted field so callers never see partial settings.
func Normalize(s Settings) Settings {
	if s.NativeLanguage == "" {
		s.NativeLanguage = English
	}
	if s.LearningLanguage == "" {
		s.LearningLanguage = Spanish
	}
	if s.Level == "" {
		s.Level = A1
	}
	if s.Interests == nil {
		s.Interests = []Topic{}
	}
	if s.CompletedTopics == nil {
		s.CompletedTopics = []string{}
	}
	if s.TTS.Speed <= 0 {
		s.TTS.Speed = DefaultSpeed
	}
	return s
}

// FromViper builds settings from the configured defaults, used when no profile
// has been saved yet.
func FromViper() Settings {
	s := Settings{
		NativeLanguage:   Language(viper.GetString("profile.native_language")),
		LearningLanguage: Language(viper.GetString("profile.learning_language")),
		Level:            Level(viper.GetString("profile.level")),
		TTS: TTSSettings{
			Voice:    viper.GetString("tts.voice"),
			Speed:    viper.GetFloat64("tts.speed"),
			AutoRead: viper.GetBool("tts.auto_read"),
		},
	}
	for _, t := range viper.GetStringSlice("profile.interests") {
		s.Interests = append(s.Interests, Topic(strings.TrimSpace(t)))
	}
	return Normalize(s)
}

// WithCompletedTopic returns a copy of s with topic appended to the completed list.
func (s Settings) WithCompletedTopic(topic string) Settings {
	out := s
	out.CompletedTopics = append(append([]string{}, s.CompletedTopics...), topic)
	return out
}

// InterestNames returns the interests as plain strings.
func (s Settings) InterestNames() []string {
	names := make([]string, len(s.Interests))
	for i, t := range s.Interests {
		names[i] = string(t)
	}
	return names
}
