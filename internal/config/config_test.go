package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestNormalize_FillsDefaults(t *testing.T) {
	s := Normalize(Settings{})

	assert.Equal(t, English, s.NativeLanguage)
	assert.Equal(t, Spanish, s.LearningLanguage)
	assert.Equal(t, A1, s.Level)
	assert.NotNil(t, s.Interests)
	assert.NotNil(t, s.CompletedTopics)
	assert.Equal(t, DefaultSpeed, s.TTS.Speed)
}

func TestNormalize_KeepsValues(t *testing.T) {
	in := Settings{
		NativeLanguage:   German,
		LearningLanguage: Japanese,
		Level:            C1,
		Interests:        []Topic{Music},
		CompletedTopics:  []string{"Jazz"},
		TTS:              TTSSettings{Voice: "Kyoko", Speed: 1.1, AutoRead: true},
	}
	assert.Equal(t, in, Normalize(in))
}

func TestWithCompletedTopic_DoesNotAlias(t *testing.T) {
	base := Normalize(Settings{CompletedTopics: make([]string, 0, 4)})
	a := base.WithCompletedTopic("Tapas")
	b := base.WithCompletedTopic("Flamenco")

	assert.Empty(t, base.CompletedTopics)
	assert.Equal(t, []string{"Tapas"}, a.CompletedTopics)
	assert.Equal(t, []string{"Flamenco"}, b.CompletedTopics)
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want Language
		ok   bool
	}{
		{"Spanish", Spanish, true},
		{"spanish", Spanish, true},
		{"es-ES", Spanish, true},
		{"fr", French, true},
		{"Chinese (Mandarin)", Chinese, true},
		{"zh", Chinese, true},
		{"Klingon", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLanguage(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelFallbacks(t *testing.T) {
	assert.Equal(t, 150, A2.WordCount())
	assert.Equal(t, 100, Level("Z9").WordCount())
	assert.Equal(t, B1.Description(), Level("Z9").Description())
	assert.Equal(t, 0.6, AbsoluteBeginner.DefaultSpeed())
	assert.Equal(t, DefaultSpeed, Level("Z9").DefaultSpeed())
}

func TestLanguageLocale(t *testing.T) {
	assert.Equal(t, "pt-PT", Portuguese.Locale())
	assert.Equal(t, "en-US", Language("Esperanto").Locale())
	assert.True(t, Japanese.IsCJK())
	assert.False(t, Italian.IsCJK())
	assert.NotEmpty(t, German.SampleSentence())
}

func TestFromViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("profile.learning_language", string(French))
	viper.Set("profile.interests", []string{"Food", " Music "})
	viper.Set("tts.speed", 1.2)

	s := FromViper()
	assert.Equal(t, English, s.NativeLanguage)
	assert.Equal(t, French, s.LearningLanguage)
	assert.Equal(t, []Topic{Food, Music}, s.Interests)
	assert.Equal(t, 1.2, s.TTS.Speed)
	assert.Equal(t, []string{"Food", "Music"}, s.InterestNames())
}
