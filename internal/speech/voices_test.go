package speech

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lingoblitz/internal/config"
)

func TestWaitForVoices_PollsUntilPopulated(t *testing.T) {
	engine := NewMockEngine(Voice{Name: "Paulina", Locale: "es-MX", Local: true})
	engine.HideVoicesFor(3)

	voices := WaitForVoices(context.Background(), engine, time.Second, 5*time.Millisecond)

	assert.Len(t, voices, 1)
	assert.Equal(t, "Paulina", voices[0].Name)
}

func TestWaitForVoices_TimesOutEmpty(t *testing.T) {
	engine := NewMockEngine()

	start := time.Now()
	voices := WaitForVoices(context.Background(), engine, 30*time.Millisecond, 5*time.Millisecond)

	assert.NotNil(t, voices)
	assert.Empty(t, voices)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestVoicesForLanguage_FiltersAndRanks(t *testing.T) {
	engine := NewMockEngine(
		Voice{Name: "Monica", Locale: "es_ES", Local: true},
		Voice{Name: "Google español", Locale: "es-ES"},
		Voice{Name: "Microsoft Elvira Online (Natural)", Locale: "es-ES"},
		Voice{Name: "Samantha", Locale: "en-US", Local: true},
		Voice{Name: "Jorge Natural", Locale: "es-MX", Local: true},
		Voice{Name: "Diego", Locale: "es-AR", Local: true},
	)

	voices := VoicesForLanguage(context.Background(), engine, config.Spanish, time.Second, time.Millisecond)

	names := make([]string, 0, len(voices))
	for _, v := range voices {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{
		"Microsoft Elvira Online (Natural)",
		"Google español",
		"Jorge Natural",
		"Diego",
		"Monica",
	}, names)
	assert.Equal(t, "es-ES", voices[4].Locale, "underscores are normalised")
}

func TestDefaultVoice(t *testing.T) {
	engine := NewMockEngine(Voice{Name: "Thomas", Locale: "fr-FR", Local: true})

	assert.Equal(t, "Thomas", DefaultVoice(context.Background(), engine, config.French, time.Second, time.Millisecond))
	assert.Empty(t, DefaultVoice(context.Background(), engine, config.German, 10*time.Millisecond, time.Millisecond))
}

func TestParseESpeakVoices(t *testing.T) {
	out := `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  es              --/M      Spanish_(Spain)    roa/es
 5  es-419          --/M      Spanish_(Latin_America) roa/es-419   (es-mx 6)

`
	voices := parseESpeakVoices(out)

	assert.Equal(t, []Voice{
		{Name: "Spanish_(Spain)", Locale: "es", Local: true},
		{Name: "Spanish_(Latin_America)", Locale: "es-419", Local: true},
	}, voices)
}

func TestSnapToWord(t *testing.T) {
	starts := wordStarts("uno dos  tres")

	assert.Equal(t, []int{0, 4, 9}, starts)
	assert.Equal(t, 0, snapToWord(starts, 3))
	assert.Equal(t, 4, snapToWord(starts, 8))
	assert.Equal(t, 9, snapToWord(starts, 40))
}
