package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingoblitz/internal/article"
	"lingoblitz/internal/config"
	"lingoblitz/internal/llm"
	"lingoblitz/internal/speech"
	"lingoblitz/internal/store"
)

func init() {
	color.NoColor = true
}

func noShuffle(int, func(i, j int)) {}

type harness struct {
	app    *App
	svc    *llm.MockService
	engine *speech.MockEngine
	store  *store.Store
	out    *bytes.Buffer
}

func newHarness(t *testing.T, svc *llm.MockService, st *store.Store, script ...string) *harness {
	t.Helper()
	if st == nil {
		var err error
		st, err = store.Open(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
	}
	logger, _ := test.NewNullLogger()
	h := &harness{
		svc:    svc,
		engine: speech.NewMockEngine(speech.Voice{Name: "Mónica", Locale: "es-ES"}),
		store:  st,
		out:    &bytes.Buffer{},
	}
	h.app = New(Deps{
		Service: svc,
		Store:   st,
		Engine:  h.engine,
		In:      strings.NewReader(strings.Join(script, "\n") + "\n"),
		Out:     h.out,
		Log:     logrus.NewEntry(logger),
		Shuffle: noShuffle,
	}, Options{VoiceWait: 10 * time.Millisecond, VoicePoll: time.Millisecond})
	t.Cleanup(h.app.Close)
	return h
}

var onboarding = []string{
	"English", // native
	"es",      // learning
	"3",       // level A2
	"1,3",     // Travel, Food
	"n",       // auto read
	"",        // voice
	"",        // speed
}

func TestFullRound(t *testing.T) {
	script := append(append([]string{}, onboarding...),
		"1",     // pick Topic 1
		"p",     // narrate
		"index", // list words
		"w 2",   // tap "hablamos"
		"words", // captured vocabulary
		"t",     // quiz
		"Habla de un tema",
		"v", // practise
		"f", // flip
		"k", // known: deck done, next round
		"q",
	)
	h := newHarness(t, llm.NewMockService(), nil, script...)

	require.NoError(t, h.app.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "Welcome to LingoBlitz")
	assert.Contains(t, out, "1. Topic 1")
	assert.Contains(t, out, "Hoy hablamos de topic 1. Es un tema muy interesante.")
	assert.Contains(t, out, "2:hablamos")
	assert.Contains(t, out, "hablamos → [hablamos]")
	assert.Contains(t, out, "¿De qué trata el artículo?")
	assert.Contains(t, out, "¡Correcto!")
	assert.Contains(t, out, "[1/1] hablamos")
	assert.Contains(t, out, "All 1 words practised")
	assert.Contains(t, out, "Hasta luego")

	reqs := h.engine.Requests()
	require.NotEmpty(t, reqs)
	assert.Equal(t, "Topic 1. Hoy hablamos de topic 1. Es un tema muy interesante. ", reqs[0].Text)
	assert.Equal(t, "Mónica", reqs[0].Voice)
	assert.Equal(t, "es-ES", reqs[0].Locale)
	assert.InDelta(t, config.A2.DefaultSpeed(), reqs[0].Rate, 1e-9)
	assert.GreaterOrEqual(t, h.engine.Cancels(), 1, "tapping a word interrupts narration")

	saved, err := h.store.LoadSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.Spanish, saved.LearningLanguage)
	assert.Equal(t, config.A2, saved.Level)
	assert.Equal(t, []config.Topic{config.Travel, config.Food}, saved.Interests)
	assert.Equal(t, []string{"Topic 1"}, saved.CompletedTopics)
}

func TestFailedArticleCanBeSkipped(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.SaveSettings(context.Background(), config.Normalize(config.Settings{LearningLanguage: config.Spanish})))

	svc := llm.NewMockService()
	svc.ArticleFunc = func(context.Context, string, config.Settings) (article.Stream, error) {
		return nil, errors.New("backend down")
	}
	h := newHarness(t, svc, st, "1", "t", "n", "q")

	require.NoError(t, h.app.Run(context.Background()))

	out := h.out.String()
	assert.NotContains(t, out, "Welcome to LingoBlitz", "saved settings skip onboarding")
	assert.Contains(t, out, article.ErrorArticle.Content)
	assert.Contains(t, out, "no quiz for this round")
	assert.Equal(t, 2, strings.Count(out, "What shall we blitz next?"))

	saved, err := st.LoadSettings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, saved.CompletedTopics)
}

func TestSettingsKeepCompletedTopics(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.SaveSettings(context.Background(), config.Normalize(config.Settings{
		LearningLanguage: config.Spanish,
		CompletedTopics:  []string{"Tapas"},
	})))

	h := newHarness(t, llm.NewMockService(), st,
		"settings", "", "French", "", "", "y", "", "1.2",
		"q",
	)
	require.NoError(t, h.app.Run(context.Background()))

	saved, err := st.LoadSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, config.French, saved.LearningLanguage)
	assert.True(t, saved.TTS.AutoRead)
	assert.InDelta(t, 1.2, saved.TTS.Speed, 1e-9)
	assert.Equal(t, []string{"Tapas"}, saved.CompletedTopics)
	assert.Contains(t, h.out.String(), "No French voices installed")
}

func TestEndOfInputQuits(t *testing.T) {
	h := newHarness(t, llm.NewMockService(), nil, "English")
	require.NoError(t, h.app.Run(context.Background()))
	assert.Equal(t, 0, h.svc.CallCount("proposals"))
}
