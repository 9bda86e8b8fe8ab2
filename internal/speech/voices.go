package speech

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"lingoblitz/internal/config"
)

// WaitForVoices polls the engine until it reports at least one voice or the
// wait window closes. Some platforms populate their voice list late, so an
// empty first answer is not final. On timeout it returns an empty list, never
// an error.
func WaitForVoices(ctx context.Context, engine Engine, wait, poll time.Duration) []Voice {
	if poll <= 0 {
		poll = 200 * time.Millisecond
	}

	voices, err := engine.Voices(ctx)
	if err == nil && len(voices) > 0 {
		return voices
	}

	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return []Voice{}
		case <-deadline.C:
			voices, _ = engine.Voices(ctx)
			if voices == nil {
				voices = []Voice{}
			}
			return voices
		case <-ticker.C:
			voices, err = engine.Voices(ctx)
			if err != nil {
				logrus.WithError(err).Debug("voice listing failed, retrying")
				continue
			}
			if len(voices) > 0 {
				return voices
			}
		}
	}
}

// VoicesForLanguage returns the voices matching the language's locale prefix,
// best first: Microsoft, then Google, then natural/network voices, then by name.
func VoicesForLanguage(ctx context.Context, engine Engine, lang config.Language, wait, poll time.Duration) []Voice {
	code := strings.ToLower(strings.SplitN(lang.Locale(), "-", 2)[0])

	var matched []Voice
	for _, v := range WaitForVoices(ctx, engine, wait, poll) {
		if strings.HasPrefix(strings.ToLower(v.Locale), code) {
			v.Locale = strings.ReplaceAll(v.Locale, "_", "-")
			matched = append(matched, v)
		}
	}
	rankVoices(matched)
	return matched
}

// DefaultVoice picks the best voice for the language, or "" when the
// platform has none. A missing voice is not an error: narration is optional.
func DefaultVoice(ctx context.Context, engine Engine, lang config.Language, wait, poll time.Duration) string {
	voices := VoicesForLanguage(ctx, engine, lang, wait, poll)
	if len(voices) == 0 {
		return ""
	}
	return voices[0].Name
}

func rankVoices(voices []Voice) {
	sort.SliceStable(voices, func(i, j int) bool {
		a, b := strings.ToLower(voices[i].Name), strings.ToLower(voices[j].Name)
		if ra, rb := voiceRank(a, voices[i]), voiceRank(b, voices[j]); ra != rb {
			return ra < rb
		}
		return a < b
	})
}

func voiceRank(name string, v Voice) int {
	switch {
	case strings.Contains(name, "microsoft"):
		return 0
	case strings.Contains(name, "google"), strings.Contains(name, "chrome"):
		return 1
	case strings.Contains(name, "natural"), !v.Local:
		return 2
	default:
		return 3
	}
}
