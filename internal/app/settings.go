package app

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"lingoblitz/internal/cli/scheme/colours"
	"lingoblitz/internal/config"
	"lingoblitz/internal/session"
	"lingoblitz/internal/speech"
)

func (a *App) editSettings(ctx context.Context, snap session.Snapshot) error {
	settings, ok := a.askSettings(ctx, snap.Settings, false)
	if !ok {
		return nil
	}
	if err := a.session.UpdateSettings(ctx, settings); err != nil {
		return err
	}
	a.println(colours.Success, "✅ Settings saved")
	return nil
}

// askSettings walks through the profile questions. A blank answer keeps the
// current value. It reports false when the input ends.
func (a *App) askSettings(ctx context.Context, cur config.Settings, onboarding bool) (config.Settings, bool) {
	s := cur
	var ok bool

	if s.NativeLanguage, ok = a.askLanguage("🏠 Your language", cur.NativeLanguage); !ok {
		return cur, false
	}
	if s.LearningLanguage, ok = a.askLanguage("🌍 Language to learn", cur.LearningLanguage); !ok {
		return cur, false
	}
	if s.Level, ok = a.askLevel(cur.Level); !ok {
		return cur, false
	}
	if s.Interests, ok = a.askInterests(cur.Interests); !ok {
		return cur, false
	}

	line, ok := a.readLine(fmt.Sprintf("🔊 Read words aloud when tapped? (y/n) [%s]: ", yesNo(cur.TTS.AutoRead)))
	if !ok {
		return cur, false
	}
	if line != "" {
		s.TTS.AutoRead = strings.HasPrefix(strings.ToLower(line), "y")
	}

	if s.TTS.Voice, ok = a.askVoice(ctx, s.LearningLanguage, cur.TTS.Voice); !ok {
		return cur, false
	}

	speed := cur.TTS.Speed
	if onboarding || s.Level != cur.Level {
		speed = s.Level.DefaultSpeed()
	}
	line, ok = a.readLine(fmt.Sprintf("⏩ Speaking speed [%.1f]: ", speed))
	if !ok {
		return cur, false
	}
	if f, err := strconv.ParseFloat(line, 64); err == nil && f > 0 {
		speed = f
	}
	s.TTS.Speed = speed

	return config.Normalize(s), true
}

func (a *App) askLanguage(label string, cur config.Language) (config.Language, bool) {
	names := make([]string, len(config.AllLanguages))
	for i, l := range config.AllLanguages {
		names[i] = string(l)
	}
	a.println(colours.Muted, "   %s", strings.Join(names, ", "))
	for {
		line, ok := a.readLine(fmt.Sprintf("%s [%s]: ", label, cur))
		if !ok {
			return cur, false
		}
		if line == "" {
			return cur, true
		}
		if l, found := config.ParseLanguage(line); found {
			return l, true
		}
		a.println(colours.Error, "❌ Unknown language %q", line)
	}
}

func (a *App) askLevel(cur config.Level) (config.Level, bool) {
	for i, l := range config.AllLevels {
		a.println(colours.Muted, "   %d. %s", i+1, l)
	}
	for {
		line, ok := a.readLine(fmt.Sprintf("📈 Your level [%s]: ", cur))
		if !ok {
			return cur, false
		}
		if line == "" {
			return cur, true
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(config.AllLevels) {
			return config.AllLevels[n-1], true
		}
		a.println(colours.Error, "❌ Choose between 1 and %d.", len(config.AllLevels))
	}
}

func (a *App) askInterests(cur []config.Topic) ([]config.Topic, bool) {
	for i, t := range config.AllTopics {
		a.println(colours.Muted, "   %d. %s", i+1, t)
	}
	names := make([]string, len(cur))
	for i, t := range cur {
		names[i] = string(t)
	}
	line, ok := a.readLine(fmt.Sprintf("💡 Interests, comma separated numbers [%s]: ", strings.Join(names, ", ")))
	if !ok {
		return cur, false
	}
	if line == "" {
		return cur, true
	}

	var out []config.Topic
	for _, f := range strings.Split(line, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n < 1 || n > len(config.AllTopics) {
			continue
		}
		t := config.AllTopics[n-1]
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out, true
}

func (a *App) askVoice(ctx context.Context, lang config.Language, cur string) (string, bool) {
	voices := speech.VoicesForLanguage(ctx, a.arb.Engine(), lang, a.opts.VoiceWait, a.opts.VoicePoll)
	if len(voices) == 0 {
		a.println(colours.Muted, "   No %s voices installed, narration will use the default voice.", lang)
	}
	for i, v := range voices {
		a.println(colours.Muted, "   %d. %s", i+1, v.DisplayName())
	}
	label := cur
	if label == "" {
		label = "automatic"
	}
	line, ok := a.readLine(fmt.Sprintf("🎤 Voice [%s]: ", label))
	if !ok {
		return cur, false
	}
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(voices) {
		return voices[n-1].Name, true
	}
	if line == "auto" {
		return "", true
	}
	return cur, true
}

func yesNo(b bool) string {
	if b {
		return "y"
	}
	return "n"
}
