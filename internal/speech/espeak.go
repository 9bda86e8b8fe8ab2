package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// espeakBaseWPM is eSpeak's default speaking rate.
const espeakBaseWPM = 175

// ESpeakEngine speaks through the espeak-ng (or espeak) command line tool.
// The CLI reports no positions, so word boundaries are estimated from the
// configured words-per-minute.
type ESpeakEngine struct {
	path   string
	volume float64

	mutex   sync.Mutex
	cmd     *exec.Cmd
	stop    chan struct{}
	playing bool
}

// newESpeakEngine creates a new eSpeak TTS engine
func newESpeakEngine(config Config) (*ESpeakEngine, error) {
	espeakPath, err := findESpeakExecutable()
	if err != nil {
		return nil, fmt.Errorf("eSpeak not found: %w", err)
	}

	if err := exec.Command(espeakPath, "--version").Run(); err != nil {
		return nil, fmt.Errorf("eSpeak test failed: %w", err)
	}

	volume := config.Volume
	if volume <= 0 {
		volume = 1.0
	}
	return &ESpeakEngine{path: espeakPath, volume: volume}, nil
}

func findESpeakExecutable() (string, error) {
	for _, candidate := range []string{"espeak-ng", "espeak"} {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("eSpeak executable not found in PATH")
}

func (e *ESpeakEngine) Speak(req Request, sink func(Event)) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.cancelLocked()

	args := []string{}
	switch {
	case req.Voice != "" && req.Voice != "default":
		args = append(args, "-v", req.Voice)
	case req.Locale != "":
		args = append(args, "-v", strings.ToLower(strings.SplitN(req.Locale, "-", 2)[0]))
	}

	rate := req.Rate
	if rate <= 0 {
		rate = 1.0
	}
	wpm := int(espeakBaseWPM * rate)
	args = append(args, "-s", strconv.Itoa(wpm))
	args = append(args, "-a", strconv.Itoa(int(100*e.volume)))
	args = append(args, req.Text)

	cmd := exec.Command(e.path, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting eSpeak: %w", err)
	}

	stop := make(chan struct{})
	e.cmd = cmd
	e.stop = stop
	e.playing = true

	go estimateBoundaries(req.Text, wpm, stop, sink)
	go func() {
		err := cmd.Wait()

		e.mutex.Lock()
		current := e.cmd == cmd
		if current {
			e.playing = false
			e.cmd = nil
			close(e.stop)
			e.stop = nil
		}
		e.mutex.Unlock()

		if !current {
			// Killed by Cancel or replaced by a newer utterance.
			return
		}
		if err != nil {
			sink(Event{Kind: EventError, Err: fmt.Errorf("eSpeak: %w", err)})
			return
		}
		sink(Event{Kind: EventEnd})
	}()

	return nil
}

func (e *ESpeakEngine) Cancel() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.cancelLocked()
}

func (e *ESpeakEngine) cancelLocked() error {
	if e.cmd == nil {
		return nil
	}
	cmd := e.cmd
	close(e.stop)
	e.cmd = nil
	e.stop = nil
	e.playing = false

	if cmd.Process != nil {
		if err := cmd.Process.Kill(); err != nil {
			return err
		}
	}
	return nil
}

func (e *ESpeakEngine) Speaking() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.playing
}

func (e *ESpeakEngine) Voices(ctx context.Context) ([]Voice, error) {
	output, err := exec.CommandContext(ctx, e.path, "--voices").Output()
	if err != nil {
		return nil, err
	}
	return parseESpeakVoices(string(output)), nil
}

func parseESpeakVoices(output string) []Voice {
	lines := strings.Split(output, "\n")
	voices := make([]Voice, 0, len(lines))

	for i, line := range lines {
		// Skip header line
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}

		// Pty Language Age/Gender VoiceName File Other Languages
		fields := strings.Fields(line)
		if len(fields) >= 4 {
			voices = append(voices, Voice{Name: fields[3], Locale: fields[1], Local: true})
		}
	}

	return voices
}

// estimateBoundaries emits a boundary at each word start on a wpm schedule
// until stop closes.
func estimateBoundaries(text string, wpm int, stop <-chan struct{}, sink func(Event)) {
	if wpm <= 0 {
		return
	}
	perWord := time.Minute / time.Duration(wpm)

	offset := 0
	for _, field := range strings.SplitAfter(text, " ") {
		select {
		case <-stop:
			return
		default:
		}
		sink(Event{Kind: EventBoundary, CharIndex: offset})
		offset += utf8.RuneCountInString(field)

		select {
		case <-stop:
			return
		case <-time.After(perWord):
		}
	}
}
