package speech

import (
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/sirupsen/logrus"
	texttospeechpb "google.golang.org/genproto/googleapis/cloud/texttospeech/v1"
)

const (
	googleSampleRate   = beep.SampleRate(24000)
	googleProgressTick = 250 * time.Millisecond
)

// GoogleEngine synthesises MP3 with Google Cloud Text-to-Speech, caches it on
// disk by content hash and plays it through the beep speaker. Boundaries are
// derived from the playback position as a fraction of the text.
type GoogleEngine struct {
	client   *texttospeech.Client
	cacheDir string

	initOnce sync.Once
	initErr  error

	mu       sync.Mutex
	playing  bool
	current  *googlePlayback
	sequence uint64
}

type googlePlayback struct {
	seq      uint64
	stop     chan struct{}
	streamer beep.StreamSeekCloser
}

func newGoogleEngine(cacheDir string) (*GoogleEngine, error) {
	client, err := texttospeech.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to create TTS client: %w", err)
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	return &GoogleEngine{client: client, cacheDir: cacheDir}, nil
}

func (g *GoogleEngine) Voices(ctx context.Context) ([]Voice, error) {
	resp, err := g.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{})
	if err != nil {
		return nil, err
	}
	voices := make([]Voice, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		locale := ""
		if len(v.LanguageCodes) > 0 {
			locale = v.LanguageCodes[0]
		}
		voices = append(voices, Voice{Name: v.Name, Locale: locale})
	}
	return voices, nil
}

// Speak returns immediately; synthesis and playback continue in the background.
func (g *GoogleEngine) Speak(req Request, sink func(Event)) error {
	g.mu.Lock()
	g.cancelLocked()
	g.sequence++
	p := &googlePlayback{seq: g.sequence, stop: make(chan struct{})}
	g.current = p
	g.playing = true
	g.mu.Unlock()

	go g.run(p, req, sink)
	return nil
}

func (g *GoogleEngine) Cancel() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelLocked()
	return nil
}

func (g *GoogleEngine) cancelLocked() {
	if g.current == nil {
		return
	}
	close(g.current.stop)
	speaker.Clear()
	if g.current.streamer != nil {
		g.current.streamer.Close()
	}
	g.current = nil
	g.playing = false
}

func (g *GoogleEngine) Speaking() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playing
}

func (g *GoogleEngine) run(p *googlePlayback, req Request, sink func(Event)) {
	path, err := g.synthesize(req)
	if err != nil {
		g.finish(p, sink, err)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		g.finish(p, sink, fmt.Errorf("failed to open cached MP3 %s: %w", path, err))
		return
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		g.finish(p, sink, fmt.Errorf("failed to decode MP3 %s: %w", path, err))
		return
	}

	g.initOnce.Do(func() {
		g.initErr = speaker.Init(googleSampleRate, googleSampleRate.N(time.Second/10))
	})
	if g.initErr != nil {
		streamer.Close()
		g.finish(p, sink, g.initErr)
		return
	}

	g.mu.Lock()
	if g.current != p {
		g.mu.Unlock()
		streamer.Close()
		return
	}
	p.streamer = streamer
	g.mu.Unlock()

	done := make(chan struct{})
	var source beep.Streamer = streamer
	if format.SampleRate != googleSampleRate {
		source = beep.Resample(4, format.SampleRate, googleSampleRate, streamer)
	}
	speaker.Play(beep.Seq(source, beep.Callback(func() { close(done) })))

	g.track(p, req.Text, streamer, done, sink)
}

// track turns the stream position into boundary events until playback ends.
func (g *GoogleEngine) track(p *googlePlayback, text string, s beep.StreamSeeker, done <-chan struct{}, sink func(Event)) {
	total := utf8.RuneCountInString(text)
	starts := wordStarts(text)
	ticker := time.NewTicker(googleProgressTick)
	defer ticker.Stop()

	last := -1
	for {
		select {
		case <-p.stop:
			return
		case <-done:
			g.finish(p, sink, nil)
			return
		case <-ticker.C:
			speaker.Lock()
			pos, length := s.Position(), s.Len()
			speaker.Unlock()
			if length == 0 {
				continue
			}
			idx := snapToWord(starts, total*pos/length)
			if idx > last {
				last = idx
				sink(Event{Kind: EventBoundary, CharIndex: idx})
			}
		}
	}
}

func (g *GoogleEngine) finish(p *googlePlayback, sink func(Event), err error) {
	g.mu.Lock()
	current := g.current == p
	if current {
		g.current = nil
		g.playing = false
		if p.streamer != nil {
			p.streamer.Close()
		}
	}
	g.mu.Unlock()

	if !current {
		return
	}
	if err != nil {
		sink(Event{Kind: EventError, Err: err})
		return
	}
	sink(Event{Kind: EventEnd})
}

// synthesize returns the path of the cached MP3 for req, generating it first
// if needed.
func (g *GoogleEngine) synthesize(req Request) (string, error) {
	locale := req.Locale
	if locale == "" {
		locale = "en-US"
	}
	contentHash := fmt.Sprintf("%x", md5.Sum([]byte(req.Text+req.Voice+fmt.Sprint(req.Rate))))[:12]
	path := filepath.Join(g.cacheDir, locale, contentHash+".mp3")

	if _, err := os.Stat(path); err == nil {
		logrus.WithField("file", path).Debug("using cached audio")
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory %s: %w", filepath.Dir(path), err)
	}

	audioCfg := &texttospeechpb.AudioConfig{
		AudioEncoding:   texttospeechpb.AudioEncoding_MP3,
		SampleRateHertz: int32(googleSampleRate),
	}
	// Chirp voices reject speakingRate.
	if !strings.Contains(strings.ToLower(req.Voice), "chirp") && req.Rate > 0 {
		audioCfg.SpeakingRate = req.Rate
	}

	voice := &texttospeechpb.VoiceSelectionParams{LanguageCode: locale}
	if req.Voice != "" {
		voice.Name = req.Voice
	}

	resp, err := g.client.SynthesizeSpeech(context.Background(), &texttospeechpb.SynthesizeSpeechRequest{
		Input:       &texttospeechpb.SynthesisInput{InputSource: &texttospeechpb.SynthesisInput_Text{Text: req.Text}},
		Voice:       voice,
		AudioConfig: audioCfg,
	})
	if err != nil {
		return "", fmt.Errorf("failed to synthesize speech: %w", err)
	}

	if err := os.WriteFile(path, resp.AudioContent, 0644); err != nil {
		return "", fmt.Errorf("failed to write MP3 to %s: %w", path, err)
	}
	logrus.WithFields(logrus.Fields{"file": path, "bytes": len(resp.AudioContent)}).Debug("cached synthesized audio")
	return path, nil
}

// wordStarts lists the rune offsets at which words begin.
func wordStarts(text string) []int {
	var starts []int
	inWord := false
	i := 0
	for _, r := range text {
		space := r == ' ' || r == '\n' || r == '\t'
		if !space && !inWord {
			starts = append(starts, i)
		}
		inWord = !space
		i++
	}
	return starts
}

// snapToWord returns the last word start at or before idx.
func snapToWord(starts []int, idx int) int {
	best := 0
	for _, s := range starts {
		if s > idx {
			break
		}
		best = s
	}
	return best
}
