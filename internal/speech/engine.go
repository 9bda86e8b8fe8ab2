package speech

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/viper"
)

// EngineType names an engine implementation.
type EngineType string

const (
	EngineTypeMock   EngineType = "mock"
	EngineTypeESpeak EngineType = "espeak"
	EngineTypeGoogle EngineType = "google"
	EngineTypeAuto   EngineType = "auto" // Automatically choose best for platform
)

func (e EngineType) String() string {
	return string(e)
}

// Config selects and tunes an engine.
type Config struct {
	Type      string
	Volume    float64
	CachePath string
}

// ConfigFromViper reads the tts.* keys.
func ConfigFromViper() Config {
	return Config{
		Type:      viper.GetString("tts.type"),
		Volume:    viper.GetFloat64("tts.volume"),
		CachePath: viper.GetString("tts.cache_path"),
	}
}

// NewEngine creates the engine named by config.Type.
func NewEngine(config Config) (Engine, error) {
	if config.Type == "" || config.Type == EngineTypeAuto.String() {
		t, err := bestEngineForPlatform()
		if err != nil {
			return nil, err
		}
		config.Type = t.String()
	}

	switch config.Type {
	case EngineTypeMock.String():
		m := NewMockEngine(Voice{Name: "mock-voice", Locale: "en-US", Local: true})
		m.Simulate = true
		return m, nil

	case EngineTypeGoogle.String():
		return newGoogleEngine(config.CachePath)

	case EngineTypeESpeak.String():
		return newESpeakEngine(config)

	default:
		return nil, fmt.Errorf("unsupported TTS engine type: %s", config.Type)
	}
}

// bestEngineForPlatform prefers Google when credentials exist, then eSpeak.
func bestEngineForPlatform() (EngineType, error) {
	if hasGoogleCredentials() {
		return EngineTypeGoogle, nil
	}
	if _, err := findESpeakExecutable(); err == nil {
		return EngineTypeESpeak, nil
	}
	return "", ErrNoEngine
}

// AvailableEngines returns engines usable on the current machine.
func AvailableEngines() []EngineType {
	engines := []EngineType{EngineTypeMock}
	if _, err := exec.LookPath("espeak-ng"); err == nil {
		engines = append(engines, EngineTypeESpeak)
	} else if _, err := exec.LookPath("espeak"); err == nil {
		engines = append(engines, EngineTypeESpeak)
	}
	if hasGoogleCredentials() {
		engines = append(engines, EngineTypeGoogle)
	}
	return engines
}

// hasGoogleCredentials checks if Google Cloud credentials are available
func hasGoogleCredentials() bool {
	_, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS")
	return ok
}
