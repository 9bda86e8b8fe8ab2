package config

import "strings"

// Language is a language the learner can read or speak.
type Language string

const (
	English    Language = "English"
	Spanish    Language = "Spanish"
	French     Language = "French"
	German     Language = "German"
	Italian    Language = "Italian"
	Portuguese Language = "Portuguese"
	Japanese   Language = "Japanese"
	Chinese    Language = "Chinese (Mandarin)"
)

// Level is a CEFR-style proficiency level.
type Level string

const (
	AbsoluteBeginner Level = "Absolute Beginner"
	A1               Level = "A1 (Beginner)"
	A2               Level = "A2 (Elementary)"
	B1               Level = "B1 (Intermediate)"
	B2               Level = "B2 (Upper Intermediate)"
	C1               Level = "C1 (Advanced)"
)

// Topic is an interest area used to seed proposals.
type Topic string

const (
	Travel     Topic = "Travel"
	Science    Topic = "Science"
	Food       Topic = "Food"
	Sports     Topic = "Sports / Fitness"
	History    Topic = "History"
	Nature     Topic = "Nature"
	Music      Topic = "Music"
	Culture    Topic = "Culture"
	TrueCrime  Topic = "True Crime"
	Fashion    Topic = "Fashion"
	Psychology Topic = "Psychology"
	Economics  Topic = "Economics / Entrepreneurship"
)

var (
	AllLanguages = []Language{English, Spanish, French, German, Italian, Portuguese, Japanese, Chinese}
	AllLevels    = []Level{AbsoluteBeginner, A1, A2, B1, B2, C1}
	AllTopics    = []Topic{Travel, Science, Food, Sports, History, Nature, Music, Culture, TrueCrime, Fashion, Psychology, Economics}
)

var levelDescriptions = map[Level]string{
	AbsoluteBeginner: "Use only the most basic 20-50 words and simple 'Subject-Verb-Object' sentences in the present tense. Avoid complex grammar entirely.",
	A1:               "Focus on present tense, basic adjectives, and common nouns related to daily life. Use short, simple sentences.",
	A2:               "Continue with simple sentences but introduce the simple past tense (e.g., 'I went', 'she saw'). Expand vocabulary to common situations.",
	B1:               "Introduce past and future tenses, more complex sentences with conjunctions like 'because', 'so', 'but', and a wider range of everyday vocabulary.",
	B2:               "Use a mix of tenses including perfect and conditional. Introduce more nuanced vocabulary and some common idiomatic expressions. Sentences can be longer and more complex.",
	C1:               "Use advanced and nuanced vocabulary, complex grammatical structures, idiomatic expressions, and a formal or informal tone as appropriate for the topic. Assume a high level of comprehension.",
}

var levelWordCounts = map[Level]int{
	AbsoluteBeginner: 50,
	A1:               80,
	A2:               150,
	B1:               250,
	B2:               350,
	C1:               450,
}

var levelSpeeds = map[Level]float64{
	AbsoluteBeginner: 0.6,
	A1:               0.7,
	A2:               0.8,
	B1:               0.9,
	B2:               1.0,
	C1:               1.1,
}

var locales = map[Language]string{
	English:    "en-US",
	Spanish:    "es-ES",
	French:     "fr-FR",
	German:     "de-DE",
	Italian:    "it-IT",
	Portuguese: "pt-PT",
	Japanese:   "ja-JP",
	Chinese:    "zh-CN",
}

var sampleSentences = map[Language]string{
	English:    "Welcome to LingoBlitz! This is how I sound.",
	Spanish:    "¡Bienvenido a LingoBlitz! Así es como sueno.",
	French:     "Bienvenue à LingoBlitz! Voici comment je sonne.",
	German:     "Willkommen bei LingoBlitz! So klinge ich.",
	Italian:    "Benvenuto a LingoBlitz! Ecco come suono.",
	Portuguese: "Bem-vindo ao LingoBlitz! É assim que eu soo.",
	Japanese:   "LingoBlitzへようこそ！これが私の声です。",
	Chinese:    "欢迎来到LingoBlitz！这就是我的声音。",
}

// Description returns the prompt guidance for the level, falling back to B1.
func (l Level) Description() string {
	if d, ok := levelDescriptions[l]; ok {
		return d
	}
	return levelDescriptions[B1]
}

// WordCount is the target article length for the level.
func (l Level) WordCount() int {
	if n, ok := levelWordCounts[l]; ok {
		return n
	}
	return 100
}

// DefaultSpeed is the suggested narration rate for the level.
func (l Level) DefaultSpeed() float64 {
	if s, ok := levelSpeeds[l]; ok {
		return s
	}
	return DefaultSpeed
}

// Locale returns the BCP-47 tag used for speech, defaulting to en-US.
func (l Language) Locale() string {
	if loc, ok := locales[l]; ok {
		return loc
	}
	return "en-US"
}

// SampleSentence is a short greeting used to preview a voice.
func (l Language) SampleSentence() string {
	return sampleSentences[l]
}

// IsCJK reports whether words in the language are not space separated.
func (l Language) IsCJK() bool {
	return l == Japanese || l == Chinese
}

// ParseLanguage matches a language by name or locale prefix, case-insensitively.
func ParseLanguage(s string) (Language, bool) {
	for _, l := range AllLanguages {
		if strings.EqualFold(string(l), s) || strings.EqualFold(l.Locale(), s) || strings.EqualFold(l.Locale()[:2], s) {
			return l, true
		}
	}
	return "", false
}
