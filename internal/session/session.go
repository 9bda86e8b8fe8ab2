// Package session sequences a learner's rounds: onboarding, topic proposals,
// article generation, then quiz and vocabulary practice.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"lingoblitz/internal/article"
	"lingoblitz/internal/config"
	"lingoblitz/internal/llm"
	"lingoblitz/internal/proposal"
	"lingoblitz/internal/store"
	"lingoblitz/internal/vocab"
)

// SettingsStore persists the learner's settings.
type SettingsStore interface {
	LoadSettings(ctx context.Context) (config.Settings, error)
	SaveSettings(ctx context.Context, s config.Settings) error
}

// PopupCloser dismisses the translation popup when a round starts.
type PopupCloser interface {
	Dismiss()
}

// Deps are the collaborators of a Session.
type Deps struct {
	Service llm.Service
	Store   SettingsStore
	// Vocab is the round's captured vocabulary, shared with the word-tap
	// coordinator that fills it.
	Vocab  *vocab.Set
	Popups PopupCloser
	// Shuffle orders proposals and flashcards; nil means random.
	Shuffle func(n int, swap func(i, j int))
	Log     *logrus.Entry
	// OnSettings runs after the settings change, e.g. to update the
	// coordinator's languages.
	OnSettings func(config.Settings)
}

// Actions are the choices offered after an article.
type Actions struct {
	CanTakeQuiz           bool
	CanPracticeVocabulary bool
	// ShowContinue is true once something in the round is finished.
	ShowContinue bool
	// CanContinue additionally requires the next proposals.
	CanContinue bool
}

// Snapshot is an immutable view of the session.
type Snapshot struct {
	State          State
	Round          uint64
	Settings       config.Settings
	Proposals      []string
	Topic          string
	Article        article.Article
	Failed         bool
	Question       string
	Feedback       string
	QuizReady      bool
	ProposalsReady bool
	QuizDone       bool
	VocabDone      bool
	Vocabulary     []vocab.Item
	Actions        Actions
}

// Session is the top-level state machine. Every method is safe for
// concurrent use; background results are applied under the same lock and
// dropped when they belong to an earlier round.
type Session struct {
	svc     llm.Service
	store   SettingsStore
	vocab   *vocab.Set
	popups  PopupCloser
	rotator *proposal.Rotator
	shuffle func(n int, swap func(i, j int))
	log     *logrus.Entry
	onSet   func(config.Settings)

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bg       sync.WaitGroup

	mu             sync.Mutex
	state          State
	round          uint64
	settings       config.Settings
	proposals      []string
	topic          string
	article        article.Article
	failed         bool
	question       string
	feedback       string
	quizReady      bool
	proposalsReady bool
	quizDone       bool
	vocabDone      bool
	deck           *vocab.Deck
	subs           map[chan Snapshot]struct{}
}

// New creates a session in Onboarding.
func New(d Deps) *Session {
	log := d.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	set := d.Vocab
	if set == nil {
		set = vocab.NewSet()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		svc:      d.Service,
		store:    d.Store,
		vocab:    set,
		popups:   d.Popups,
		shuffle:  d.Shuffle,
		log:      log.WithField("session_id", uuid.NewString()),
		onSet:    d.OnSettings,
		bgCtx:    ctx,
		bgCancel: cancel,
		state:    Onboarding,
		settings: config.Normalize(config.Settings{}),
		subs:     make(map[chan Snapshot]struct{}),
	}

	var opts []proposal.Option
	if d.Shuffle != nil {
		opts = append(opts, proposal.WithShuffle(d.Shuffle))
	}
	s.rotator = proposal.NewRotator(proposal.GeneratorFunc(s.generateProposals), opts...)
	return s
}

// Close stops background work and closes subscriber channels.
func (s *Session) Close() {
	s.bgCancel()
	s.bg.Wait()

	s.mu.Lock()
	for ch := range s.subs {
		close(ch)
	}
	s.subs = map[chan Snapshot]struct{}{}
	s.mu.Unlock()
}

// Wait blocks until background quiz and proposal tasks have finished.
func (s *Session) Wait() {
	s.bg.Wait()
}

// Restore loads saved settings and, if there are any, skips onboarding.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	s.mu.Lock()
	if s.state != Onboarding {
		s.mu.Unlock()
		return false, invalid("restore", s.state)
	}
	s.applySettingsLocked(settings)
	s.mu.Unlock()
	s.notifySettings(settings)

	s.log.WithField("learning", settings.LearningLanguage).Info("restored settings")
	return true, s.fetchInitialProposals(ctx)
}

// CompleteOnboarding saves the first settings and fetches proposals.
func (s *Session) CompleteOnboarding(ctx context.Context, settings config.Settings) error {
	s.mu.Lock()
	if s.state != Onboarding {
		s.mu.Unlock()
		return invalid("complete onboarding", s.state)
	}
	settings.CompletedTopics = []string{}
	settings = config.Normalize(settings)
	s.mu.Unlock()

	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return err
	}

	s.mu.Lock()
	s.applySettingsLocked(settings)
	s.mu.Unlock()
	s.notifySettings(settings)
	return s.fetchInitialProposals(ctx)
}

// UpdateSettings replaces the settings, keeping the completed topics, clears
// the current article and fetches fresh proposals.
func (s *Session) UpdateSettings(ctx context.Context, settings config.Settings) error {
	s.mu.Lock()
	if s.state == Onboarding {
		s.mu.Unlock()
		return invalid("update settings", s.state)
	}
	settings.CompletedTopics = s.settings.CompletedTopics
	settings = config.Normalize(settings)
	s.mu.Unlock()

	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return err
	}

	s.mu.Lock()
	s.round++
	s.resetRoundLocked()
	s.applySettingsLocked(settings)
	s.mu.Unlock()
	s.notifySettings(settings)
	if s.popups != nil {
		s.popups.Dismiss()
	}
	return s.fetchInitialProposals(ctx)
}

// RequestNewProposals replaces the offered topics.
func (s *Session) RequestNewProposals(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Ready {
		s.mu.Unlock()
		return invalid("request proposals", s.state)
	}
	s.mu.Unlock()
	return s.fetchInitialProposals(ctx)
}

func (s *Session) fetchInitialProposals(ctx context.Context) error {
	s.mu.Lock()
	s.state = GeneratingProposals
	s.proposals = nil
	round := s.round
	settings := s.settings
	s.publishLocked()
	s.mu.Unlock()

	proposals, err := s.rotator.Initial(ctx, settings.InterestNames(), settings.CompletedTopics)
	if err != nil {
		s.log.WithError(err).Warn("could not fetch proposals")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if round != s.round || s.state != GeneratingProposals {
		return nil
	}
	s.proposals = proposals
	s.state = Ready
	s.publishLocked()
	return nil
}

// SelectTopic generates the article for topic and blocks until the stream
// ends. Partial articles are published as they grow. Once the article is in,
// the quiz question and the next proposals are fetched in the background.
func (s *Session) SelectTopic(ctx context.Context, topic string) error {
	topic = strings.TrimSpace(topic)

	s.mu.Lock()
	if s.state != Ready {
		s.mu.Unlock()
		return invalid("select topic", s.state)
	}
	if topic == "" {
		s.mu.Unlock()
		return errors.New("select topic: empty topic")
	}
	previous := s.proposals
	s.round++
	round := s.round
	s.resetRoundLocked()
	s.state = GeneratingArticle
	s.topic = topic
	settings := s.settings
	s.publishLocked()
	s.mu.Unlock()

	if s.popups != nil {
		s.popups.Dismiss()
	}
	log := s.log.WithFields(logrus.Fields{"round": round, "topic": topic})
	log.Info("generating article")

	final, err := s.streamArticle(ctx, round, topic, settings)

	s.mu.Lock()
	if round != s.round {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		log.WithError(err).Error("article generation failed")
		s.article = article.ErrorArticle
		s.failed = true
		s.proposals = previous
		s.proposalsReady = true
		s.state = PostArticleChoice
		s.publishLocked()
		s.mu.Unlock()
		return nil
	}

	s.article = final
	s.settings = s.settings.WithCompletedTopic(topic)
	updated := s.settings
	s.state = PostArticleChoice
	s.publishLocked()
	s.mu.Unlock()

	if err := s.store.SaveSettings(ctx, updated); err != nil {
		log.WithError(err).Warn("could not persist completed topic")
	}
	s.notifySettings(updated)

	rotation := s.rotator.Round()
	s.bg.Add(2)
	go s.fetchQuiz(round, final.Content, updated)
	go s.rotateProposals(round, rotation, topic, previous, updated)
	return nil
}

func (s *Session) streamArticle(ctx context.Context, round uint64, topic string, settings config.Settings) (article.Article, error) {
	stream, err := s.svc.GenerateArticle(ctx, topic, settings)
	if err != nil {
		return article.Article{}, err
	}
	return article.Assemble(stream, func(a article.Article) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if round != s.round || s.state != GeneratingArticle {
			return
		}
		s.article = a
		s.publishLocked()
	})
}

func (s *Session) fetchQuiz(round uint64, body string, settings config.Settings) {
	defer s.bg.Done()

	question, err := s.svc.QuizQuestion(s.bgCtx, llm.QuizRequest{
		Article:  body,
		Language: settings.LearningLanguage,
		Level:    settings.Level,
	})
	if err != nil || strings.TrimSpace(question) == "" {
		s.log.WithError(err).Warn("quiz question unavailable, using placeholder")
		question = llm.FallbackQuestion
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if round != s.round {
		return
	}
	s.question = question
	s.quizReady = true
	s.publishLocked()
}

func (s *Session) rotateProposals(round uint64, rotation proposal.Round, topic string, previous []string, settings config.Settings) {
	defer s.bg.Done()

	proposals, err := rotation.Rotate(s.bgCtx, topic, previous, settings.InterestNames(), settings.CompletedTopics)
	if err != nil {
		s.log.WithError(err).Warn("could not fetch next proposals")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if round != s.round {
		return
	}
	s.proposals = proposals
	s.proposalsReady = true
	s.publishLocked()
}

func (s *Session) generateProposals(ctx context.Context, interests, excluded []string, count int) ([]string, error) {
	s.mu.Lock()
	settings := s.settings
	s.mu.Unlock()
	return s.svc.Proposals(ctx, llm.ProposalRequest{
		Interests: interests,
		Excluded:  excluded,
		Count:     count,
		Language:  settings.LearningLanguage,
		Level:     settings.Level,
	})
}

// TakeQuiz opens the quiz once its question is ready.
func (s *Session) TakeQuiz() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != PostArticleChoice {
		return invalid("take quiz", s.state)
	}
	if s.quizDone {
		return invalid("take quiz again", s.state)
	}
	if !s.quizReady {
		return notReady("take quiz", "question")
	}
	s.state = ShowingQuiz
	s.publishLocked()
	return nil
}

// SubmitAnswer has the answer evaluated and shows the feedback. The quiz
// counts as done afterwards.
func (s *Session) SubmitAnswer(ctx context.Context, answer string) error {
	s.mu.Lock()
	if s.state != ShowingQuiz {
		s.mu.Unlock()
		return invalid("submit answer", s.state)
	}
	s.state = EvaluatingQuiz
	round := s.round
	req := llm.EvaluationRequest{
		Article:  s.article.Content,
		Question: s.question,
		Answer:   answer,
		Language: s.settings.LearningLanguage,
		Level:    s.settings.Level,
	}
	s.publishLocked()
	s.mu.Unlock()

	feedback, err := s.svc.EvaluateAnswer(ctx, req)
	if err != nil || strings.TrimSpace(feedback) == "" {
		s.log.WithError(err).Warn("evaluation unavailable, using placeholder")
		feedback = llm.FallbackFeedback
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if round != s.round || s.state != EvaluatingQuiz {
		return nil
	}
	s.feedback = feedback
	s.quizDone = true
	s.state = ShowingFeedback
	s.publishLocked()
	return nil
}

// FinishQuiz returns to the post-article choice, with or without an answer.
func (s *Session) FinishQuiz() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != ShowingQuiz && s.state != ShowingFeedback {
		return invalid("finish quiz", s.state)
	}
	s.quizDone = true
	s.state = PostArticleChoice
	s.publishLocked()
	return nil
}

// PracticeVocabulary starts a flashcard round over the captured words.
func (s *Session) PracticeVocabulary() (*vocab.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != PostArticleChoice && s.state != ShowingFeedback {
		return nil, invalid("practice vocabulary", s.state)
	}
	if s.vocabDone {
		return nil, invalid("practice vocabulary again", s.state)
	}
	if s.vocab.Len() == 0 {
		return nil, notReady("practice vocabulary", "no words captured")
	}
	s.deck = vocab.NewDeck(s.vocab.Items(), s.shuffle)
	s.state = PracticingVocabulary
	s.publishLocked()
	return s.deck, nil
}

// Deck returns the flashcard deck of the current practice, if any.
func (s *Session) Deck() *vocab.Deck {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deck
}

// FinishVocabulary ends practice. With the quiz also done, the session moves
// straight to the next round when its proposals are ready.
func (s *Session) FinishVocabulary() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != PracticingVocabulary {
		return invalid("finish vocabulary", s.state)
	}
	s.vocabDone = true
	if s.quizDone && s.proposalsReady {
		s.nextRoundLocked()
	} else {
		s.state = PostArticleChoice
	}
	s.publishLocked()
	return nil
}

// NextRound moves on to topic selection. The round must have something
// finished in it and the next proposals must be ready.
func (s *Session) NextRound() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != PostArticleChoice && s.state != ShowingFeedback {
		return invalid("next round", s.state)
	}
	a := s.actionsLocked()
	if !a.ShowContinue {
		return invalid("next round before finishing anything", s.state)
	}
	if !a.CanContinue {
		return notReady("next round", "proposals")
	}
	s.nextRoundLocked()
	s.publishLocked()
	return nil
}

func (s *Session) nextRoundLocked() {
	proposals := s.proposals
	s.resetRoundLocked()
	s.proposals = proposals
	s.state = Ready
}

// resetRoundLocked clears everything derived from the current round.
func (s *Session) resetRoundLocked() {
	s.topic = ""
	s.article = article.Article{}
	s.failed = false
	s.question = ""
	s.feedback = ""
	s.quizReady = false
	s.proposalsReady = false
	s.quizDone = false
	s.vocabDone = false
	s.deck = nil
	s.proposals = nil
	s.vocab.Clear()
}

func (s *Session) applySettingsLocked(settings config.Settings) {
	s.settings = config.Normalize(settings)
}

// notifySettings runs the settings hook; callers must not hold s.mu.
func (s *Session) notifySettings(settings config.Settings) {
	if s.onSet != nil {
		s.onSet(settings)
	}
}

// Actions returns the currently offered post-article choices.
func (s *Session) Actions() Actions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actionsLocked()
}

func (s *Session) actionsLocked() Actions {
	a := Actions{
		CanTakeQuiz:           s.quizReady && !s.quizDone,
		CanPracticeVocabulary: s.vocab.Len() > 0 && !s.vocabDone,
		ShowContinue:          s.quizDone || s.vocabDone || s.failed,
	}
	a.CanContinue = a.ShowContinue && s.proposalsReady
	return a
}

// Snapshot returns the current view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:          s.state,
		Round:          s.round,
		Settings:       s.settings,
		Proposals:      append([]string(nil), s.proposals...),
		Topic:          s.topic,
		Article:        s.article,
		Failed:         s.failed,
		Question:       s.question,
		Feedback:       s.feedback,
		QuizReady:      s.quizReady,
		ProposalsReady: s.proposalsReady,
		QuizDone:       s.quizDone,
		VocabDone:      s.vocabDone,
		Vocabulary:     s.vocab.Items(),
		Actions:        s.actionsLocked(),
	}
}

// Subscribe returns a channel receiving a snapshot after every change, and
// a function to stop receiving. Slow readers only miss intermediate states.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 16)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
}

// Touch republishes the snapshot, e.g. after the vocabulary set changed.
func (s *Session) Touch() {
	s.mu.Lock()
	s.publishLocked()
	s.mu.Unlock()
}

func (s *Session) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Full: drop the oldest so the newest state gets through.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
