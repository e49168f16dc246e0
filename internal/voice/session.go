// Package voice drives a hands-free conversation from final speech
// transcripts: a wake phrase arms the session, the next transcript is the
// recipe request, and stop words end listening.
package voice

import (
	"context"
	"log/slog"
	"strings"

	"github.com/starford/chefgenie/internal/render"
	"github.com/starford/chefgenie/internal/resolver"
)

// Status lines shown while listening.
const (
	StatusIdle     = "Microphone off"
	StatusWaiting  = "Say 'Hey ChefGenie' to begin"
	StatusArmed    = "Listening for recipe request..."
	StatusStopped  = "Conversation stopped."
	greeting       = "How can I help?"
	farewell       = "Goodbye!"
	stoppedSpeech  = "Conversation stopped."
	disarmStopWord = "stop"
)

var stopWords = []string{"stop", "cancel", "exit"}

// State is the listening state of a Session.
type State int

const (
	Idle State = iota
	Listening
	Armed
)

func (s State) String() string {
	switch s {
	case Listening:
		return "listening"
	case Armed:
		return "armed"
	default:
		return "idle"
	}
}

// Speaker says text out loud. Calls are fire-and-forget.
type Speaker interface {
	Speak(ctx context.Context, text string)
}

// Resolver resolves a recipe request.
type Resolver interface {
	Resolve(ctx context.Context, rawText string) resolver.Result
}

// NoOpSpeaker is used when speech output is disabled.
type NoOpSpeaker struct {
	Logger *slog.Logger
}

// Speak logs what would have been said.
func (n NoOpSpeaker) Speak(_ context.Context, text string) {
	if n.Logger != nil {
		n.Logger.Debug("voice: would say", slog.String("text", text))
	}
}

// Reply is what one transcript produced.
type Reply struct {
	Status string
	Result *resolver.Result
}

// Session is not safe for concurrent use; transcripts arrive one at a time.
type Session struct {
	resolver Resolver
	speaker  Speaker
	logger   *slog.Logger
	state    State
}

// NewSession creates an idle session.
func NewSession(r Resolver, sp Speaker, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if sp == nil {
		sp = NoOpSpeaker{Logger: logger}
	}
	return &Session{resolver: r, speaker: sp, logger: logger}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Start begins listening.
func (s *Session) Start() string {
	s.state = Listening
	return StatusWaiting
}

// Stop ends listening.
func (s *Session) Stop() string {
	s.state = Idle
	return StatusIdle
}

// Hear handles one final transcript.
func (s *Session) Hear(ctx context.Context, transcript string) Reply {
	if s.state == Idle {
		return Reply{Status: StatusIdle}
	}
	t := strings.ToLower(strings.TrimSpace(transcript))
	if t == "" {
		return Reply{Status: s.status()}
	}

	if s.state == Armed && strings.Contains(t, disarmStopWord) {
		s.state = Listening
		s.speaker.Speak(ctx, farewell)
		return Reply{Status: StatusWaiting}
	}

	if containsAny(t, stopWords) {
		s.state = Idle
		s.speaker.Speak(ctx, stoppedSpeech)
		return Reply{Status: StatusStopped}
	}

	if s.state == Listening {
		if strings.Contains(t, resolver.WakePhrase) {
			s.state = Armed
			s.speaker.Speak(ctx, greeting)
			return Reply{Status: StatusArmed}
		}
		return Reply{Status: StatusWaiting}
	}

	// Armed: this transcript is the request.
	s.state = Listening
	command := strings.TrimSpace(strings.Replace(t, resolver.WakePhrase, "", 1))
	res := s.resolver.Resolve(ctx, command)
	s.logger.Info("voice: resolved", slog.String("query", res.Query), slog.String("kind", res.Kind.String()))
	s.speaker.Speak(ctx, render.Speech(res))

	status := StatusWaiting
	if res.Kind == resolver.KindStopped {
		s.state = Idle
		status = res.Message
	}
	return Reply{Status: status, Result: &res}
}

func (s *Session) status() string {
	switch s.state {
	case Armed:
		return StatusArmed
	case Listening:
		return StatusWaiting
	default:
		return StatusIdle
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
