package navigator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mind-engage/plant-eval/internal/access"
	"github.com/mind-engage/plant-eval/internal/evaluation"
	"github.com/mind-engage/plant-eval/internal/session"
)

type Screen string

const (
	ScreenLogin        Screen = "login"
	ScreenMenu         Screen = "menu"
	ScreenEvaluation   Screen = "evaluation"
	ScreenSectionModal Screen = "section_modal"
	ScreenBlocked      Screen = "blocked"
	ScreenResults      Screen = "results"
)

var (
	ErrInvalidTransition = errors.New("action not allowed on this screen")
	// ErrStale is returned when a response arrives after the screen it was
	// issued from has been left.
	ErrStale = errors.New("response discarded after navigation")
)

// Backend is the evaluation API as seen by the client.
type Backend interface {
	access.BlockChecker
	access.PermissionChecker
	Login(ctx context.Context, username, password string) (evaluation.User, error)
	Template(ctx context.Context, t evaluation.Type) (evaluation.Evaluation, error)
	SaveResult(ctx context.Context, userID string, r evaluation.Result) error
}

// CredentialHolder is implemented by backends that keep the logged-in user's
// credential between calls. Navigator.Logout drops it.
type CredentialHolder interface {
	Logout()
}

// Session is everything scoped to one logged-in user.
type Session struct {
	User     *evaluation.User
	Template *evaluation.Evaluation
	State    *session.State
	Result   *evaluation.Result
	Block    *evaluation.BlockStatus
	Modal    *SectionModal
}

// SectionModal is the overlay shown when a section completes.
type SectionModal struct {
	Section int
	Summary evaluation.SectionSummary
}

// Reset drops all session-scoped data.
func (s *Session) Reset() { *s = Session{} }

type Navigator struct {
	backend Backend
	gate    *access.Gate
	logger  *slog.Logger

	mu      sync.Mutex
	screen  Screen
	epoch   uint64
	cancel  context.CancelFunc
	session Session
}

func New(b Backend, gate *access.Gate, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	if gate == nil {
		gate = &access.Gate{Blocks: b, Permissions: b, Logger: logger}
	}
	return &Navigator{backend: b, gate: gate, logger: logger, screen: ScreenLogin}
}

func (n *Navigator) Screen() Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.screen
}

// Session returns a snapshot of the session context.
func (n *Navigator) Session() Session {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.session
}

// begin starts an async operation on screen from. snap, when set, runs under
// the same lock as the screen check and copies what the call needs out of
// the session. The returned context is cancelled by Logout; the epoch
// detects any other navigation meanwhile.
func (n *Navigator) begin(ctx context.Context, snap func() error, from ...Screen) (context.Context, uint64, func(), error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.on(from...) {
		return nil, 0, nil, fmt.Errorf("%w: %s", ErrInvalidTransition, n.screen)
	}
	if snap != nil {
		if err := snap(); err != nil {
			return nil, 0, nil, err
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	prev := n.cancel
	n.cancel = cancel
	if prev != nil {
		prev()
	}
	return ctx, n.epoch, cancel, nil
}

func (n *Navigator) on(screens ...Screen) bool {
	for _, s := range screens {
		if n.screen == s {
			return true
		}
	}
	return false
}

// move must be called with mu held.
func (n *Navigator) move(to Screen) {
	n.logger.Debug("navigate", "from", n.screen, "to", to)
	n.screen = to
	n.epoch++
}

// Login authenticates and opens the menu. Bad credentials keep the user on
// the login screen.
func (n *Navigator) Login(ctx context.Context, username, password string) error {
	ctx, epoch, done, err := n.begin(ctx, nil, ScreenLogin)
	if err != nil {
		return err
	}
	defer done()
	user, err := n.backend.Login(ctx, username, password)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.epoch != epoch {
		if err == nil {
			// the credential arrived after Logout already ran
			n.dropCredential()
		}
		return ErrStale
	}
	if err != nil {
		return err
	}
	n.session.Reset()
	n.session.User = &user
	n.move(ScreenMenu)
	return nil
}

// SelectEvaluation runs the access gate and, when allowed, loads the
// template and opens the evaluation screen.
func (n *Navigator) SelectEvaluation(ctx context.Context, t evaluation.Type) error {
	var user evaluation.User
	ctx, epoch, done, err := n.begin(ctx, func() error {
		if n.session.User == nil {
			return ErrStale
		}
		user = *n.session.User
		return nil
	}, ScreenMenu)
	if err != nil {
		return err
	}
	defer done()

	d, err := n.gate.CheckAccess(ctx, user, t)
	if err != nil {
		if n.stale(epoch) {
			return ErrStale
		}
		return err
	}
	if !d.Allowed {
		n.mu.Lock()
		defer n.mu.Unlock()
		if n.epoch != epoch {
			return ErrStale
		}
		if d.Reason == access.ReasonExamBlocked {
			n.session.Block = d.Block
			n.move(ScreenBlocked)
		}
		return d.Err()
	}

	tmpl, err := n.backend.Template(ctx, t)
	if err != nil {
		if n.stale(epoch) {
			return ErrStale
		}
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.epoch != epoch {
		return ErrStale
	}
	st, err := session.New(tmpl,
		session.WithLogger(n.logger),
		session.OnSectionComplete(func(i int, sum evaluation.SectionSummary) {
			n.session.Modal = &SectionModal{Section: i, Summary: sum}
		}),
		session.OnFinished(func(r evaluation.Result) {
			n.session.Result = &r
		}),
	)
	if err != nil {
		return err
	}
	n.session.Template = &tmpl
	n.session.State = st
	n.session.Result = nil
	n.session.Modal = nil
	n.move(ScreenEvaluation)
	return nil
}

func (n *Navigator) stale(epoch uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.epoch != epoch
}

// Answer records a response. Completing a section opens the section modal;
// completing the last one goes straight to results and persists the result.
// A failed save is returned but the results stay on screen.
func (n *Navigator) Answer(ctx context.Context, section, question int, value string) error {
	n.mu.Lock()
	if n.screen != ScreenEvaluation {
		n.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidTransition, n.screen)
	}
	n.session.Modal = nil
	if err := n.session.State.RecordAnswer(section, question, value); err != nil {
		n.mu.Unlock()
		return err
	}
	switch {
	case n.session.Result != nil:
		n.session.Modal = nil
		n.move(ScreenResults)
	case n.session.Modal != nil:
		n.move(ScreenSectionModal)
	}
	finished := n.screen == ScreenResults
	n.mu.Unlock()

	if !finished {
		return nil
	}
	return n.save(ctx)
}

func (n *Navigator) save(ctx context.Context) error {
	var (
		userID string
		res    evaluation.Result
	)
	ctx, epoch, done, err := n.begin(ctx, func() error {
		if n.session.User == nil || n.session.Result == nil {
			return ErrStale
		}
		userID, res = n.session.User.ID, *n.session.Result
		return nil
	}, ScreenResults)
	if err != nil {
		return err
	}
	defer done()

	err = n.backend.SaveResult(ctx, userID, res)
	if n.stale(epoch) {
		return ErrStale
	}
	if err != nil {
		n.logger.Warn("result not saved", "user_id", userID, "error", err)
	}
	return err
}

// RetrySave persists the current result again from the results screen.
func (n *Navigator) RetrySave(ctx context.Context) error {
	return n.save(ctx)
}

// ContinueFromModal closes the section modal.
func (n *Navigator) ContinueFromModal() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.screen != ScreenSectionModal {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, n.screen)
	}
	n.session.Modal = nil
	n.move(ScreenEvaluation)
	return nil
}

// ReopenSection shows the modal again for a completed section, with the
// percentage recomputed from the current answers.
func (n *Navigator) ReopenSection(section int) (evaluation.SectionSummary, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.screen != ScreenEvaluation {
		return evaluation.SectionSummary{}, fmt.Errorf("%w: %s", ErrInvalidTransition, n.screen)
	}
	if !n.session.State.IsSectionComplete(section) {
		return evaluation.SectionSummary{}, fmt.Errorf("section %d is not complete", section)
	}
	sum, err := n.session.State.SectionSummary(section)
	if err != nil {
		return evaluation.SectionSummary{}, err
	}
	n.session.Modal = &SectionModal{Section: section, Summary: sum}
	n.move(ScreenSectionModal)
	return sum, nil
}

// NewEvaluation leaves the results screen for the menu.
func (n *Navigator) NewEvaluation() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.screen != ScreenResults {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, n.screen)
	}
	n.session.Template = nil
	n.session.State = nil
	n.session.Result = nil
	n.session.Modal = nil
	n.move(ScreenMenu)
	return nil
}

// Logout is valid from every screen. It cancels in-flight calls, clears
// the session and drops the backend credential so nothing carries over to
// the next user.
func (n *Navigator) Logout() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	n.dropCredential()
	n.session.Reset()
	n.move(ScreenLogin)
}

func (n *Navigator) dropCredential() {
	if c, ok := n.backend.(CredentialHolder); ok {
		c.Logout()
	}
}
