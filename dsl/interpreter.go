package dsl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	chat "github.com/everydev1618/gochat"
)

// Texts the engine speaks on its own behalf.
const (
	DefaultApology       = "Sorry, I can't answer that right now. Please try again later."
	DefaultAIUnavailable = "AI replies are not enabled."
)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClassifier sets the classifier used to match free text to Case patterns.
func WithClassifier(c chat.Classifier) EngineOption {
	return func(e *Engine) {
		e.classifier = c
	}
}

// WithReplier sets the reply generator used by AIReply.
func WithReplier(r chat.Replier) EngineOption {
	return func(e *Engine) {
		e.replier = r
	}
}

// WithStore sets the store used by DBQuery and DBExec.
func WithStore(s chat.Store) EngineOption {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithExitWords replaces the exit synonyms.
func WithExitWords(words []string) EngineOption {
	return func(e *Engine) {
		e.exitWords = words
	}
}

// WithObserver registers a callback for engine events.
func WithObserver(o chat.Observer) EngineOption {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithSessionID tags events with a session id.
func WithSessionID(id string) EngineOption {
	return func(e *Engine) {
		e.sessionID = id
	}
}

// WithReplyHistory sets how many transcript entries accompany a reply request.
func WithReplyHistory(n int) EngineOption {
	return func(e *Engine) {
		e.history = n
	}
}

// WithApology sets what is said when the reply generator fails.
func WithApology(text string) EngineOption {
	return func(e *Engine) {
		if text != "" {
			e.apology = text
		}
	}
}

// WithAIUnavailable sets what AIReply says when no reply generator is configured.
func WithAIUnavailable(text string) EngineOption {
	return func(e *Engine) {
		if text != "" {
			e.aiUnavailable = text
		}
	}
}

// WithState starts the engine from an existing state instead of a fresh one.
func WithState(s *ExecutionState) EngineOption {
	return func(e *Engine) {
		e.state = s
	}
}

// Engine runs one conversation over a script. It is single-threaded: Run
// blocks the calling goroutine and only suspends while reading input.
type Engine struct {
	script   *Script
	io       chat.Channel
	state    *ExecutionState
	resolver *Resolver

	classifier chat.Classifier
	replier    chat.Replier
	store      chat.Store
	exitWords  []string

	logger        *slog.Logger
	observer      chat.Observer
	sessionID     string
	history       int
	apology       string
	aiUnavailable string
}

// NewEngine creates an engine for script talking through io.
func NewEngine(script *Script, io chat.Channel, opts ...EngineOption) *Engine {
	e := &Engine{
		script:        script,
		io:            io,
		logger:        slog.Default(),
		history:       chat.DefaultReplyTurns,
		apology:       DefaultApology,
		aiUnavailable: DefaultAIUnavailable,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.state == nil {
		e.state = NewExecutionState()
	}
	e.logger = e.logger.With("module", script.Module)
	if e.sessionID != "" {
		e.logger = e.logger.With("session", e.sessionID)
	}
	e.resolver = &Resolver{
		Classifier: e.classifier,
		ExitWords:  e.exitWords,
		Logger:     e.logger,
		OnClassifierError: func(err error) {
			e.emit(chat.Event{Type: chat.EventCollaboratorFailed, Action: "Listen", Target: "classifier", Error: err.Error()})
		},
	}
	return e
}

// State returns the conversation state. It must not be read while Run is active
// on another goroutine.
func (e *Engine) State() *ExecutionState {
	return e.state
}

// Script returns the script the engine runs.
func (e *Engine) Script() *Script {
	return e.script
}

// Run drives the conversation until Exit, a missing step or cancellation.
// It returns nil after Exit, an error wrapping chat.ErrStepNotFound when a
// step is missing and ctx.Err() when cancelled.
func (e *Engine) Run(ctx context.Context) (err error) {
	defer func() {
		ev := chat.Event{Type: chat.EventSessionEnded, Step: e.state.CurrentStep}
		if err != nil {
			ev.Error = err.Error()
		}
		e.emit(ev)
	}()

	for e.state.Running && e.state.CurrentStep != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.runStep(ctx); err != nil {
			return err
		}
	}
	return nil
}

type resultKind int

const (
	resultContinue resultKind = iota
	resultTransfer
	resultNeedInput
	resultStop
)

type result struct {
	kind resultKind
	next string
}

var cont = result{kind: resultContinue}

func transfer(step string) result {
	return result{kind: resultTransfer, next: step}
}

// runStep executes the current step once. A step that finishes without a
// transfer runs again on the next iteration.
func (e *Engine) runStep(ctx context.Context) error {
	name := e.state.CurrentStep
	step, ok := e.script.Step(name)
	if !ok {
		e.state.Running = false
		e.logger.Error("step not found", "step", name)
		return fmt.Errorf("%w: %q", chat.ErrStepNotFound, name)
	}
	e.emit(chat.Event{Type: chat.EventStepEntered, Step: name})

	for _, action := range step.Actions {
		res, err := e.execute(ctx, step, action)
		if err != nil {
			e.logger.Error("action failed", "step", step.Name, "action", action.Kind(), "error", err)
			e.emit(chat.Event{Type: chat.EventActionFailed, Step: step.Name, Action: action.Kind(), Error: err.Error()})
			e.transfer(step.Name, FallbackStep)
			return nil
		}

		switch res.kind {
		case resultTransfer:
			e.transfer(step.Name, res.next)
			return nil
		case resultNeedInput:
			e.transfer(step.Name, e.awaitBranch(ctx, step))
			return nil
		case resultStop:
			return nil
		}
	}
	return nil
}

func (e *Engine) transfer(from, to string) {
	e.state.CurrentStep = to
	e.logger.Debug("transition", "from", from, "to", to)
	e.emit(chat.Event{Type: chat.EventTransition, Step: from, Target: to})
}

// execute dispatches one action. Panics are converted to ActionError.
func (e *Engine) execute(ctx context.Context, step *Step, action Action) (res result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &chat.ActionError{Step: step.Name, Action: action.Kind(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	switch a := action.(type) {
	case *Speak:
		e.say(ctx, Interpolate(a.Text, e.state.Variables))
		return cont, nil
	case *Listen:
		return result{kind: resultNeedInput}, nil
	case *ListenAssign:
		return e.listenAssign(ctx, step, a), nil
	case *Case, *Default:
		return cont, nil
	case *Goto:
		return transfer(a.Target), nil
	case *Lock:
		if e.state.Lock(a.Resource) {
			e.logger.Info("resource already locked", "step", step.Name, "resource", a.Resource)
			e.emit(chat.Event{Type: chat.EventLockContended, Step: step.Name, Action: a.Kind(), Text: a.Resource})
		}
		return cont, nil
	case *Unlock:
		e.state.Unlock(a.Resource)
		return cont, nil
	case *DBQuery:
		return e.dbQuery(ctx, step, a), nil
	case *DBExec:
		e.dbExec(ctx, step, a)
		return cont, nil
	case *If:
		ok, err := Evaluate(a.Cond, e.state.Variables)
		if err != nil {
			return cont, &chat.ActionError{Step: step.Name, Action: a.Kind(), Err: err}
		}
		if ok {
			return transfer(a.Target), nil
		}
		return cont, nil
	case *AIReply:
		e.aiReply(ctx, step)
		return cont, nil
	case *Exit:
		e.state.Running = false
		return result{kind: resultStop}, nil
	}
	return cont, &chat.ActionError{Step: step.Name, Action: action.Kind(), Err: fmt.Errorf("unsupported action %T", action)}
}

// readLine reads one user line. ended is true when no more input will arrive.
func (e *Engine) readLine(ctx context.Context, step *Step) (text string, ended bool) {
	line, err := e.io.ReadLine(ctx)
	if err != nil {
		e.logger.Info("input ended", "step", step.Name, "error", err)
		return "", true
	}
	return strings.TrimSpace(line), false
}

// awaitBranch reads the user's answer and resolves it against the step's Case table.
func (e *Engine) awaitBranch(ctx context.Context, step *Step) string {
	text, ended := e.readLine(ctx, step)
	if ended {
		return GoodbyeStep
	}
	if text == "" {
		return step.Name
	}
	e.hear(step, text)
	return e.resolver.Resolve(ctx, step, text)
}

func (e *Engine) listenAssign(ctx context.Context, step *Step, a *ListenAssign) result {
	text, ended := e.readLine(ctx, step)
	if ended {
		return transfer(GoodbyeStep)
	}
	if text == "" {
		return transfer(step.Name)
	}
	e.hear(step, text)
	if e.resolver.IsExit(text) {
		return transfer(GoodbyeStep)
	}
	e.state.Variables[a.Var] = text
	return cont
}

func (e *Engine) hear(step *Step, text string) {
	e.state.Append(chat.RoleUser, text)
	e.emit(chat.Event{Type: chat.EventUserSaid, Step: step.Name, Text: text})
}

func (e *Engine) say(ctx context.Context, text string) {
	e.state.Append(chat.RoleAssistant, text)
	e.emit(chat.Event{Type: chat.EventBotSaid, Step: e.state.CurrentStep, Text: text})
	if err := e.io.Write(ctx, text); err != nil {
		e.logger.Warn("write failed", "step", e.state.CurrentStep, "error", err)
	}
}

func (e *Engine) dbQuery(ctx context.Context, step *Step, a *DBQuery) result {
	if e.store == nil {
		e.collaboratorFailed(step, a, "store", chat.ErrNotConfigured)
		return transfer(a.Target)
	}

	query := Interpolate(a.SQL, e.state.Variables)
	row, err := e.store.QueryRow(ctx, query)
	if err != nil {
		e.collaboratorFailed(step, a, "store", err)
		return transfer(a.Target)
	}

	var v any
	if len(row) > 0 {
		v = normalize(row[0])
	}
	e.state.Variables[a.Var] = v
	return transfer(a.Target)
}

func (e *Engine) dbExec(ctx context.Context, step *Step, a *DBExec) {
	if e.store == nil {
		e.collaboratorFailed(step, a, "store", chat.ErrNotConfigured)
		return
	}
	if err := e.store.Exec(ctx, Interpolate(a.SQL, e.state.Variables)); err != nil {
		e.collaboratorFailed(step, a, "store", err)
	}
}

func (e *Engine) aiReply(ctx context.Context, step *Step) {
	last, ok := e.state.Last()
	if !ok || last.Role != chat.RoleUser {
		e.logger.Warn("AIReply skipped", "step", step.Name, "error", chat.ErrNoUserInput)
		return
	}
	if e.replier == nil {
		e.say(ctx, e.aiUnavailable)
		return
	}

	rc := chat.ReplyContext{
		Module:      e.script.Module,
		CurrentStep: step.Name,
		Transcript:  e.state.Recent(e.history),
		Variables:   e.state.Snapshot(),
	}
	reply, err := e.replier.Reply(ctx, last.Text, rc)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = fmt.Errorf("empty reply")
	}
	if err != nil {
		e.collaboratorFailed(step, &AIReply{}, "replier", err)
		e.say(ctx, e.apology)
		return
	}
	e.say(ctx, strings.TrimSpace(reply))
}

func (e *Engine) collaboratorFailed(step *Step, a Action, name string, err error) {
	cerr := &chat.CollaboratorError{Collaborator: name, Err: err}
	e.logger.Warn("collaborator failed", "step", step.Name, "action", a.Kind(), "error", cerr)
	e.emit(chat.Event{Type: chat.EventCollaboratorFailed, Step: step.Name, Action: a.Kind(), Target: name, Error: err.Error()})
}

func (e *Engine) emit(ev chat.Event) {
	if e.observer == nil {
		return
	}
	ev.SessionID = e.sessionID
	ev.Module = e.script.Module
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	e.observer(ev)
}
