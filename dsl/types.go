package dsl

import (
	"fmt"
	"strconv"
)

// Well-known step names.
const (
	StartStep    = "welcome"
	FallbackStep = "fallback"
	GoodbyeStep  = "goodbye"
)

// Script is a parsed conversation script. It is not modified after parsing
// and may be shared by any number of engines.
type Script struct {
	// Module is the name given by the module declaration.
	Module string

	// Steps maps step names to steps. A later definition replaces an earlier one.
	Steps map[string]*Step

	// Order lists step names in order of first definition.
	Order []string

	// Redefined lists step names that were defined more than once.
	Redefined []string
}

// Step looks up a step by name.
func (s *Script) Step(name string) (*Step, bool) {
	step, ok := s.Steps[name]
	return step, ok
}

// Step is a named, ordered list of actions.
type Step struct {
	Name    string
	Line    int
	Actions []Action
}

// Cases returns the step's Case actions in declaration order.
func (s *Step) Cases() []*Case {
	var cases []*Case
	for _, a := range s.Actions {
		if c, ok := a.(*Case); ok {
			cases = append(cases, c)
		}
	}
	return cases
}

// Default returns the step's Default action, or nil. If a step declares
// several, the last one counts.
func (s *Step) Default() *Default {
	var d *Default
	for _, a := range s.Actions {
		if v, ok := a.(*Default); ok {
			d = v
		}
	}
	return d
}

// Action is one instruction within a step. The set of implementations is
// closed: Speak, Listen, ListenAssign, Case, Default, Goto, Lock, Unlock,
// DBQuery, DBExec, If, AIReply and Exit.
type Action interface {
	// Kind names the action as written in scripts.
	Kind() string
	action()
}

// Speak says Text, after placeholder substitution.
type Speak struct{ Text string }

// Listen waits for one user line and branches on the step's Case table.
type Listen struct{}

// ListenAssign waits for one user line and binds it to Var.
type ListenAssign struct{ Var string }

// Case branches to Target when the user said Pattern.
type Case struct {
	Pattern string
	Target  string
}

// Default branches to Target when no Case matched.
type Default struct{ Target string }

// Goto transfers to Target unconditionally.
type Goto struct{ Target string }

// Lock marks Resource as held by this session. Advisory only.
type Lock struct{ Resource string }

// Unlock releases Resource.
type Unlock struct{ Resource string }

// DBQuery runs SQL, binds the first column of the first row to Var and
// transfers to Target.
type DBQuery struct {
	SQL    string
	Var    string
	Target string
}

// DBExec runs a mutating statement.
type DBExec struct{ SQL string }

// If transfers to Target when Cond holds.
type If struct {
	Cond   Condition
	Target string
}

// AIReply answers the last user utterance with the reply generator.
type AIReply struct{}

// Exit ends the conversation.
type Exit struct{}

func (*Speak) Kind() string        { return "Speak" }
func (*Listen) Kind() string       { return "Listen" }
func (*ListenAssign) Kind() string { return "ListenAssign" }
func (*Case) Kind() string         { return "Case" }
func (*Default) Kind() string      { return "Default" }
func (*Goto) Kind() string         { return "Goto" }
func (*Lock) Kind() string         { return "Lock" }
func (*Unlock) Kind() string       { return "Unlock" }
func (*DBQuery) Kind() string      { return "DBQuery" }
func (*DBExec) Kind() string       { return "DBExec" }
func (*If) Kind() string           { return "If" }
func (*AIReply) Kind() string      { return "AIReply" }
func (*Exit) Kind() string         { return "Exit" }

func (*Speak) action()        {}
func (*Listen) action()       {}
func (*ListenAssign) action() {}
func (*Case) action()         {}
func (*Default) action()      {}
func (*Goto) action()         {}
func (*Lock) action()         {}
func (*Unlock) action()       {}
func (*DBQuery) action()      {}
func (*DBExec) action()       {}
func (*If) action()           {}
func (*AIReply) action()      {}
func (*Exit) action()         {}

// Target returns the step an action may transfer to, if any.
func Target(a Action) (string, bool) {
	switch a := a.(type) {
	case *Case:
		return a.Target, true
	case *Default:
		return a.Target, true
	case *Goto:
		return a.Target, true
	case *DBQuery:
		return a.Target, true
	case *If:
		return a.Target, true
	}
	return "", false
}

// Operator is a comparison operator.
type Operator string

const (
	OpEq Operator = "=="
	OpNe Operator = "!="
	OpLt Operator = "<"
	OpLe Operator = "<="
	OpGt Operator = ">"
	OpGe Operator = ">="
)

// Ordering reports whether op compares by order rather than equality.
func (op Operator) Ordering() bool {
	return op == OpLt || op == OpLe || op == OpGt || op == OpGe
}

// OperandKind says how an operand was written.
type OperandKind int

const (
	OperandIdent OperandKind = iota
	OperandString
	OperandNumber
)

// Operand is one side of a condition.
type Operand struct {
	Kind   OperandKind
	Text   string // identifier name or string contents
	Number int64
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandString:
		return strconv.Quote(o.Text)
	case OperandNumber:
		return strconv.FormatInt(o.Number, 10)
	default:
		return o.Text
	}
}

// Condition is the comparison tested by If.
type Condition struct {
	Left  Operand
	Op    Operator
	Right Operand
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}
