// Package mode holds the editor's selection and action modes.
//
// A State value is passed explicitly into every engine call; nothing here is
// global and nothing is persisted.
package mode

import "fmt"

// Selection is what a click selects.
type Selection uint8

const (
	SelectGrid Selection = iota
	SelectHelix
	SelectStrand
	SelectCrossOver
)

var selectionNames = [...]string{"grid", "helix", "strand", "cross-over"}

func (s Selection) String() string {
	if int(s) < len(selectionNames) {
		return selectionNames[s]
	}
	return fmt.Sprintf("selection(%d)", s)
}

// Next cycles to the following selection mode.
func (s Selection) Next() Selection { return (s + 1) % Selection(len(selectionNames)) }

// Action is what a drag does.
type Action uint8

const (
	ActionSelect Action = iota
	ActionBuild
	ActionRotate
	ActionCut
	ActionTranslate
)

var actionNames = [...]string{"select", "build", "rotate", "cut", "translate"}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", a)
}

// Parse helpers accept the names produced by String.

func ParseSelection(s string) (Selection, bool) {
	for i, n := range selectionNames {
		if n == s {
			return Selection(i), true
		}
	}
	return 0, false
}

func ParseAction(s string) (Action, bool) {
	for i, n := range actionNames {
		if n == s {
			return Action(i), true
		}
	}
	return 0, false
}

// View identifies which view a gesture comes from.
type View uint8

const (
	View2D View = iota
	View3D
)

func (v View) String() string {
	if v == View3D {
		return "3d"
	}
	return "2d"
}

// State is the current pair of modes.
type State struct {
	Selection Selection
	Action    Action
}

// Default is the state after start-up and after every tool switch.
func Default() State { return State{Selection: SelectStrand, Action: ActionSelect} }

func (s State) String() string { return s.Selection.String() + "/" + s.Action.String() }

// CanBuild reports whether cross-over drags are enabled in view v.
func (s State) CanBuild(v View) bool { return v == View2D && s.Action == ActionBuild }

// CanCut reports whether cross-over cuts are enabled in view v.
func (s State) CanCut(v View) bool { return v == View2D && s.Action == ActionCut }

// CanRotate reports whether helix rotation is enabled.
func (s State) CanRotate() bool { return s.Selection == SelectHelix && s.Action == ActionRotate }

// CanTranslate reports whether helix translation is enabled.
func (s State) CanTranslate() bool { return s.Selection == SelectHelix && s.Action == ActionTranslate }

// WithAction switches tool. The selection is kept except that rotate and
// translate force helix selection.
func (s State) WithAction(a Action) State {
	s.Action = a
	if a == ActionRotate || a == ActionTranslate {
		s.Selection = SelectHelix
	}
	return s
}
