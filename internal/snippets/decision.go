package snippets

import "fmt"

// Decision is the operator's answer for a snippet without a filename.
// The set is closed: DecisionFile, DecisionShell, DecisionDrop.
type Decision interface {
	decision()
	fmt.Stringer
}

// DecisionFile writes the snippet to Filename.
type DecisionFile struct {
	Filename string
}

// DecisionShell runs the snippet body as a shell command.
type DecisionShell struct{}

// DecisionDrop rejects the proposed action; the operator is asked again.
type DecisionDrop struct{}

func (DecisionFile) decision()  {}
func (DecisionShell) decision() {}
func (DecisionDrop) decision()  {}

func (d DecisionFile) String() string { return "file:" + d.Filename }
func (DecisionShell) String() string  { return "shell" }
func (DecisionDrop) String() string   { return "drop" }
