// Package repl implements a small line-oriented command shell, the same
// shape used to drive ad hoc inspection of an open index from a terminal.
package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
)

// ReplCommand handles one trigger word's worth of input, returning the text
// to print or an error to report.
type ReplCommand func(string, *REPLConfig) (output string, err error)

const (
	// TriggerHelpMetacommand prints out all commands' help strings.
	TriggerHelpMetacommand = ".help"

	// ErrorPrependStr is prepended to any error before it's written to output.
	ErrorPrependStr = "ERROR: "
)

var (
	// ErrOverlappingCommands is returned by CombineRepls when two REPLs
	// register the same trigger.
	ErrOverlappingCommands = errors.New("found overlapping")
	// ErrCommandNotFound is returned when the input's trigger word matches
	// no registered command.
	ErrCommandNotFound = errors.New("command not found")
)

// REPL holds a set of triggers mapped to the commands that handle them.
type REPL struct {
	commands map[string]ReplCommand
	help     map[string]string
}

// REPLConfig carries per-session state visible to commands as they run.
type REPLConfig struct {
	clientID uuid.UUID
}

// GetAddr returns the session's client id.
func (c *REPLConfig) GetAddr() uuid.UUID {
	return c.clientID
}

// NewRepl constructs an empty REPL.
func NewRepl() *REPL {
	return &REPL{
		commands: make(map[string]ReplCommand),
		help:     make(map[string]string),
	}
}

func contains(s []string, str string) bool {
	for _, v := range s {
		if v == str {
			return true
		}
	}
	return false
}

// CombineRepls merges repls into one, erroring if any two of them register
// the same trigger. Given no REPLs, it returns a new empty one.
func CombineRepls(repls []*REPL) (*REPL, error) {
	combined := NewRepl()
	var seen []string
	for _, r := range repls {
		for trigger, action := range r.commands {
			if contains(seen, trigger) {
				return nil, ErrOverlappingCommands
			}
			combined.AddCommand(trigger, action, r.help[trigger])
			seen = append(seen, trigger)
		}
	}
	return combined, nil
}

// GetCommands returns the REPL's registered commands.
func (r *REPL) GetCommands() map[string]ReplCommand {
	return r.commands
}

// GetHelp returns the REPL's registered help strings.
func (r *REPL) GetHelp() map[string]string {
	return r.help
}

// AddCommand registers action under trigger, overwriting any existing
// command with the same trigger. The help meta-command's trigger can't be
// overridden.
func (r *REPL) AddCommand(trigger string, action ReplCommand, help string) {
	if trigger == TriggerHelpMetacommand {
		return
	}
	r.commands[trigger] = action
	r.help[trigger] = help
}

// HelpString returns every registered command's help text, one per line.
func (r *REPL) HelpString() string {
	var sb strings.Builder
	for trigger, help := range r.help {
		sb.WriteString(fmt.Sprintf("%s: %s\n", trigger, help))
	}
	return sb.String()
}

// Run reads lines from input and dispatches them to registered commands
// until input is exhausted, writing a prompt before each line and command
// output/errors to output. input and output default to stdin/stdout.
func (r *REPL) Run(clientID uuid.UUID, prompt string, input io.Reader, output io.Writer) {
	if input == nil {
		input = os.Stdin
	}
	if output == nil {
		output = os.Stdout
	}

	scanner := bufio.NewScanner(input)
	config := &REPLConfig{clientID: clientID}
	fmt.Fprintln(output, "Welcome. Type '.help' to see the list of available commands.")
	io.WriteString(output, prompt)

	for scanner.Scan() {
		payload := scanner.Text()
		fields := strings.Fields(payload)
		if len(fields) == 0 {
			io.WriteString(output, prompt)
			continue
		}
		trigger := fields[0]

		if trigger == TriggerHelpMetacommand {
			io.WriteString(output, r.HelpString())
			io.WriteString(output, prompt)
			continue
		}

		if command, exists := r.commands[trigger]; exists {
			result, err := command(payload, config)
			if err != nil {
				fmt.Fprintf(output, "%s%s\n", ErrorPrependStr, err)
			} else {
				if len(result) != 0 && !strings.HasSuffix(result, "\n") {
					result += "\n"
				}
				io.WriteString(output, result)
			}
		} else {
			fmt.Fprintf(output, "%s%s\n", ErrorPrependStr, ErrCommandNotFound)
		}
		io.WriteString(output, prompt)
	}
	io.WriteString(output, "\n")
}
