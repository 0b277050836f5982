// Package cli parses kidstalk command-line invocations into session commands.
package cli

import (
	"fmt"
	"strings"

	"github.com/wozobuyshop/Kidstalk3/internal/ipc"
)

// Command is one parsed invocation.
type Command struct {
	Name       string
	Arg        string
	ConfigPath string
}

type spec struct {
	arity int
	usage string
	help  string
}

// specs defines every accepted command. talk is the default when the command
// word is omitted.
var specs = map[string]spec{
	"talk":    {0, "talk", "start recording, or stop and translate when already recording"},
	"stop":    {0, "stop", "stop recording and translate"},
	"cancel":  {0, "cancel", "discard the current recording"},
	"retry":   {0, "retry", "acknowledge a displayed error and return to idle"},
	"reply":   {1, "reply LANG", "let the child answer; their reply is translated into LANG"},
	"dismiss": {0, "dismiss", "leave reply mode"},
	"say":     {1, "say LANG", "speak the displayed translation for LANG aloud"},
	"share":   {1, "share LANG", "share the displayed translation for LANG via messaging link"},
	"file":    {1, "file PATH", "translate an audio file instead of recording"},
	"lang":    {1, "lang LANG", "set the interface language (en, ar, fr)"},
	"theme":   {1, "theme dark|light", "set the interface theme"},
	"status":  {0, "status", "print the session state"},
	"devices": {0, "devices", "list audio input devices"},
	"doctor":  {0, "doctor", "check configuration, credential, audio, and gateway health"},
	"quit":    {0, "quit", "stop the running session"},
	"version": {0, "version", "print version information"},
	"help":    {0, "help", "print this help"},
}

// displayOrder keeps help output stable.
var displayOrder = []string{
	"talk", "stop", "cancel", "retry",
	"reply", "dismiss",
	"say", "share", "file",
	"lang", "theme",
	"status", "devices", "doctor", "quit", "version", "help",
}

// Parse interprets args (without the program name).
func Parse(args []string) (Command, error) {
	var cmd Command
	rest := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config" || arg == "-c":
			if i+1 >= len(args) {
				return Command{}, fmt.Errorf("%s requires a path", arg)
			}
			i++
			cmd.ConfigPath = args[i]
		case strings.HasPrefix(arg, "--config="):
			cmd.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--help" || arg == "-h":
			rest = append(rest, "help")
		case strings.HasPrefix(arg, "-"):
			return Command{}, fmt.Errorf("unknown flag %q", arg)
		default:
			rest = append(rest, arg)
		}
	}

	if len(rest) == 0 {
		cmd.Name = "talk"
		return cmd, nil
	}

	cmd.Name = strings.ToLower(rest[0])
	sp, ok := specs[cmd.Name]
	if !ok {
		return Command{}, fmt.Errorf("unknown command %q (see 'kidstalk help')", rest[0])
	}

	operands := rest[1:]
	if len(operands) != sp.arity {
		return Command{}, fmt.Errorf("usage: kidstalk %s", sp.usage)
	}
	if sp.arity == 1 {
		cmd.Arg = operands[0]
	}
	return cmd, nil
}

// ToRequest maps a parsed command onto the IPC protocol. The file command
// travels as submit.
func (c Command) ToRequest() ipc.Request {
	name := c.Name
	if name == "file" {
		name = "submit"
	}
	return ipc.Request{Command: name, Arg: c.Arg}
}

// Usage renders the full help text.
func Usage() string {
	var b strings.Builder
	b.WriteString("kidstalk - push-to-talk voice translation between parents and children\n\n")
	b.WriteString("usage: kidstalk [--config PATH] [command]\n\n")
	b.WriteString("Running kidstalk with no command starts a session and begins recording;\n")
	b.WriteString("further invocations talk to the running session.\n\ncommands:\n")
	for _, name := range displayOrder {
		sp := specs[name]
		fmt.Fprintf(&b, "  %-18s %s\n", sp.usage, sp.help)
	}
	return b.String()
}
