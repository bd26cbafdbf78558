package agent

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"mvdan.cc/sh/v3/syntax"
)

// ErrCommandRefused is wrapped by every policy rejection.
var ErrCommandRefused = errors.New("command refused by policy")

// maxPolicyDepth bounds nested sh -c / eval scripts.
const maxPolicyDepth = 8

// CommandPolicy decides which shell commands run_command may execute.
// Every simple command in the script is checked, including those inside
// pipelines, lists, subshells, functions and command substitutions.
//
// When Allow is non-empty only matching command names may run. Otherwise
// names matching Deny are refused. Patterns are doublestar globs matched
// against the command's base name.
type CommandPolicy struct {
	Deny  []string
	Allow []string
}

// NewCommandPolicy validates the patterns and builds a policy.
func NewCommandPolicy(deny, allow []string) (*CommandPolicy, error) {
	for _, list := range [][]string{deny, allow} {
		for _, pattern := range list {
			if !doublestar.ValidatePattern(pattern) {
				return nil, fmt.Errorf("invalid command pattern %q", pattern)
			}
		}
	}
	return &CommandPolicy{Deny: deny, Allow: allow}, nil
}

// Check returns nil if command may run, or an error wrapping ErrCommandRefused.
func (p *CommandPolicy) Check(command string) error {
	return p.checkScript(command, 0)
}

func (p *CommandPolicy) checkScript(src string, depth int) error {
	if depth > maxPolicyDepth {
		return refused("commands nested too deeply")
	}

	file, err := syntax.NewParser().Parse(strings.NewReader(src), "")
	if err != nil {
		return refused("cannot parse command: %v", err)
	}

	var firstErr error
	syntax.Walk(file, func(node syntax.Node) bool {
		if firstErr != nil {
			return false
		}
		if call, ok := node.(*syntax.CallExpr); ok && len(call.Args) > 0 {
			argv := make([]shellWord, len(call.Args))
			for i, w := range call.Args {
				argv[i] = literalWord(w)
			}
			firstErr = p.checkArgv(argv, depth)
		}
		return true
	})
	return firstErr
}

type shellWord struct {
	text    string
	literal bool
}

// literalWord resolves w when it contains no expansions.
func literalWord(w *syntax.Word) shellWord {
	var sb strings.Builder
	for _, part := range w.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(unescapeLit(p.Value))
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, dp := range p.Parts {
				lit, ok := dp.(*syntax.Lit)
				if !ok {
					return shellWord{}
				}
				sb.WriteString(lit.Value)
			}
		default:
			return shellWord{}
		}
	}
	return shellWord{text: sb.String(), literal: true}
}

// unescapeLit drops the backslashes of an unquoted literal, so \rm is rm.
func unescapeLit(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// wrapper describes a command that runs another command from its arguments.
type wrapper struct {
	valueFlags  map[string]bool // options that consume the next argument
	assignments bool            // NAME=value arguments precede the command
	positional  int             // non-option arguments before the command
}

func flags(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

var wrappers = map[string]wrapper{
	"env":     {valueFlags: flags("-u", "--unset", "-C", "--chdir", "-S", "--split-string"), assignments: true},
	"command": {},
	"builtin": {},
	"exec":    {valueFlags: flags("-a")},
	"nohup":   {},
	"time":    {valueFlags: flags("-f", "--format", "-o", "--output")},
	"nice":    {valueFlags: flags("-n", "--adjustment")},
	"timeout": {valueFlags: flags("-s", "--signal", "-k", "--kill-after"), positional: 1},
	"xargs":   {valueFlags: flags("-I", "-n", "-P", "-L", "-s", "-d", "-E", "-a")},
	"stdbuf":  {valueFlags: flags("-i", "-o", "-e")},
	"setsid":  {},
	"busybox": {},
	"toybox":  {},
}

var shells = map[string]bool{"sh": true, "bash": true, "zsh": true, "dash": true, "ksh": true}

func (p *CommandPolicy) checkArgv(argv []shellWord, depth int) error {
	if len(argv) == 0 {
		return nil
	}
	if !argv[0].literal {
		return refused("command name must be a literal word")
	}

	name := path.Base(argv[0].text)
	if err := p.checkName(name); err != nil {
		return err
	}
	args := argv[1:]

	if w, ok := wrappers[name]; ok {
		rest, err := unwrap(w, args)
		if err != nil {
			return err
		}
		return p.checkArgv(rest, depth)
	}

	switch {
	case shells[name]:
		script, err := shellScript(name, args)
		if err != nil {
			return err
		}
		return p.checkScript(script, depth+1)
	case name == "eval":
		parts := make([]string, 0, len(args))
		for _, a := range args {
			if !a.literal {
				return refused("eval arguments must be literal")
			}
			parts = append(parts, a.text)
		}
		return p.checkScript(strings.Join(parts, " "), depth+1)
	case name == "find":
		return p.checkFindExec(args, depth)
	}
	return nil
}

// unwrap skips a wrapper's own options and returns the wrapped argv.
func unwrap(w wrapper, args []shellWord) ([]shellWord, error) {
	positional := w.positional
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !a.literal {
			return nil, refused("wrapped command must be a literal word")
		}
		switch {
		case a.text == "--":
			return args[i+1:], nil
		case strings.HasPrefix(a.text, "-") && len(a.text) > 1:
			if w.valueFlags[a.text] {
				i++
			}
		case w.assignments && strings.Contains(a.text, "=") && !strings.HasPrefix(a.text, "="):
		case positional > 0:
			positional--
		default:
			return args[i:], nil
		}
	}
	return nil, nil
}

// shellScript returns the -c script of a shell invocation. A shell reading
// its commands from anywhere else is refused.
func shellScript(name string, args []shellWord) (string, error) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !a.literal {
			return "", refused("%s arguments must be literal", name)
		}
		switch {
		case a.text == "-o" || a.text == "+o" || a.text == "-O" || a.text == "+O":
			i++
		case strings.HasPrefix(a.text, "--"):
		case len(a.text) > 1 && (a.text[0] == '-' || a.text[0] == '+'):
			if a.text[0] != '-' || !strings.ContainsRune(a.text[1:], 'c') {
				continue
			}
			if i+1 >= len(args) || !args[i+1].literal {
				return "", refused("%s -c script must be a literal string", name)
			}
			return args[i+1].text, nil
		default:
			return "", refused("%s may only run an inline -c script", name)
		}
	}
	return "", refused("%s may only run an inline -c script", name)
}

// checkFindExec checks commands given to find -exec, -execdir, -ok and -okdir.
// -delete is treated as rm.
func (p *CommandPolicy) checkFindExec(args []shellWord, depth int) error {
	for i := 0; i < len(args); i++ {
		switch args[i].text {
		case "-delete":
			if err := p.checkName("rm"); err != nil {
				return refused("find -delete is not allowed")
			}
			continue
		case "-exec", "-execdir", "-ok", "-okdir":
		default:
			continue
		}
		j := i + 1
		for j < len(args) && args[j].text != ";" && args[j].text != "+" {
			j++
		}
		if err := p.checkArgv(args[i+1:j], depth); err != nil {
			return err
		}
		i = j
	}
	return nil
}

func (p *CommandPolicy) checkName(name string) error {
	for _, pattern := range p.Allow {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return nil
		}
	}
	if len(p.Allow) > 0 {
		return refused("%s is not in the allow list", name)
	}
	for _, pattern := range p.Deny {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return refused("%s is not allowed", name)
		}
	}
	return nil
}

func refused(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCommandRefused, fmt.Sprintf(format, args...))
}
