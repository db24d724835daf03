// Package command turns protocol lines into parsed commands.
//
// A line is screened for printable ASCII, split into tokens on spaces that
// are not inside double quotes (the quotes stay part of the token) and
// mapped to an Op. Arity and privilege are left to the caller.
package command

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnprintable is returned for a line with bytes outside ASCII 32..126.
	ErrUnprintable = errors.New("unprintable input")

	// ErrUnknown is returned for a line whose operator is not recognised.
	ErrUnknown = errors.New("unknown command")

	// ErrSyntax is returned for a malformed argument or literal.
	ErrSyntax = errors.New("malformed argument")
)

// Op identifies a command.
type Op int

const (
	OpQuit Op = iota + 1
	OpExit
	OpSu
	OpLogout
	OpRegister
	OpPasswd
	OpUserAdd
	OpDelete
	OpShow
	OpBuy
	OpSelect
	OpModify
	OpImport
	OpShowFinance
	OpReportFinance
	OpReportEmployee
	OpLog
)

var opNames = map[Op]string{
	OpQuit:           "quit",
	OpExit:           "exit",
	OpSu:             "su",
	OpLogout:         "logout",
	OpRegister:       "register",
	OpPasswd:         "passwd",
	OpUserAdd:        "useradd",
	OpDelete:         "delete",
	OpShow:           "show",
	OpBuy:            "buy",
	OpSelect:         "select",
	OpModify:         "modify",
	OpImport:         "import",
	OpShowFinance:    "show finance",
	OpReportFinance:  "report finance",
	OpReportEmployee: "report employee",
	OpLog:            "log",
}

// simple maps single-word operators.
var simple = map[string]Op{
	"quit":     OpQuit,
	"exit":     OpExit,
	"su":       OpSu,
	"logout":   OpLogout,
	"register": OpRegister,
	"passwd":   OpPasswd,
	"useradd":  OpUserAdd,
	"delete":   OpDelete,
	"buy":      OpBuy,
	"select":   OpSelect,
	"modify":   OpModify,
	"import":   OpImport,
	"log":      OpLog,
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Command is a parsed line.
type Command struct {
	Op   Op
	Args []string
}

// Blank reports whether line holds nothing but spaces.
func Blank(line string) bool {
	return strings.Trim(line, " ") == ""
}

// Printable reports whether every byte of line is in ASCII 32..126.
func Printable(line string) bool {
	for i := 0; i < len(line); i++ {
		if line[i] < 32 || line[i] > 126 {
			return false
		}
	}
	return true
}

// Split breaks line into tokens. Spaces separate tokens except between
// double quotes; the quote characters are kept in the token.
func Split(line string) []string {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			quoted = !quoted
			current.WriteByte(c)
		case c == ' ' && !quoted:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// Parse screens and tokenizes line and identifies its operator.
// Blank lines are rejected with ErrUnknown; callers skip them first.
func Parse(line string) (Command, error) {
	if !Printable(line) {
		return Command{}, ErrUnprintable
	}
	tokens := Split(line)
	if len(tokens) == 0 {
		return Command{}, ErrUnknown
	}

	head, rest := tokens[0], tokens[1:]
	if op, ok := simple[head]; ok {
		return Command{Op: op, Args: rest}, nil
	}
	switch head {
	case "show":
		if len(rest) > 0 && rest[0] == "finance" {
			return Command{Op: OpShowFinance, Args: rest[1:]}, nil
		}
		return Command{Op: OpShow, Args: rest}, nil
	case "report":
		if len(rest) > 0 {
			switch rest[0] {
			case "finance":
				return Command{Op: OpReportFinance, Args: rest[1:]}, nil
			case "employee":
				return Command{Op: OpReportEmployee, Args: rest[1:]}, nil
			}
		}
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknown, head)
}
