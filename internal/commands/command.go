package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/dayplan/internal/model"
)

type Type string

const (
	TypeDone     Type = "done"
	TypeSkip     Type = "skip"
	TypePostpone Type = "postpone"
	TypeReset    Type = "reset"
	TypeMove     Type = "move"
	TypeUnpin    Type = "unpin"
	TypeGoto     Type = "goto"
	TypeNext     Type = "next"
	TypeSleep    Type = "sleep"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
	ErrCodeNotFound        ErrorCode = "not_found"
	ErrCodeAmbiguousTarget ErrorCode = "ambiguous_target"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// StatusArgs targets an instance by id, id prefix or template id.
type StatusArgs struct {
	Target string
	Status model.InstanceStatus
}

type MoveArgs struct {
	Target string
	At     model.ClockTime
}

type UnpinArgs struct {
	Target string
}

// GotoArgs is either an absolute date or a day offset from the current one.
type GotoArgs struct {
	Date   model.Date
	Offset int
}

func (g GotoArgs) From(current model.Date) model.Date {
	if !g.Date.IsZero() {
		return g.Date
	}
	return current.AddDays(g.Offset)
}

type NextArgs struct {
	Template string
}

// SleepArgs overrides the current day's wake and sleep times. Reset drops
// the override.
type SleepArgs struct {
	Schedule model.SleepSchedule
	Reset    bool
}

type Command struct {
	Type   Type
	Raw    string
	Status *StatusArgs
	Move   *MoveArgs
	Unpin  *UnpinArgs
	Goto   *GotoArgs
	Next   *NextArgs
	Sleep  *SleepArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeDone:
		return parseStatus(input, TypeDone, model.StatusCompleted, args)
	case TypeSkip:
		return parseStatus(input, TypeSkip, model.StatusSkipped, args)
	case TypePostpone:
		return parseStatus(input, TypePostpone, model.StatusPostponed, args)
	case TypeReset:
		return parseStatus(input, TypeReset, model.StatusPending, args)
	case TypeMove:
		return parseMove(input, args)
	case TypeUnpin:
		return parseUnpin(input, args)
	case TypeGoto:
		return parseGoto(input, args)
	case TypeNext:
		return parseNext(input, args)
	case TypeSleep:
		return parseSleep(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseStatus(raw string, typ Type, status model.InstanceStatus, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("%s requires one task", typ)
	}
	return Command{Type: typ, Raw: raw, Status: &StatusArgs{Target: args[0], Status: status}}, nil
}

func parseMove(raw string, args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalid("move requires task and HH:MM")
	}
	at, err := model.ParseClock(args[1])
	if err != nil || at >= model.EndOfDay {
		return Command{}, invalid("move time %q is not HH:MM", args[1])
	}
	return Command{Type: TypeMove, Raw: raw, Move: &MoveArgs{Target: args[0], At: at}}, nil
}

func parseUnpin(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("unpin requires one task")
	}
	return Command{Type: TypeUnpin, Raw: raw, Unpin: &UnpinArgs{Target: args[0]}}, nil
}

func parseGoto(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("goto requires a date")
	}
	arg := strings.ToLower(args[0])
	var g GotoArgs
	switch arg {
	case "today":
	case "tomorrow":
		g.Offset = 1
	case "yesterday":
		g.Offset = -1
	default:
		if strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-") {
			n, err := strconv.Atoi(arg)
			if err != nil {
				return Command{}, invalid("goto offset %q is not a number", args[0])
			}
			g.Offset = n
			break
		}
		d, err := model.ParseDate(arg)
		if err != nil {
			return Command{}, invalid("goto date %q is not YYYY-MM-DD", args[0])
		}
		g.Date = d
	}
	return Command{Type: TypeGoto, Raw: raw, Goto: &g}, nil
}

func parseNext(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("next requires a template id")
	}
	return Command{Type: TypeNext, Raw: raw, Next: &NextArgs{Template: args[0]}}, nil
}

func parseSleep(raw string, args []string) (Command, error) {
	if len(args) == 1 && strings.EqualFold(args[0], "reset") {
		return Command{Type: TypeSleep, Raw: raw, Sleep: &SleepArgs{Reset: true}}, nil
	}
	if len(args) != 2 {
		return Command{}, invalid("sleep requires wake and sleep as HH:MM, or reset")
	}
	wake, err := model.ParseClock(args[0])
	if err != nil || wake >= model.EndOfDay {
		return Command{}, invalid("wake time %q is not HH:MM", args[0])
	}
	bed, err := model.ParseClock(args[1])
	if err != nil {
		return Command{}, invalid("sleep time %q is not HH:MM", args[1])
	}
	if wake == bed {
		return Command{}, invalid("wake and sleep cannot both be %s", wake)
	}
	return Command{Type: TypeSleep, Raw: raw, Sleep: &SleepArgs{Schedule: model.SleepSchedule{Wake: wake, Sleep: bed}}}, nil
}
