package commands

import (
	"fmt"

	"github.com/sandeepkv93/dayplan/internal/model"
)

// Result is what a handler reports back. Date is set when the command moves
// the view to another day.
type Result struct {
	Message string
	Date    model.Date
}

type Handlers struct {
	Status func(StatusArgs) (Result, error)
	Move   func(MoveArgs) (Result, error)
	Unpin  func(UnpinArgs) (Result, error)
	Goto   func(GotoArgs) (Result, error)
	Next   func(NextArgs) (Result, error)
	Sleep  func(SleepArgs) (Result, error)
}

func missing(name string) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: name + " handler not configured"}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeDone, TypeSkip, TypePostpone, TypeReset:
		if handlers.Status == nil {
			return Result{}, missing("status")
		}
		return handlers.Status(*cmd.Status)
	case TypeMove:
		if handlers.Move == nil {
			return Result{}, missing("move")
		}
		return handlers.Move(*cmd.Move)
	case TypeUnpin:
		if handlers.Unpin == nil {
			return Result{}, missing("unpin")
		}
		return handlers.Unpin(*cmd.Unpin)
	case TypeGoto:
		if handlers.Goto == nil {
			return Result{}, missing("goto")
		}
		return handlers.Goto(*cmd.Goto)
	case TypeNext:
		if handlers.Next == nil {
			return Result{}, missing("next")
		}
		return handlers.Next(*cmd.Next)
	case TypeSleep:
		if handlers.Sleep == nil {
			return Result{}, missing("sleep")
		}
		return handlers.Sleep(*cmd.Sleep)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
