package expr

import (
	"fmt"

	"github.com/san-kum/popdyn/internal/dynamo"
)

// Error describes a formula that could not be parsed or evaluated. Pos is
// the byte offset into Input, or -1 when no single position applies.
type Error struct {
	Input string
	Pos   int
	Msg   string
}

func (e *Error) Error() string {
	if e.Pos < 0 {
		return fmt.Sprintf("expression %q: %s", e.Input, e.Msg)
	}
	return fmt.Sprintf("expression %q: %s at position %d", e.Input, e.Msg, e.Pos)
}

func (e *Error) Unwrap() error { return dynamo.ErrExpression }
