// Package diagnostics renders a lowering error for a human reader. It is
// ambient tooling for the demo CLI only — the lowering core itself returns
// plain Go errors and never formats or colors anything.
//
// Styling is grounded on kanso-lang-kanso's internal/errors.ErrorReporter:
// a bold level tag plus a dimmed detail line, built with
// github.com/fatih/color.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"armgen/src/env"
	"armgen/src/lower"
)

// Format renders err as a short, colorized diagnostic: an "error:" line
// with the message and a "kind:" line naming the error type. Unrecognized
// error types get the same two lines with kind "Unknown".
func Format(err error) string {
	if err == nil {
		return ""
	}

	bold := color.New(color.Bold, color.FgRed).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s\n", bold("error:"), err.Error()))
	sb.WriteString(fmt.Sprintf("%s %s\n", dim("kind:"), kindOf(err)))
	return sb.String()
}

func kindOf(err error) string {
	switch err.(type) {
	case *env.UnknownNameError:
		return "UnknownName"
	case *env.NoFreeRegisterError:
		return "NoFreeRegister"
	case *env.RegisterInUseError:
		return "RegisterInUse"
	case *env.DuplicateFunctionError:
		return "DuplicateFunction"
	case *lower.UnknownFunctionError:
		return "UnknownFunction"
	case *lower.UnsupportedOperatorError:
		return "UnsupportedOperator"
	case *lower.UnsupportedForRangeError:
		return "UnsupportedForRange"
	case *lower.UnsupportedFlowError:
		return "UnsupportedFlow"
	case *lower.InvalidASTError:
		return "InvalidAST"
	default:
		return "Unknown"
	}
}
