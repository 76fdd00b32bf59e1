package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives.
type execIface interface {
	Execute(ctx context.Context, args []string) error
}

// runREPL reads one line at a time from reader, splits it into words and
// hands them to a. Command errors are printed and the loop goes on. The
// loop ends on EOF, on "exit"/"quit", or when ctx is cancelled.
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn("cards>")
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}

		parts, perr := splitArgs(strings.TrimSpace(line))
		switch {
		case perr != nil:
			printlnFn("Error:", perr)
		case len(parts) == 0:
		case parts[0] == "exit" || parts[0] == "quit":
			printlnFn("Bye!")
			return
		case parts[0] == "shell":
			printlnFn("Already in the shell")
		default:
			if xerr := a.Execute(ctx, parts); xerr != nil {
				printlnFn("Error:", xerr)
			}
		}

		if err != nil {
			return
		}
	}
}

// Shell starts the interactive mode on the app's input.
func (a *App) Shell(ctx context.Context) error {
	printlnFn("Trading card collection shell. Type 'help' for commands, 'exit' to leave.")
	runREPL(ctx, a, a.reader)
	return nil
}
