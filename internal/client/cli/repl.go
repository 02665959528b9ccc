package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	State(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Approve(ctx context.Context, args []string) error
	Reject(ctx context.Context, args []string) error
	Settings(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
//
// Command handlers return errors instead of printing them; the loop prints
// the error message and keeps going. It exits on EOF, "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "planadmin %s> ", statusFn())
		line, err := readLine(reader)
		if err != nil {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: whoami, state, list <kind> [page], approve <id>, reject <id>, settings [set], upload <path> [kind], logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: login [email], state, exit")
			}

		case "login":
			cmdErr = a.Login(ctx, args)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "whoami":
			cmdErr = a.WhoAmI(ctx)

		case "state":
			cmdErr = a.State(ctx)

		case "l", "list":
			cmdErr = a.List(ctx, args)

		case "approve":
			cmdErr = a.Approve(ctx, args)

		case "reject":
			cmdErr = a.Reject(ctx, args)

		case "settings":
			cmdErr = a.Settings(ctx, args)

		case "upload":
			cmdErr = a.Upload(ctx, args)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(w, "Error:", userMessage(cmdErr))
		}
	}
}
