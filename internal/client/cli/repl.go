package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

// execIface is the command surface the REPL drives; App implements it.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Ping(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads one command per line until EOF, "exit"/"quit" or ctx is
// done. Command errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		printf(w, "gophauth %s> ", statusFn())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		var err error
		switch cmd := parts[0]; cmd {
		case "help":
			if a.isLoggedIn() {
				printf(w, "Available commands: whoami, ping, logout, exit\n")
			} else {
				printf(w, "Available commands: register, login, ping, exit\n")
			}
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "whoami":
			err = a.WhoAmI(ctx)
		case "ping":
			err = a.Ping(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "exit", "quit":
			printf(w, "Bye!\n")
			return
		default:
			printf(w, "Unknown command: %s\n", cmd)
		}

		if err != nil {
			printf(w, "Error: %s\n", describeError(err))
		}
	}
}

func describeError(err error) string {
	switch {
	case errors.Is(err, common.ErrConflict):
		return "username already exists"
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.Is(err, client.ErrNotLoggedIn):
		return "please log in first"
	default:
		return err.Error()
	}
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
