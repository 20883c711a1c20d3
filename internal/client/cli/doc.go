// Package cli provides the interactive gophauth command-line client.
//
// Commands:
//   - register, login, logout
//   - whoami: show the identity carried by the current token
//   - ping: check that the server answers
//   - help, exit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits
// or ctx is cancelled.
package cli
