package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
)

type App struct {
	config   *config.Config
	client   client.Client
	reader   *bufio.Reader
	out      io.Writer
	userName string
}

// NewApp connects to the configured server and reads commands from stdin.
func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewAuthClient(c.ServerEndpointAddr,
		client.WithTimeout(c.RequestTimeout),
		client.WithRetry(c.RetryMaxElapsed),
	)
	if err != nil {
		return nil, err
	}
	return newApp(c, apiClient, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, cl client.Client, in io.Reader, out io.Writer) *App {
	return &App{config: c, client: cl, reader: bufio.NewReader(in), out: out}
}

func (a *App) Run(ctx context.Context) error {
	defer a.client.Close()

	printf(a.out, "Welcome to gophauth CLI (type 'help' for commands)\n")
	runREPL(ctx, a, a.status, bufio.NewScanner(a.reader), a.out)
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.client.LoggedIn()
}

func (a *App) status() string {
	if a.userName == "" || !a.isLoggedIn() {
		return ""
	}
	return "(" + a.userName + ")"
}
