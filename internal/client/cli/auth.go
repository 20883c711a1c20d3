package cli

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Test seams for interactive input.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) credentials() (string, []byte, error) {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	resp, err := a.client.Register(ctx, userName, string(password))
	if err != nil {
		return err
	}

	printf(a.out, "Registered %s (id %s)\n", resp.Username, resp.ID)
	return nil
}

// Login authenticates and keeps the access token in the client.
func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	resp, err := a.client.Login(ctx, userName, string(password))
	if err != nil {
		return err
	}

	a.userName = userName
	printf(a.out, "Logged in as %s, token valid until %s\n", userName, resp.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	me, err := a.client.WhoAmI(ctx)
	if err != nil {
		return err
	}
	printf(a.out, "%s (id %s), token valid until %s\n", me.Username, me.UserID, me.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	if err := a.client.Ping(ctx); err != nil {
		return err
	}
	printf(a.out, "Server is online\n")
	return nil
}

func (a *App) Logout(context.Context) error {
	a.client.Logout()
	a.userName = ""
	printf(a.out, "Logged out\n")
	return nil
}
