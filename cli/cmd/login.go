package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/scrutin-io/scrutin/auth"
	"github.com/scrutin-io/scrutin/prefs"
)

// LoginCommand returns the login command. The token is issued by the
// backend out of band; this command only validates and persists it.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "Store an auth token for subsequent commands",
		ArgsUsage: "<token>",
		Flags:     []cli.Flag{ConfigFlag},
		Action:    loginAction,
	}
}

func loginAction(c *cli.Context) error {
	token := c.Args().First()
	if token == "" {
		return fmt.Errorf("usage: scrutin login <token>")
	}
	if !auth.Usable(token, time.Now()) {
		return fmt.Errorf("token is expired or undecodable")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	path := cfg.PrefsPath
	if path == "" {
		path = prefs.DefaultPath()
	}

	p, err := prefs.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	if err := p.SetToken(token); err != nil {
		return err
	}

	if exp, err := auth.Expiry(token); err == nil {
		fmt.Printf("Logged in, token valid until %s\n", exp.Format(time.RFC3339))
	} else {
		fmt.Println("Logged in")
	}
	return nil
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Clear the stored auth token and scope",
		Flags:  []cli.Flag{ConfigFlag},
		Action: logoutAction,
	}
}

func logoutAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	path := cfg.PrefsPath
	if path == "" {
		path = prefs.DefaultPath()
	}

	p, err := prefs.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	if err := p.Reset(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}
