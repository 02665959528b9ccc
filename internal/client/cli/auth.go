package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/planadmin/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for whatever credentials were not given as arguments and
// exchanges them for a session. The password buffer is wiped afterwards.
func (a *App) Login(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
			return err
		}
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	sess, err := a.authService.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s (%s).\n", sess.User.Name, sess.User.Role)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	s := a.authService.Current()
	if s == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}

	fmt.Fprintf(a.out, "%s <%s>\n", s.User.Name, s.User.Email)
	fmt.Fprintf(a.out, "role: %s\n", s.User.Role)
	if len(s.User.Permissions) > 0 {
		fmt.Fprintf(a.out, "permissions: %s\n", strings.Join(s.User.Permissions, ", "))
	}
	if !s.ExpiresAt.IsZero() {
		fmt.Fprintf(a.out, "access token expires: %s\n", s.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func (a *App) State(ctx context.Context) error {
	fmt.Fprintln(a.out, a.stateFn())
	return nil
}
