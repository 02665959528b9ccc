package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/planadmin/internal/client/client"
	"github.com/dmitrijs2005/planadmin/internal/common"
)

// usageError is printed as is.
type usageError string

func (e usageError) Error() string { return string(e) }

// userMessage turns a command error into a line fit for the console.
func userMessage(err error) string {
	var le *client.LoginError
	var ue usageError
	switch {
	case errors.As(err, &ue):
		return ue.Error()
	case errors.As(err, &le):
		return le.Error()
	case errors.Is(err, common.ErrLoginRequired), errors.Is(err, common.ErrUnauthorized):
		return "please log in"
	case errors.Is(err, common.ErrForbidden):
		return "your role does not allow this"
	case errors.Is(err, common.ErrNetwork):
		return common.ErrNetwork.Error()
	case errors.Is(err, common.ErrNotFound):
		return "not found"
	}
	return fmt.Sprint(err)
}
