package cli

import (
	"context"
	"fmt"
)

func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return usageError("Usage: upload <path> [kind]")
	}
	kind := ""
	if len(args) == 2 {
		kind = args[1]
	}

	res, err := a.uploadService.Upload(ctx, args[0], kind)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %s as %s (id %s, %d bytes).\n", res.Name, res.Kind, res.ID, res.Size)
	return nil
}
