package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/planadmin/internal/client/services"
)

func (a *App) List(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("Usage: list <beneficiaries|providers|reimbursements> [page]")
	}
	kind, err := services.ParseRecordKind(args[0])
	if err != nil {
		return err
	}

	page := 1
	if len(args) > 1 {
		if page, err = strconv.Atoi(args[1]); err != nil || page < 1 {
			return usageError("page must be a positive number")
		}
	}

	p, err := a.recordsService.List(ctx, kind, page)
	if err != nil {
		return err
	}

	if len(p.Results) == 0 {
		fmt.Fprintln(a.out, "No records.")
		return nil
	}
	printRecords(a.out, p.Results)
	fmt.Fprintf(a.out, "page %d, %d of %d\n", page, len(p.Results), p.Count)
	return nil
}

func (a *App) Approve(ctx context.Context, args []string) error {
	return a.setStatus(ctx, args, services.StatusApproved)
}

func (a *App) Reject(ctx context.Context, args []string) error {
	return a.setStatus(ctx, args, services.StatusRejected)
}

func (a *App) setStatus(ctx context.Context, args []string, status services.ReimbursementStatus) error {
	if len(args) != 1 {
		return usageError("Usage: approve|reject <reimbursement id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return usageError("reimbursement id must be a number")
	}

	r, err := a.recordsService.SetReimbursementStatus(ctx, id, status)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Reimbursement %d is now %s.\n", r.ID, r.Status)
	return nil
}

// Settings prints the plan settings; "settings set" reads name=value lines
// and merges them into the current settings before saving.
func (a *App) Settings(ctx context.Context, args []string) error {
	current, err := a.recordsService.Settings(ctx)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		printSettings(a.out, current)
		return nil
	}
	if args[0] != "set" {
		return usageError("Usage: settings [set]")
	}

	changes, err := GetKeyValues(a.reader, "Enter settings to change", a.out)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		fmt.Fprintln(a.out, "Nothing to change.")
		return nil
	}

	if current == nil {
		current = services.Settings{}
	}
	for k, v := range changes {
		current[k] = v
	}

	saved, err := a.recordsService.UpdateSettings(ctx, current)
	if err != nil {
		return err
	}
	printSettings(a.out, saved)
	return nil
}

// printRecords prints rows as a table. The id column comes first, the rest
// follow in name order.
func printRecords(w io.Writer, rows []services.Record) {
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !slices.Contains(cols, k) {
				cols = append(cols, k)
			}
		}
	}
	slices.SortFunc(cols, func(x, y string) int {
		switch {
		case x == y:
			return 0
		case x == "id":
			return -1
		case y == "id":
			return 1
		case x < y:
			return -1
		}
		return 1
	})

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
	for _, r := range rows {
		for i, c := range cols {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			if v, ok := r[c]; ok && v != nil {
				fmt.Fprint(tw, v)
			}
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}

func printSettings(w io.Writer, s services.Settings) {
	if len(s) == 0 {
		fmt.Fprintln(w, "No settings.")
		return
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s = %v\n", k, s[k])
	}
}
