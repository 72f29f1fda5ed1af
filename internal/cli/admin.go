package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formguard/pkg/leads"
)

func limitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limit",
		Short: "Inspect or clear the submission rate limit",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show recorded attempts and whether submissions are allowed",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			limiter := app.svc.Limiter()
			cfg := limiter.Config()
			snap := limiter.Snapshot()
			decision := limiter.Check()

			app.printf("key: %s\n", cfg.Key)
			app.printf("attempts: %d/%d in %s\n", len(snap.Attempts), cfg.MaxAttempts, cfg.Window)
			if decision.Allowed {
				app.printf("status: open\n")
				return nil
			}
			app.printf("status: blocked for %d minute(s), until %s\n", decision.WaitMinutes, decision.Until.Format(time.RFC3339))
			return nil
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Forget all recorded attempts",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			app.svc.Limiter().Reset()
			app.printf("rate limit cleared\n")
			return nil
		},
	}

	cmd.AddCommand(status, reset)
	return cmd
}

func leadsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Manage recorded quote leads",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List leads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := app.svc.Leads().List(cmd.Context())
			if err != nil {
				return err
			}
			if len(all) == 0 {
				app.printf("no leads\n")
				return nil
			}
			tw := tabwriter.NewWriter(app.out(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tNAME\tEMAIL\tZIP\tSERVICE\tSTATUS")
			for _, l := range all {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					l.ID, l.CreatedAt.Local().Format("2006-01-02 15:04"), l.Name, l.Email, l.ZipCode, l.ServiceType, l.Status)
			}
			return tw.Flush()
		},
	}

	status := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a lead to new, contacted, booked or lost",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := leads.ParseStatus(args[1])
			if err != nil {
				return err
			}
			if err := app.svc.Leads().UpdateStatus(cmd.Context(), id, st); err != nil {
				return err
			}
			app.printf("%s -> %s\n", id, st)
			return nil
		},
	}

	notes := &cobra.Command{
		Use:   "notes <id> <text...>",
		Short: "Replace the notes on a lead",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return app.svc.Leads().UpdateNotes(cmd.Context(), id, strings.Join(args[1:], " "))
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.svc.Leads().Delete(cmd.Context(), id); err != nil {
				return err
			}
			app.printf("deleted %s\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, status, notes, del)
	return cmd
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid lead id %q: %w", raw, err)
	}
	return id, nil
}
