package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/nanofresh/invoicer/internal/export"
	"github.com/nanofresh/invoicer/internal/invoice"
	"github.com/nanofresh/invoicer/internal/workspace"
)

// env is what every command runs against.
type env struct {
	service *workspace.Service
	close   func(ctx context.Context)
}

type opener func(ctx context.Context) (*env, error)

var errNoWorkspace = errors.New("--workspace is required")

func newApp(open opener, out io.Writer) *cli.App {
	run := func(fn func(c *cli.Context, e *env, ws string) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			ws := c.String("workspace")
			if ws == "" {
				return errNoWorkspace
			}
			e, err := open(c.Context)
			if err != nil {
				return err
			}
			defer e.close(context.WithoutCancel(c.Context))
			return fn(c, e, ws)
		}
	}

	return &cli.App{
		Name:      "invoicectl",
		Usage:     "inspect drafts and export history of invoicer workspaces",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "workspace",
				Aliases: []string{"w"},
				Usage:   "workspace (session) id",
				EnvVars: []string{"INVOICER_WORKSPACE"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "draft",
				Usage: "show or clear the stored draft",
				Subcommands: []*cli.Command{
					{Name: "show", Usage: "print the draft as JSON", Action: run(draftShow(out))},
					{Name: "clear", Usage: "delete the draft", Action: run(draftClear(out))},
				},
			},
			{
				Name:  "history",
				Usage: "list or delete exported invoices",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "list exported invoices", Action: run(historyList(out))},
					{Name: "delete", Usage: "delete one entry", ArgsUsage: "ID", Action: run(historyDelete(out))},
				},
			},
			{Name: "stats", Usage: "print storage stats", Action: run(stats(out))},
			{
				Name:  "export",
				Usage: "export the working invoice to a PDF file and record it in history",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Value: ".", Usage: "output directory"},
				},
				Action: run(exportPDF(out)),
			},
		},
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func draftShow(out io.Writer) func(*cli.Context, *env, string) error {
	return func(c *cli.Context, e *env, ws string) error {
		draft, ok := e.service.Draft(c.Context, ws)
		if !ok {
			_, err := fmt.Fprintln(out, "no draft")
			return err
		}
		return writeJSON(out, draft)
	}
}

func draftClear(out io.Writer) func(*cli.Context, *env, string) error {
	return func(c *cli.Context, e *env, ws string) error {
		e.service.DiscardDraft(c.Context, ws)
		_, err := fmt.Fprintln(out, "draft cleared")
		return err
	}
}

func historyList(out io.Writer) func(*cli.Context, *env, string) error {
	return func(c *cli.Context, e *env, ws string) error {
		items := e.service.History(c.Context, ws)
		if len(items) == 0 {
			_, err := fmt.Fprintln(out, "no history")
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNO\tDATE\tCUSTOMER\tTOTAL\tEXPORTED")
		for _, inv := range items {
			exported := ""
			if inv.DownloadedAt != nil {
				exported = inv.DownloadedAt.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				inv.ID, inv.InvoiceNo, inv.Date, inv.Customer.BusinessName,
				invoice.FormatMoney(inv.Totals().Total), exported)
		}
		return tw.Flush()
	}
}

func historyDelete(out io.Writer) func(*cli.Context, *env, string) error {
	return func(c *cli.Context, e *env, ws string) error {
		id := c.Args().First()
		if id == "" {
			return errors.New("history delete: ID argument is required")
		}
		remaining := e.service.DeleteFromHistory(c.Context, ws, id)
		_, err := fmt.Fprintf(out, "%d entries remaining\n", len(remaining))
		return err
	}
}

func stats(out io.Writer) func(*cli.Context, *env, string) error {
	return func(c *cli.Context, e *env, ws string) error {
		return writeJSON(out, e.service.Stats(c.Context, ws))
	}
}

func exportPDF(out io.Writer) func(*cli.Context, *env, string) error {
	return func(c *cli.Context, e *env, ws string) error {
		dir := c.String("out")
		result, err := e.service.Export(c.Context, ws, export.DirDownloader{Dir: dir})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, filepath.Join(dir, result.Filename))
		return err
	}
}
