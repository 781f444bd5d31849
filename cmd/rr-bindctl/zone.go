package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/haukened/rr-bindctl/internal/bind/repos/zonepatch"
	"github.com/haukened/rr-bindctl/internal/bind/services/zones"
)

// NewZoneCommand groups the zone block subcommands.
func NewZoneCommand(app *Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zone",
		Short: "Parse and rewrite zone blocks reported by showzone",
	}
	cmd.AddCommand(newZoneNormalizeCommand(app))
	cmd.AddCommand(newZoneModifyCommand(app))
	cmd.AddCommand(newZoneHistoryCommand(app))
	return cmd
}

type ZoneNormalizeOptions struct {
	In  io.Reader
	Out io.Writer

	app *Application
}

func newZoneNormalizeCommand(app *Application) *cobra.Command {
	o := &ZoneNormalizeOptions{app: app}
	return &cobra.Command{
		Use:   "normalize",
		Short: "Read showzone output on stdin and print the equivalent modzone block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o.In, o.Out = cmd.InOrStdin(), cmd.OutOrStdout()
			return o.Run()
		},
	}
}

func (o *ZoneNormalizeOptions) Run() error {
	text, err := io.ReadAll(o.In)
	if err != nil {
		return fmt.Errorf("reading showzone output: %w", err)
	}
	res, err := o.app.zoneManager(nil).Normalize(string(text))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(o.Out, res.Block)
	return err
}

type ZoneModifyOptions struct {
	In  io.Reader
	Out io.Writer

	PatchFile string
	NoRecord  bool

	app *Application
}

func newZoneModifyCommand(app *Application) *cobra.Command {
	o := &ZoneModifyOptions{app: app}
	cmd := &cobra.Command{
		Use:   "modify --patch <file>",
		Short: "Apply a patch to showzone output read from stdin and print the new block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.Complete(cmd); err != nil {
				return err
			}
			return o.Run()
		},
	}
	cmd.Flags().StringVar(&o.PatchFile, "patch", "", "patch document (yaml, json or toml); relative names are also looked up in the zone dir")
	cmd.Flags().BoolVar(&o.NoRecord, "no-record", false, "do not record the rendered block in the history store")
	_ = cmd.MarkFlagRequired("patch")
	return cmd
}

func (o *ZoneModifyOptions) Complete(cmd *cobra.Command) error {
	o.In, o.Out = cmd.InOrStdin(), cmd.OutOrStdout()
	if o.PatchFile == "" {
		return errors.New("--patch is required")
	}
	o.PatchFile = o.resolvePatchPath(o.PatchFile)
	return nil
}

// resolvePatchPath falls back to the configured zone dir for relative
// names that do not exist in the working directory.
func (o *ZoneModifyOptions) resolvePatchPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if _, err := os.Stat(name); err == nil {
		return name
	}
	candidate := filepath.Join(o.app.config.ZoneDir, name)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return name
}

func (o *ZoneModifyOptions) Run() error {
	patch, err := zonepatch.Load(o.PatchFile)
	if err != nil {
		return err
	}
	text, err := io.ReadAll(o.In)
	if err != nil {
		return fmt.Errorf("reading showzone output: %w", err)
	}

	var store zones.Store
	if !o.NoRecord {
		st, err := o.app.openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		store = st
	}

	res, err := o.app.zoneManager(store).Modify(string(text), patch)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(o.Out, res.Block)
	return err
}

type ZoneHistoryOptions struct {
	Out io.Writer

	Zone  string
	Limit int

	app *Application
}

func newZoneHistoryCommand(app *Application) *cobra.Command {
	o := &ZoneHistoryOptions{app: app}
	cmd := &cobra.Command{
		Use:   "history <zone>",
		Short: "Print the blocks recorded for a zone, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.Out, o.Zone = cmd.OutOrStdout(), args[0]
			return o.Run()
		},
	}
	cmd.Flags().IntVar(&o.Limit, "limit", 10, "maximum number of entries; 0 prints all")
	return cmd
}

func (o *ZoneHistoryOptions) Run() error {
	st, err := o.app.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := o.app.zoneManager(st).History(o.Zone, o.Limit)
	if err != nil {
		return err
	}
	for _, r := range records {
		if _, err := fmt.Fprintf(o.Out, "%d\t%s\t%s\n", r.Seq, r.AppliedAt.Format(time.RFC3339), r.Block); err != nil {
			return err
		}
	}
	return nil
}
