package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/haukened/rr-bindctl/internal/bind/services/credentials"
)

type ConfOptions struct {
	Out io.Writer

	Path        string
	Credentials bool
	ShowSecret  bool

	app *Application
}

// NewConfCommand prints a resolved rndc.conf, or the credentials taken
// from it.
func NewConfCommand(app *Application) *cobra.Command {
	o := &ConfOptions{app: app}

	cmd := &cobra.Command{
		Use:   "conf [path]",
		Short: "Resolve an rndc.conf and its includes",
		Long: "Resolve an rndc.conf and print the merged document. Without a path the\n" +
			"configured candidates are tried in order.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			return o.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&o.Credentials, "credentials", false, "print the selected server, port and key instead of the document")
	cmd.Flags().BoolVar(&o.ShowSecret, "show-secret", false, "include the key secret in --credentials output")

	return cmd
}

func (o *ConfOptions) Complete(cmd *cobra.Command, args []string) error {
	o.Out = cmd.OutOrStdout()
	if len(args) == 1 {
		o.Path = args[0]
	}
	return nil
}

func (o *ConfOptions) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if o.Credentials {
		return o.printCredentials(ctx)
	}

	path := o.Path
	if path == "" {
		l, err := o.app.credentialLoader()
		if err != nil {
			return err
		}
		if path, err = l.Locate(ctx); err != nil {
			return err
		}
	}
	cache, err := o.app.resolver()
	if err != nil {
		return err
	}
	res, err := cache.Resolve(path)
	if err != nil {
		return err
	}
	o.app.named("conf").Info(map[string]any{"path": path, "files": res.Files}, "rndc_conf_printed")
	_, err = fmt.Fprint(o.Out, res.Document.ToConfFile())
	return err
}

func (o *ConfOptions) printCredentials(ctx context.Context) error {
	creds, err := o.loader(ctx)
	if err != nil {
		return err
	}
	secret := "<hidden>"
	if o.ShowSecret {
		secret = creds.Secret
	}
	_, err = fmt.Fprintf(o.Out, "source: %s\nserver: %s\nkey: %s\nalgorithm: %s\nsecret: %s\n",
		creds.Source, creds.Address(), creds.KeyName, creds.Algorithm, secret)
	return err
}

func (o *ConfOptions) loader(ctx context.Context) (credentials.Credentials, error) {
	l, err := o.app.credentialLoader()
	if err != nil {
		return credentials.Credentials{}, err
	}
	if o.Path != "" {
		return l.LoadFrom(ctx, o.Path)
	}
	return l.Load(ctx)
}
