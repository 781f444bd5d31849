// Package credentials turns a resolved rndc.conf into the connection
// settings a control channel client needs.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/haukened/rr-bindctl/internal/bind/common/log"
	"github.com/haukened/rr-bindctl/internal/bind/domain"
	"github.com/haukened/rr-bindctl/internal/bind/repos/rndcconf"
)

const (
	DefaultServer = "127.0.0.1"
	DefaultPort   = uint16(953)
)

// ErrNoConfig is returned when none of the candidate paths exists.
var ErrNoConfig = errors.New("no rndc configuration found")

// Resolver resolves an rndc.conf and its includes. credcache.Cache and a
// plain rndcconf.Resolve wrapper both satisfy it.
type Resolver interface {
	Resolve(path string) (rndcconf.Resolution, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(path string) (rndcconf.Resolution, error)

func (f ResolverFunc) Resolve(path string) (rndcconf.Resolution, error) { return f(path) }

// Credentials are the settings for one control channel connection.
type Credentials struct {
	Server    string
	Port      uint16
	KeyName   string
	Algorithm string
	Secret    string
	// Source is the root configuration file the values came from.
	Source string
}

// Address returns server:port, bracketing IPv6 literals.
func (c Credentials) Address() string {
	if strings.Contains(c.Server, ":") {
		return fmt.Sprintf("[%s]:%d", c.Server, c.Port)
	}
	return fmt.Sprintf("%s:%d", c.Server, c.Port)
}

type Loader struct {
	candidates        []string
	resolver          Resolver
	logger            log.Logger
	expectedAlgorithm string
}

type LoaderOptions struct {
	// Candidates are tried in order; the first that exists is used.
	Candidates []string
	Resolver   Resolver
	Logger     log.Logger
	// ExpectedAlgorithm, when set, logs a warning for keys using another
	// algorithm. It never rejects a key.
	ExpectedAlgorithm string
}

func NewLoader(opts LoaderOptions) *Loader {
	l := &Loader{
		candidates:        opts.Candidates,
		resolver:          opts.Resolver,
		logger:            opts.Logger,
		expectedAlgorithm: opts.ExpectedAlgorithm,
	}
	if l.resolver == nil {
		l.resolver = ResolverFunc(rndcconf.Resolve)
	}
	if l.logger == nil {
		l.logger = log.NewNoopLogger()
	}
	return l
}

// Load reads the first candidate that exists. A candidate that exists but
// fails to resolve is an error; later candidates are not tried.
func (l *Loader) Load(ctx context.Context) (Credentials, error) {
	path, err := l.Locate(ctx)
	if err != nil {
		return Credentials{}, err
	}
	return l.LoadFrom(ctx, path)
}

// Locate returns the first candidate path that exists.
func (l *Loader) Locate(ctx context.Context) (string, error) {
	for _, path := range l.candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			l.logger.Debug(map[string]any{"path": path}, "rndc_conf_candidate_missing")
			continue
		}
		return path, nil
	}
	return "", fmt.Errorf("%w (tried %s): %w", ErrNoConfig, strings.Join(l.candidates, ", "), domain.ErrFileNotFound)
}

// LoadFrom resolves the configuration rooted at path.
func (l *Loader) LoadFrom(ctx context.Context, path string) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}
	res, err := l.resolver.Resolve(path)
	if err != nil {
		l.logger.Error(map[string]any{"path": path, "error": err}, "rndc_conf_resolve_failed")
		return Credentials{}, fmt.Errorf("loading credentials from %s: %w", path, err)
	}

	creds, err := FromDocument(res.Document)
	if err != nil {
		return Credentials{}, fmt.Errorf("loading credentials from %s: %w", path, err)
	}
	creds.Source = path

	l.logger.Info(map[string]any{
		"path":   path,
		"files":  len(res.Files),
		"server": creds.Server,
		"key":    creds.KeyName,
	}, "rndc_conf_resolved")
	if l.expectedAlgorithm != "" && !strings.EqualFold(creds.Algorithm, l.expectedAlgorithm) {
		l.logger.Warn(map[string]any{
			"key":       creds.KeyName,
			"algorithm": creds.Algorithm,
			"expected":  l.expectedAlgorithm,
		}, "rndc_key_algorithm_unexpected")
	}
	return creds, nil
}

// FromDocument picks the server, port and key a client would use.
//
// The server is the default-server option, else 127.0.0.1. The port and key
// come from a server block for that address first, then from the
// default-port and default-key options. The port falls back to 953. With no
// key named anywhere, a document holding exactly one key uses it.
func FromDocument(doc domain.ConfigDocument) (Credentials, error) {
	creds := Credentials{Server: DefaultServer, Port: DefaultPort}
	if server, ok := doc.DefaultServer(); ok {
		creds.Server = server
	}

	var keyName *string
	srv, hasServer := doc.Servers[creds.Server]
	if hasServer && srv.Port != nil {
		creds.Port = *srv.Port
	} else if doc.Options.DefaultPort != nil {
		creds.Port = *doc.Options.DefaultPort
	}
	if hasServer && srv.Key != nil {
		keyName = srv.Key
	} else if doc.Options.DefaultKey != nil {
		keyName = doc.Options.DefaultKey
	}

	var key domain.KeyBlock
	switch {
	case keyName != nil:
		k, ok := doc.Keys[*keyName]
		if !ok {
			return Credentials{}, fmt.Errorf("%w: key %q is referenced but not defined", domain.ErrMissingField, *keyName)
		}
		key = k
	case len(doc.Keys) == 1:
		for _, k := range doc.Keys {
			key = k
		}
	case len(doc.Keys) == 0:
		return Credentials{}, fmt.Errorf("%w: no key defined", domain.ErrMissingField)
	default:
		return Credentials{}, fmt.Errorf("%w: several keys defined and none selected by default-key", domain.ErrMissingField)
	}

	creds.KeyName = key.Name
	creds.Algorithm = key.Algorithm
	creds.Secret = key.Secret
	return creds, nil
}
