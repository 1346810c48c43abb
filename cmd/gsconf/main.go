// Command gsconf reconciles managed switches against declarative YAML
// documents. Runs are dry by default: plan and apply both show what
// would change, and only apply -x sends anything to the device.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gsconf-net/gsconf/pkg/model"
	"github.com/gsconf-net/gsconf/pkg/spec"
	"github.com/gsconf-net/gsconf/pkg/transport"
	"github.com/gsconf-net/gsconf/pkg/util"
	"github.com/gsconf-net/gsconf/pkg/version"
)

var (
	flagSpec     string
	flagTarget   string
	flagUsername string
	flagPassword string
	flagModel    string
	flagUseTLS   bool
	flagInsecure bool
	flagTimeout  time.Duration
	flagVerbose  bool
)

func main() {
	root := &cobra.Command{
		Use:           "gsconf",
		Short:         "Declarative configuration for GS-series managed switches",
		Version:       version.Info(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagVerbose {
				return util.SetLogLevel("debug")
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flagSpec, "file", "f", "", "device spec file (YAML)")
	pf.StringVar(&flagTarget, "target", "", "device address (host[:port])")
	pf.StringVar(&flagUsername, "username", "", "login username")
	pf.StringVar(&flagPassword, "password", "", "login password (prompted when empty)")
	pf.StringVar(&flagModel, "model", "", "expected family hint (gs1900, gs1915, gs1920)")
	pf.BoolVar(&flagUseTLS, "use-tls", false, "connect over https")
	pf.BoolVar(&flagInsecure, "insecure", false, "skip TLS certificate verification")
	pf.DurationVar(&flagTimeout, "timeout", 0, "per-request timeout")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newDetectCmd(), newFactsCmd(), newPlanCmd(), newApplyCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadDocument merges the spec file (when given) with flag overrides.
// Flags win so an operator can retarget a document without editing it.
func loadDocument() (*spec.Document, error) {
	doc := &spec.Document{}
	if flagSpec != "" {
		loaded, err := spec.Load(flagSpec)
		if err != nil {
			return nil, err
		}
		doc = loaded
	}
	if flagTarget != "" {
		doc.Target = flagTarget
	}
	if flagUsername != "" {
		doc.Username = flagUsername
	}
	if flagPassword != "" {
		doc.Password = flagPassword
	}
	if flagModel != "" {
		doc.Model = flagModel
	}
	if flagUseTLS {
		doc.UseTLS = true
	}
	if flagInsecure {
		doc.Insecure = true
	}
	if flagTimeout > 0 {
		doc.Timeout = flagTimeout.String()
	}

	if doc.Target == "" {
		return nil, fmt.Errorf("no target: set --target or the spec's target field")
	}
	if doc.Username == "" {
		return nil, fmt.Errorf("no username: set --username or the spec's username field")
	}
	if doc.Password == "" {
		pw, err := promptPassword(doc.Target)
		if err != nil {
			return nil, err
		}
		doc.Password = pw
	}
	return doc, nil
}

func promptPassword(target string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no password: set --password or run interactively")
	}
	fmt.Fprintf(os.Stderr, "Password for %s: ", target)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

func transportConfig(doc *spec.Document) (transport.Config, model.Family, error) {
	timeout, err := doc.TimeoutDuration()
	if err != nil {
		return transport.Config{}, "", err
	}
	family, err := doc.Family()
	if err != nil {
		return transport.Config{}, "", err
	}
	return transport.Config{
		Target:   doc.Target,
		Username: doc.Username,
		Password: doc.Password,
		UseTLS:   doc.UseTLS,
		Insecure: doc.Insecure,
		Timeout:  timeout,
	}, family, nil
}
