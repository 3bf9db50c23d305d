package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/couchbase/couchdb-cluster-setup/aprov"
	"github.com/couchbase/couchdb-cluster-setup/clustersetup"
	"github.com/couchbase/couchdb-cluster-setup/config"
	"github.com/couchbase/couchdb-cluster-setup/couchrest"
	"github.com/couchbase/couchdb-cluster-setup/errutil"
	"github.com/couchbase/couchdb-cluster-setup/httptools"
	"github.com/couchbase/couchdb-cluster-setup/log"
	"github.com/couchbase/couchdb-cluster-setup/tlsutil"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

// Exit codes of the command.
const (
	exitSuccess     = 0
	exitRunFailure  = 1
	exitConfigError = 2
)

// errNotFormed is returned by 'status' when the cluster hasn't been fully formed.
var errNotFormed = errors.New("cluster is not formed")

// globalOptions are the flags shared by every sub-command.
type globalOptions struct {
	inputs config.Inputs

	logLevel  string
	logFormat string

	caCert            string
	noSSLVerify       bool
	clientCert        string
	clientKey         string
	clientKeyPassword string
}

// streams are where command output is written, summaries go to 'out' and logs to 'err'.
type streams struct {
	out io.Writer
	err io.Writer
}

// execute runs the command with the given arguments, returning the exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCommand(args, streams{out: stdout, err: stderr})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitSuccess
	}

	if errors.Is(err, errNotFormed) {
		fmt.Fprintln(stderr, err)
		return exitRunFailure
	}

	fmt.Fprintf(stderr, "Error: %s\n", err)

	if cause := errutil.Unwrap(err); cause.Error() != err.Error() {
		fmt.Fprintf(stderr, "Cause: %s\n", cause)
	}

	if httptools.IsAuthError(err) {
		fmt.Fprintf(stderr, "Hint: check the admin credentials given by --username/--password or %s/%s\n",
			config.UsernameEnvVar, config.PasswordEnvVar)
	}

	if clustersetup.IsConfigError(err) {
		return exitConfigError
	}

	return exitRunFailure
}

func newRootCommand(args []string, streams streams) *cobra.Command {
	options := &globalOptions{}

	root := &cobra.Command{
		Use:           "couchdb-cluster-setup",
		Short:         "Form independent CouchDB nodes into a cluster",
		Long:          "Form a set of independent CouchDB nodes into a single cluster using the '/_cluster_setup' API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clustersetup.NewConfigError("flags", err)
	})

	flags := root.PersistentFlags()
	flags.StringVar(&options.inputs.Nodes, "nodes", "",
		"comma separated nodes to form into a cluster e.g. 'couchdb-0:5984,couchdb-1:5984', the first is the "+
			"coordinator (env "+config.NodesEnvVar+")")
	flags.StringVarP(&options.inputs.Username, "username", "u", "", "admin username (env "+config.UsernameEnvVar+")")
	flags.StringVarP(&options.inputs.Password, "password", "p", "", "admin password (env "+config.PasswordEnvVar+")")
	flags.StringVar(&options.logLevel, "log-level", "info", "one of trace, debug, info, warn or error")
	flags.StringVar(&options.logFormat, "log-format", logFormatText, "one of text, json or stdout")
	flags.StringVar(&options.caCert, "cacert", "", "PEM encoded CA certificate(s) used to verify 'https' nodes")
	flags.BoolVar(&options.noSSLVerify, "no-ssl-verify", false, "skip verification of the node certificates")
	flags.StringVar(&options.clientCert, "client-cert", "", "PEM client certificate, or an encrypted PKCS#12 bundle")
	flags.StringVar(&options.clientKey, "client-key", "", "PEM client key, either unencrypted or encrypted PKCS#8")
	flags.StringVar(&options.clientKeyPassword, "client-key-password", "",
		"password for the client key or PKCS#12 bundle")

	root.AddCommand(newFormCommand(options, args, streams), newStatusCommand(options, args, streams))

	return root
}

// prepared is everything a sub-command needs to talk to the nodes.
type prepared struct {
	topology    *topology.Topology
	credentials *aprov.Static
	client      *couchrest.Client
	logger      log.Logger
}

// prepare resolves the inputs and builds the logger and node client, every error is a 'ConfigError'.
func (o *globalOptions) prepare(args []string, streams streams) (*prepared, error) {
	logger, err := newLogger(o.logLevel, o.logFormat, streams.err)
	if err != nil {
		return nil, err
	}

	wrapped := log.NewWrappedLogger(logger)
	wrapped.Infof("(CLI) Running with arguments: %s", log.MaskSetupArguments(args))

	top, credentials, err := config.Resolve(o.inputs, config.LoadEnvironment())
	if err != nil {
		return nil, err
	}

	clientOptions := couchrest.ClientOptions{
		Credentials:    credentials,
		UseTLS:         top.UseTLS,
		ReqResLogLevel: log.LevelTrace,
		Logger:         logger,
	}

	tlsOptions, err := tlsutil.LoadOptions(
		tlsutil.Paths{CACert: o.caCert, ClientCert: o.clientCert, ClientKey: o.clientKey},
		[]byte(o.clientKeyPassword),
		o.noSSLVerify,
	)
	if err != nil {
		return nil, clustersetup.NewConfigError("tls", err)
	}

	switch {
	case tlsOptions.Enabled() && !top.UseTLS:
		wrapped.Warnf("(CLI) TLS options provided for an 'http' topology, they will be ignored")
	case top.UseTLS:
		clientOptions.TLSConfig, err = tlsutil.NewTLSConfig(tlsOptions)
		if err != nil {
			return nil, clustersetup.NewConfigError("tls", err)
		}
	}

	client, err := couchrest.NewClient(clientOptions)
	if err != nil {
		return nil, clustersetup.NewConfigError("client", err)
	}

	return &prepared{topology: top, credentials: credentials, client: client, logger: logger}, nil
}

func (p *prepared) setup(options formOptions) (*clustersetup.Setup, error) {
	return clustersetup.New(p.client, clustersetup.Config{
		Topology:       p.topology,
		Credentials:    p.credentials,
		BindAddress:    options.bindAddress,
		Concurrency:    options.concurrency,
		VerifyAttempts: options.verifyAttempts,
		VerifyInterval: options.verifyInterval,
	}, p.logger)
}
