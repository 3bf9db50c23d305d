package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/couchbase/couchdb-cluster-setup/clustersetup"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

func TestLoadEnvironment(t *testing.T) {
	t.Setenv(NodesEnvVar, "a,b,c")
	t.Setenv(UsernameEnvVar, "admin")
	t.Setenv(PasswordEnvVar, "password")

	require.Equal(t, Environment{Nodes: "a,b,c", Username: "admin", Password: "password"}, LoadEnvironment())
}

func TestLoadEnvironmentUnset(t *testing.T) {
	t.Setenv(NodesEnvVar, "")
	t.Setenv(UsernameEnvVar, "")
	t.Setenv(PasswordEnvVar, "")

	require.Equal(t, Environment{}, LoadEnvironment())
}

func TestResolve(t *testing.T) {
	type test struct {
		name     string
		inputs   Inputs
		env      Environment
		nodes    string
		username string
		password string
		field    string
	}

	tests := []*test{
		{
			name:     "FromEnvironment",
			env:      Environment{Nodes: "a,b", Username: "admin", Password: "password"},
			nodes:    "a:5984,b:5984",
			username: "admin",
			password: "password",
		},
		{
			name:     "FlagsWin",
			inputs:   Inputs{Nodes: "c", Username: "root", Password: "secret"},
			env:      Environment{Nodes: "a,b", Username: "admin", Password: "password"},
			nodes:    "c:5984",
			username: "root",
			password: "secret",
		},
		{
			name:     "Mixed",
			inputs:   Inputs{Password: "secret"},
			env:      Environment{Nodes: "a:15984", Username: "admin"},
			nodes:    "a:15984",
			username: "admin",
			password: "secret",
		},
		{
			name:  "NoNodes",
			env:   Environment{Username: "admin", Password: "password"},
			field: "topology",
		},
		{
			name:  "InvalidNodes",
			env:   Environment{Nodes: "a:notaport", Username: "admin", Password: "password"},
			field: "topology",
		},
		{
			name:  "NoUsername",
			env:   Environment{Nodes: "a", Password: "password"},
			field: "credentials",
		},
		{
			name:  "NoPassword",
			env:   Environment{Nodes: "a", Username: "admin"},
			field: "credentials",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			top, credentials, err := Resolve(test.inputs, test.env)

			if test.field != "" {
				var configErr *clustersetup.ConfigError

				require.ErrorAs(t, err, &configErr)
				require.Equal(t, test.field, configErr.Field)

				return
			}

			require.NoError(t, err)
			require.Equal(t, test.nodes, top.String())
			require.Equal(t, test.username, credentials.Username)
			require.Equal(t, test.password, credentials.Password)
		})
	}
}

func TestResolveInvalidPortIsParseError(t *testing.T) {
	_, _, err := Resolve(Inputs{Nodes: "a:0"}, Environment{Username: "admin", Password: "password"})

	var parseErr *topology.ParseError

	require.ErrorAs(t, err, &parseErr)
	require.ErrorIs(t, err, topology.ErrBadPort)
}
