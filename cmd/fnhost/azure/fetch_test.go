// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package azure

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/fnhost/cmd/fnhost/cli"
	"github.com/bureau-foundation/fnhost/lib/cloud"
	"github.com/bureau-foundation/fnhost/lib/secrets"
)

func setup(t *testing.T, manager cloud.Manager) (*cli.Router, *secrets.Store, *strings.Builder) {
	t.Helper()
	store := secrets.Open(t.TempDir(), "local.settings.json")
	stdout := &strings.Builder{}
	container := cli.NewContainer()
	cli.Provide(container, cli.Environment{WorkingDirectory: "/project", Stdout: stdout, Stderr: &strings.Builder{}})
	cli.Provide[cloud.Manager](container, manager)
	cli.Provide(container, store)
	return cli.NewRouter(cli.NewRegistry(Descriptors()...), container, "test"), store, stdout
}

func run(t *testing.T, router *cli.Router, args ...string) error {
	t.Helper()
	routed, err := router.Route(args)
	if err != nil {
		t.Fatalf("Route(%v): %v", args, err)
	}
	if routed.Action == nil {
		t.Fatalf("Route(%v) returned help: %v", args, routed.Help.Errors)
	}
	return routed.Action.Run(context.Background())
}

var remote = cloud.Static{
	"orders": {
		"AzureWebJobsStorage": "DefaultEndpointsProtocol=https;AccountName=orders",
		"FUNCTIONS_WORKER_RUNTIME": "node",
	},
}

func TestFetch_WritesEverySetting(t *testing.T) {
	for _, name := range []string{"fetch-app-settings", "fetch"} {
		t.Run(name, func(t *testing.T) {
			router, store, stdout := setup(t, remote)
			if err := run(t, router, "azure", "functionapp", name, "orders"); err != nil {
				t.Fatalf("Run: %v", err)
			}
			got, err := store.GetAll()
			if err != nil {
				t.Fatalf("GetAll: %v", err)
			}
			if diff := cmp.Diff(map[string]string(remote["orders"]), got); diff != "" {
				t.Errorf("stored settings mismatch (-want +got):\n%s", diff)
			}
			if strings.Contains(stdout.String(), "AccountName=orders") {
				t.Error("setting values echoed to stdout")
			}
			if !strings.Contains(stdout.String(), "Wrote 2 of 2 settings from orders") {
				t.Errorf("stdout = %q", stdout.String())
			}
		})
	}
}

func TestFetch_KeepsExistingWithoutOverwrite(t *testing.T) {
	router, store, _ := setup(t, remote)
	if err := store.Set("FUNCTIONS_WORKER_RUNTIME", "python"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := run(t, router, "azure", "functionapp", "fetch", "--overwrite=false", "orders"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := store.GetAll()
	if got["FUNCTIONS_WORKER_RUNTIME"] != "python" {
		t.Errorf("existing value replaced: %q", got["FUNCTIONS_WORKER_RUNTIME"])
	}
	if got["AzureWebJobsStorage"] == "" {
		t.Error("missing value not fetched")
	}
}

func TestFetch_ManagerErrors(t *testing.T) {
	tests := []struct {
		name    string
		manager cloud.Manager
		want    error
	}{
		{"unconfigured", cloud.Unconfigured{}, cloud.ErrNotConfigured},
		{"unknown app", remote, cloud.ErrAppNotFound},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			router, store, _ := setup(t, test.manager)
			err := run(t, router, "azure", "functionapp", "fetch", "payments")
			if !errors.Is(err, test.want) {
				t.Errorf("Run() = %v, want %v", err, test.want)
			}
			if keys, _ := store.Keys(); len(keys) != 0 {
				t.Errorf("store written on failure: %v", keys)
			}
		})
	}
}

func TestFetch_RequiresAppName(t *testing.T) {
	router, _, _ := setup(t, remote)
	routed, err := router.Route([]string{"azure", "functionapp", "fetch"})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if routed.Help == nil || len(routed.Help.Errors) == 0 {
		t.Fatal("missing app name did not produce help with an error")
	}
}

func TestFetch_ReplayRoundTrip(t *testing.T) {
	router, _, _ := setup(t, remote)
	args := []string{"azure", "functionapp", "fetch", "--overwrite=false", "orders"}
	routed, err := router.Route(args)
	if err != nil || routed.Action == nil {
		t.Fatalf("Route: %v", err)
	}
	replayed, err := cli.Replay(routed.Descriptor, routed.Action)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	want := []string{"azure", "functionapp", "fetch", "--overwrite=false", "--", "orders"}
	if diff := cmp.Diff(want, replayed); diff != "" {
		t.Errorf("Replay mismatch (-want +got):\n%s", diff)
	}
}
