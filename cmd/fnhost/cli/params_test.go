// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

func TestBindFlags_TypesAndDefaults(t *testing.T) {
	type embedded struct {
		Level string `flag:"level,d" default:"info"`
	}
	type params struct {
		embedded
		Port     int           `flag:"port,p" desc:"port" default:"7071"`
		Verbose  bool          `flag:"verbose" default:"true"`
		Timeout  time.Duration `flag:"timeout" default:"20s"`
		Origins  []string      `flag:"cors" default:"https://a.example.com,https://b.example.com"`
		Untagged string
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	if p.Port != 7071 || !p.Verbose || p.Timeout != 20*time.Second || p.Level != "info" {
		t.Errorf("defaults not applied: %+v", p)
	}
	if diff := cmp.Diff([]string{"https://a.example.com", "https://b.example.com"}, p.Origins); diff != "" {
		t.Errorf("Origins default mismatch (-want +got):\n%s", diff)
	}

	if err := flagSet.Parse([]string{"-p", "8080", "--verbose=false", "-d", "debug", "--cors", "*"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Port != 8080 || p.Verbose || p.Level != "debug" {
		t.Errorf("parsed values wrong: %+v", p)
	}
	if diff := cmp.Diff([]string{"*"}, p.Origins); diff != "" {
		t.Errorf("Origins mismatch (-want +got):\n%s", diff)
	}
}

func TestBindFlags_Errors(t *testing.T) {
	tests := []struct {
		name    string
		params  any
		wantErr string
	}{
		{"not a pointer", struct{}{}, "pointer to a struct"},
		{"bad int default", &struct {
			Port int `flag:"port" default:"lots"`
		}{}, "default for --port"},
		{"unsupported type", &struct {
			Ratio float32 `flag:"ratio"`
		}{}, "unsupported type"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := BindFlags(test.params, pflag.NewFlagSet("test", pflag.ContinueOnError))
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("BindFlags() error = %v, want containing %q", err, test.wantErr)
			}
		})
	}
}
