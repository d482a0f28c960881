/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sethvargo/go-envconfig"
)

func TestEmptyTaskPrintsUsage(t *testing.T) {
	// Config is never consulted before the task check.
	orig := lookuper
	t.Cleanup(func() { lookuper = orig })
	lookuper = envconfig.MapLookuper(nil)

	for _, args := range [][]string{nil, {"   "}, {"", "\t"}} {
		cmd := newRootCmd()
		var stdout, stderr bytes.Buffer
		cmd.SetOut(&stdout)
		cmd.SetErr(&stderr)
		cmd.SetArgs(args)

		err := cmd.ExecuteContext(context.Background())
		if !errors.Is(err, ErrUsage) {
			t.Fatalf("args %q: got error %v, want ErrUsage", args, err)
		}
		if !strings.Contains(stderr.String(), "Usage:") {
			t.Errorf("args %q: stderr = %q, want usage", args, stderr.String())
		}
		if stdout.Len() != 0 {
			t.Errorf("args %q: stdout = %q, want empty", args, stdout.String())
		}
	}
}

func TestMissingConfigFails(t *testing.T) {
	orig := lookuper
	t.Cleanup(func() { lookuper = orig })
	lookuper = envconfig.MapLookuper(map[string]string{})

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"add", "a", "LICENSE"})

	err := cmd.ExecuteContext(context.Background())
	if err == nil || errors.Is(err, ErrUsage) {
		t.Fatalf("got error %v, want a config error", err)
	}
}

func TestFlagsInsideTaskAreTaskWords(t *testing.T) {
	orig := lookuper
	t.Cleanup(func() { lookuper = orig })
	lookuper = envconfig.MapLookuper(map[string]string{})

	for _, args := range [][]string{
		{"remove", "the", "-v", "flag"},
		{"document", "-h", "in", "the", "README"},
		{"--dry-run", "drop", "--version", "output"},
	} {
		cmd := newRootCmd()
		var stdout, stderr bytes.Buffer
		cmd.SetOut(&stdout)
		cmd.SetErr(&stderr)
		cmd.SetArgs(args)

		// The run starts and fails on the empty environment instead of
		// printing help or the version and succeeding.
		err := cmd.ExecuteContext(context.Background())
		if err == nil || errors.Is(err, ErrUsage) {
			t.Errorf("args %q: got error %v, want a config error", args, err)
		}
		if stdout.Len() != 0 {
			t.Errorf("args %q: stdout = %q, want empty", args, stdout.String())
		}
	}
}

func base() map[string]string {
	return map[string]string{
		"GITHUB_OWNER":  "octo",
		"GITHUB_REPO":   "hello",
		"GITHUB_TOKEN":  "ghp_test",
		"MODEL_API_KEY": "sk-test",
	}
}

func with(kv ...string) map[string]string {
	m := base()
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			delete(m, kv[i])
			continue
		}
		m[kv[i]] = kv[i+1]
	}
	return m
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(context.Background(), envconfig.MapLookuper(base()))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Model != "gpt-4o" {
		t.Errorf("Model = %q, want gpt-4o", cfg.Model)
	}
	if cfg.GitIdentity != "patchpilot" {
		t.Errorf("GitIdentity = %q, want patchpilot", cfg.GitIdentity)
	}
	if cfg.level != slog.LevelInfo {
		t.Errorf("level = %v, want info", cfg.level)
	}
	if cfg.MaxContextFiles != nil || cfg.MaxContextBytes != nil {
		t.Errorf("context limits set without env: %v %v", cfg.MaxContextFiles, cfg.MaxContextBytes)
	}
	if got := len(cfg.samplerOptions()); got != 0 {
		t.Errorf("samplerOptions() = %d options, want 0", got)
	}
	if cfg.PRDraft {
		t.Error("PRDraft = true, want false")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(context.Background(), envconfig.MapLookuper(with(
		"MODEL", "claude-sonnet-4-5",
		"MODEL_BASE_URL", "http://localhost:8080/v1",
		"MAX_CONTEXT_FILES", "10",
		"MAX_CONTEXT_BYTES", "5000",
		"PR_LABELS", "automated,patchpilot",
		"PR_DRAFT", "true",
		"LOG_LEVEL", "debug",
	)))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if *cfg.MaxContextFiles != 10 || *cfg.MaxContextBytes != 5000 {
		t.Errorf("limits = %d/%d, want 10/5000", *cfg.MaxContextFiles, *cfg.MaxContextBytes)
	}
	if got := len(cfg.samplerOptions()); got != 2 {
		t.Errorf("samplerOptions() = %d options, want 2", got)
	}
	if diff := cmp.Diff([]string{"automated", "patchpilot"}, cfg.PRLabels); diff != "" {
		t.Errorf("PRLabels (-want +got):\n%s", diff)
	}
	if !cfg.PRDraft {
		t.Error("PRDraft = false, want true")
	}
	if cfg.level != slog.LevelDebug {
		t.Errorf("level = %v, want debug", cfg.level)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{{
		name: "missing owner",
		env:  with("GITHUB_OWNER", ""),
	}, {
		name: "missing repo",
		env:  with("GITHUB_REPO", ""),
	}, {
		name: "missing model key",
		env:  with("MODEL_API_KEY", ""),
	}, {
		name: "no auth",
		env:  with("GITHUB_TOKEN", ""),
	}, {
		name: "both auth modes",
		env:  with("GITHUB_APP_ID", "1", "GITHUB_INSTALLATION_ID", "2", "GITHUB_APP_PRIVATE_KEY", "key"),
	}, {
		name: "partial app config",
		env:  with("GITHUB_TOKEN", "", "GITHUB_APP_ID", "1"),
	}, {
		name: "zero file limit",
		env:  with("MAX_CONTEXT_FILES", "0"),
	}, {
		name: "negative byte budget",
		env:  with("MAX_CONTEXT_BYTES", "-1"),
	}, {
		name: "bad log level",
		env:  with("LOG_LEVEL", "loud"),
	}, {
		name: "non-numeric app id",
		env:  with("GITHUB_TOKEN", "", "GITHUB_APP_ID", "abc", "GITHUB_INSTALLATION_ID", "2", "GITHUB_APP_PRIVATE_KEY", "key"),
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadConfig(context.Background(), envconfig.MapLookuper(tt.env)); err == nil {
				t.Fatal("loadConfig: got nil error")
			}
		})
	}
}

func TestLoadConfigAppAuth(t *testing.T) {
	cfg, err := loadConfig(context.Background(), envconfig.MapLookuper(with(
		"GITHUB_TOKEN", "",
		"GITHUB_APP_ID", "12",
		"GITHUB_INSTALLATION_ID", "34",
		"GITHUB_APP_PRIVATE_KEY", "/does/not/exist.pem",
	)))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.AppID != 12 || cfg.InstallationID != 34 {
		t.Errorf("app = %d/%d, want 12/34", cfg.AppID, cfg.InstallationID)
	}
	// The key path is only read when the token source is built.
	if _, err := cfg.tokenSource(context.Background()); err == nil {
		t.Error("tokenSource: got nil error for a missing key file")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(slog.LevelWarn, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("output = %q, want the warn record", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("output = %q, want no colour codes for a non-terminal writer", out)
	}
}
