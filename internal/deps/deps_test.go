package deps

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"scribe/internal/config"
)

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present", "exit 0\n")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank command status: %#v", results[2])
	}
}

func TestRequirementsFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.Backend = config.BackendOpenAI
	cfg.Audio.ProbeSource = false

	reqs := Requirements(&cfg)
	if len(reqs) != 2 {
		t.Fatalf("expected ffmpeg and ffprobe, got %#v", reqs)
	}
	if reqs[0].Command != "ffmpeg" || reqs[0].Optional {
		t.Fatalf("ffmpeg must be required: %#v", reqs[0])
	}
	if !reqs[1].Optional {
		t.Fatalf("ffprobe should be optional without probing: %#v", reqs[1])
	}

	cfg.Transcription.Backend = config.BackendWhisperX
	cfg.Audio.ProbeSource = true
	reqs = Requirements(&cfg)
	if len(reqs) != 3 || reqs[2].Command != "uvx" {
		t.Fatalf("expected uvx for whisperx backend, got %#v", reqs)
	}
	if reqs[1].Optional {
		t.Fatalf("ffprobe should be required when probing: %#v", reqs[1])
	}

	if Requirements(nil) != nil {
		t.Fatal("expected nil requirements for nil config")
	}
}

func TestMissingIgnoresOptional(t *testing.T) {
	statuses := []Status{
		{Name: "a", Available: true},
		{Name: "b", Optional: true},
		{Name: "c"},
	}
	missing := Missing(statuses)
	if len(missing) != 1 || missing[0].Name != "c" {
		t.Fatalf("unexpected missing set: %#v", missing)
	}
}

func TestVersion(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs require a POSIX shell")
	}
	stub := writeStub(t, t.TempDir(), "ffmpeg", "echo 'ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023'\necho 'built with gcc'\n")
	if got := Version(context.Background(), stub); got != "6.1.1-3ubuntu5" {
		t.Fatalf("Version = %q", got)
	}
	if got := Version(context.Background(), "clearly-not-present-binary"); got != "" {
		t.Fatalf("expected empty version for missing binary, got %q", got)
	}
}

func TestParseVersion(t *testing.T) {
	cases := map[string]string{
		"ffprobe version n7.0 Copyright": "n7.0",
		"":                               "",
		"no token here":                  "",
		"version":                        "",
	}
	for input, want := range cases {
		if got := parseVersion(input); got != want {
			t.Errorf("parseVersion(%q) = %q, want %q", input, got, want)
		}
	}
}
