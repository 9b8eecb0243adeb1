package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRun_DryRunPrintsConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-dry-run", "-bind-port", "9444"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "9444") {
		t.Fatalf("expected config dump to mention the overridden port, got: %s", stdout.String())
	}
}

func TestRun_RejectsBadPeer(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-dry-run", "-peer", "not-an-address"}, &stdout, &stderr)
	if code == 0 {
		t.Fatalf("expected non-zero exit for invalid peer address")
	}
}
