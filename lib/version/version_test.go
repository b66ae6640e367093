// Copyright 2026 The TicTic Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	originalCommit, originalDirty := GitCommit, GitDirty
	t.Cleanup(func() { GitCommit, GitDirty = originalCommit, originalDirty })

	GitCommit = "abc1234"
	GitDirty = "false"
	if got := Info(); !strings.Contains(got, "(abc1234, ") {
		t.Errorf("Info() = %q, want commit without dirty suffix", got)
	}

	GitDirty = "true"
	if got := Info(); !strings.Contains(got, "abc1234-dirty") {
		t.Errorf("Info() = %q, want dirty suffix", got)
	}
}

func TestFullIncludesGoVersion(t *testing.T) {
	if got := Full(); !strings.Contains(got, "Go: ") {
		t.Errorf("Full() = %q, want Go version line", got)
	}
}

func TestUserAgent(t *testing.T) {
	if got := UserAgent(); got != "tictic-go/"+Version {
		t.Errorf("UserAgent() = %q", got)
	}
}
