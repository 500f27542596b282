// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestInfo_UsesInjectedCommit(t *testing.T) {
	savedVersion, savedCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = savedVersion, savedCommit })

	Version, GitCommit = "1.2.0", "abc1234"
	if got := Info(); got != "1.2.0 (abc1234)" {
		t.Errorf("Info() = %q", got)
	}
	if got := Short(); got != "1.2.0" {
		t.Errorf("Short() = %q", got)
	}
	if full := Full(); !strings.HasPrefix(full, "1.2.0 (abc1234)\n  Go: ") {
		t.Errorf("Full() = %q", full)
	}
}
