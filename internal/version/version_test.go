package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, Version, String())

	defer func(c, b string) { GitCommit, BuildTime = c, b }(GitCommit, BuildTime)
	GitCommit, BuildTime = "abc123", "2026-10-18T00:00:00Z"
	assert.Equal(t, Version+" (abc123, built 2026-10-18T00:00:00Z)", String())
}

func TestBannerOmitsBuildDetails(t *testing.T) {
	defer func(c, b string) { GitCommit, BuildTime = c, b }(GitCommit, BuildTime)
	GitCommit, BuildTime = "abc123", "2026-10-18T00:00:00Z"
	assert.Equal(t, "Flow Canvas v"+Version, Banner("Flow Canvas"))
}
