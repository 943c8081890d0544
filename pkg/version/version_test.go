package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/v8cov/pkg/version"
)

func TestString(t *testing.T) {
	t.Parallel()

	banner := version.String()

	assert.Contains(t, banner, "v8cov ")
	assert.Contains(t, banner, version.Version)
	assert.Contains(t, banner, "commit: "+version.Commit)
}
