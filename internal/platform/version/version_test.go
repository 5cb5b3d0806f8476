package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()

	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.Commit)
	assert.NotEmpty(t, info.BuildTime)
	assert.Equal(t, runtime.Version(), info.GoVersion)
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "v1.0.0", Commit: "abc123", BuildTime: "2024-05-01T12:00:00Z", GoVersion: "go1.25"}
	assert.Equal(t, "snakebot v1.0.0 (commit abc123, built 2024-05-01T12:00:00Z, go1.25)", info.String())
}
