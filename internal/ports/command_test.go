package ports_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/socforge/socforge/internal/ports"
)

func TestCommandResult_Success(t *testing.T) {
	t.Parallel()

	assert.True(t, ports.CommandResult{ExitCode: 0}.Success())
	assert.False(t, ports.CommandResult{ExitCode: 1}.Success())
	assert.False(t, ports.CommandResult{ExitCode: -1}.Success())
}
