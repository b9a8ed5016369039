package mocks_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socforge/socforge/internal/ports"
	"github.com/socforge/socforge/internal/testutil/mocks"
)

func TestCommandRunner_RecordsCallsAndReturnsResults(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("apt-get", []string{"update"}, ports.CommandResult{ExitCode: 0, Stdout: "ok"})
	runner.AddError("apt-get", []string{"install", "-y", "jq"}, errors.New("boom"))

	result, err := runner.Run(context.Background(), "apt-get", "update")
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Stdout)

	_, err = runner.Run(context.Background(), "apt-get", "install", "-y", "jq")
	assert.Error(t, err)

	_, err = runner.Run(context.Background(), "unregistered")
	assert.Error(t, err)

	assert.Len(t, runner.Calls(), 3)

	runner.Reset()
	assert.Empty(t, runner.Calls())
}

func TestStreamRunner_EmitsOutputAndExitCode(t *testing.T) {
	t.Parallel()

	stream := mocks.NewStreamRunner()
	stream.Output = "PLAY RECAP\n"
	stream.ExitCode = 2

	var out bytes.Buffer
	code, err := stream.Stream(context.Background(), &out, []string{"K=V"}, "ansible-playbook", "-i", "inventory.yml", "site.yml")
	require.NoError(t, err)

	assert.Equal(t, 2, code)
	assert.Equal(t, "PLAY RECAP\n", out.String())
	require.Len(t, stream.Calls(), 1)
	assert.Equal(t, "ansible-playbook", stream.Calls()[0].Command)
	assert.Equal(t, [][]string{{"K=V"}}, stream.Envs())
}
