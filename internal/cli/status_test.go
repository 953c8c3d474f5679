package cli_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/lazyslot/internal/cli"
)

func statusRow(t *testing.T, stdout, name string) []string {
	t.Helper()

	for line := range strings.SplitSeq(stdout, "\n") {
		if fields := strings.Fields(line); len(fields) >= 4 && fields[0] == name {
			return fields[:4]
		}
	}

	t.Fatalf("no status row for %q:\n%s", name, stdout)

	return nil
}

func Test_Status_Lists_Slots_Sorted_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("status")

	lines := strings.Split(stdout, "\n")
	require.Len(t, lines, 4, stdout)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.True(t, strings.HasPrefix(lines[1], "config"))
	assert.True(t, strings.HasPrefix(lines[2], "primary"))
	assert.True(t, strings.HasPrefix(lines[3], "replica"))

	assert.Equal(t, []string{"primary", "ready", "1", "retry"}, statusRow(t, stdout, "primary"))
	assert.Equal(t, []string{"replica", "uninitialized", "0", "retry"}, statusRow(t, stdout, "replica"))
	assert.Equal(t, []string{"config", "uninitialized", "0", "retry"}, statusRow(t, stdout, "config"))
}

func Test_Status_Warns_When_Resolve_Fails(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, code := c.Run("status", "--resolve=replica,config")

	assert.Equal(t, 1, code)
	cli.AssertContains(t, stderr, "warning:")
	cli.AssertContains(t, stderr, "construction failed")
	assert.Equal(t, []string{"replica", "uninitialized", "1", "retry"}, statusRow(t, stdout, "replica"))
	assert.Equal(t, []string{"config", "ready", "1", "retry"}, statusRow(t, stdout, "config"))
}

func Test_Status_Marks_Failed_When_Policy_FailFast(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, _, code := c.Run("--policy=fail-fast", "status", "--resolve=replica")

	assert.Equal(t, 1, code)
	assert.Equal(t, []string{"replica", "failed", "1", "fail-fast"}, statusRow(t, stdout, "replica"))
}

func Test_Status_Fails_When_Resolve_Unknown(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stderr := c.MustFail("status", "--resolve=cache")
	cli.AssertContains(t, stderr, "unknown")
}
