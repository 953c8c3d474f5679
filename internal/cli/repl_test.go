package cli_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/lazyslot/internal/cli"
	"github.com/calvinalkan/lazyslot/internal/instancelock"
)

func Test_Repl_Returns_Same_Instance_When_Get_Repeated(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, code := c.RunWithInput("get primary\nget PRIMARY\nexit\n", "repl", "--lock", c.LockPath())
	require.Equal(t, 0, code, stderr)

	var dbs []string

	for line := range strings.SplitSeq(stdout, "\n") {
		if strings.HasPrefix(line, "db[") {
			dbs = append(dbs, line)
		}
	}

	require.Len(t, dbs, 2, stdout)
	assert.Equal(t, dbs[0], dbs[1])
	cli.AssertContains(t, stdout, "bye")
}

func Test_Repl_Shows_Status_And_Names(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, _, code := c.RunWithInput("names\nget replica\nget replica\nstatus\n", "repl", "--lock", c.LockPath())
	require.Equal(t, 0, code)

	cli.AssertContains(t, stdout, "config\nprimary\nreplica\n")
	cli.AssertContains(t, stdout, "error: slot \"replica\": construction failed (attempt 1)")
	cli.AssertContains(t, stdout, "NAME")
	assert.Equal(t, []string{"replica", "ready", "2", "retry"}, statusRow(t, stdout, "replica"))
	cli.AssertContains(t, stdout, "bye")
}

func Test_Repl_Reports_Bad_Input(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, _, code := c.RunWithInput("get\nfrob\nget nothing\nhelp\n", "repl", "--lock", c.LockPath())
	require.Equal(t, 0, code)

	cli.AssertContains(t, stdout, "usage: get <name>")
	cli.AssertContains(t, stdout, "unknown command: frob")
	cli.AssertContains(t, stdout, "error: slot: unknown")
	cli.AssertContains(t, stdout, "Commands:")
}

func Test_Repl_Fails_When_Lock_Held(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	lock, err := instancelock.Acquire(c.LockPath())
	require.NoError(t, err)

	t.Cleanup(func() { _ = lock.Release() })

	stderr := c.MustFail("repl", "--lock", c.LockPath())
	cli.AssertContains(t, stderr, "instance lock held by another process")
}
