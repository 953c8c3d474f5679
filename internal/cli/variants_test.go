package cli_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calvinalkan/lazyslot/internal/cli"
)

func variantLine(t *testing.T, stdout, label string) string {
	t.Helper()

	for line := range strings.SplitSeq(stdout, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 && fields[0] == label {
			return strings.Join(fields[1:], " ")
		}
	}

	t.Fatalf("no %q line in output:\n%s", label, stdout)

	return ""
}

func Test_Variants_Reports_When_Each_Constructor_Runs(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("variants")

	assert.Equal(t, "state_before=ready calls_before=1 calls_after=1 attempts=0 same=true",
		variantLine(t, stdout, "eager"))
	assert.Equal(t, "state_before=ready calls_before=1 calls_after=1 attempts=1 same=true",
		variantLine(t, stdout, "static"))
	assert.Equal(t, "calls_before=0 calls_after=1 same=true",
		variantLine(t, stdout, "holder"))
	assert.Equal(t, "state_before=uninitialized calls_before=0 calls_after=1 attempts=1 same=true",
		variantLine(t, stdout, "lazy"))
}
