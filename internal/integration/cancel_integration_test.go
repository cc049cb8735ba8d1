package integration

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"kgraph/internal/app"
)

func TestCancelledRun_Exit130(t *testing.T) {
	fa := write(t, "cancel_big.fa", ">chr1\n"+strings.Repeat("ACGT", 1<<18)+"\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code := app.RunContext(ctx, []string{"build", "-k", "21", fa}, io.Discard, io.Discard)
	assert.Equal(t, 130, code)
}
