package async

import (
	"errors"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	assert := assert_.New(t)
	got := <-Run(func() string { return "done" })
	assert.Equal("done", got)

	failure := errors.New("resolution failed")
	err := <-Run(func() error { return failure })
	assert.ErrorIs(err, failure)
}
