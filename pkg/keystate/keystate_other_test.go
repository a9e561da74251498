//go:build !windows

package keystate

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestNew_Unsupported(t *testing.T) {
	assert.Nil(t, New())
}
