package vitals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeBMI(t *testing.T) {
	assert.InDelta(t, 22.9, computeBMI(70, 175), 0.01)
	assert.InDelta(t, 30.1, computeBMI(88, 171), 0.01)
	assert.InDelta(t, 18.4, computeBMI(50, 165), 0.01)
}
