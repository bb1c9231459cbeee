package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func noFail(i int, err error) int { return -1 }

func TestParallelMapKeepsOrder(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		got := parallelMap(workers, 20, func(i int) int { return i * i }, noFail)
		for i, sq := range got {
			assert.Equal(t, i*i, sq, "workers=%d index %d", workers, i)
		}
	}
	assert.Empty(t, parallelMap(4, 0, func(i int) int { return i }, noFail))
}

func TestParallelMapRecoversPanics(t *testing.T) {
	var failed []string
	got := parallelMap(1, 5, func(i int) int {
		if i == 2 {
			panic("bad element")
		}
		return i
	}, func(i int, err error) int {
		failed = append(failed, err.Error())
		return -i
	})

	assert.Equal(t, []int{0, 1, -2, 3, 4}, got)
	if assert.Len(t, failed, 1) {
		assert.True(t, strings.Contains(failed[0], "bad element"), failed[0])
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, FailureGeometry, classify(assert.AnError))
}
