package vec

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestSplitChunkNegative(t *testing.T) {
	chunk, local := Vec3{-1, -16, -17}.SplitChunk(16)
	assert.Equal(t, Vec3{-1, -1, -2}, chunk)
	assert.Equal(t, Vec3{15, 0, 15}, local)
}

func TestSplitChunkRoundTrip(t *testing.T) {
	for w := -100; w <= 100; w++ {
		v := Vec3{w, -w, w * 3}
		chunk, local := v.SplitChunk(16)

		assert.Equal(t, v, JoinChunk(chunk, local, 16), "w=%d", w)
		for _, c := range []int{local.X, local.Y, local.Z} {
			assert.GreaterOrEqual(t, c, 0)
			assert.Less(t, c, 16)
		}
	}
}

func TestFloorDivMod(t *testing.T) {
	assert.Equal(t, -1, FloorDiv(-1, 16))
	assert.Equal(t, 15, FloorMod(-1, 16))
	assert.Equal(t, 0, FloorDiv(15, 16))
	assert.Equal(t, 1, FloorDiv(16, 16))
	assert.Equal(t, -2, FloorDiv(-17, 16))
}

func TestNeighboursAreOpposite(t *testing.T) {
	for i, n := range Neighbours {
		assert.Equal(t, Vec3{}, n.Add(Neighbours[i^1]))
	}
}

func TestFromFloat(t *testing.T) {
	assert.Equal(t, Vec3{-1, 0, 2}, FromFloat(mgl32.Vec3{-0.5, 0.99, 2.0}))
}
