package outputs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"go.chromium.org/sommelier/internal/scale"
)

func mkOutput(m *Manager, id uint32, hostX int32, pxW, pxH int32) *Output {
	o := m.Add(id)
	o.HostX = hostX
	o.PixelWidth = pxW
	o.PixelHeight = pxH
	o.AuraCurrentScale = 1
	o.AuraDeviceScale = 1
	m.Recompute(o)
	return o
}

// Property 5: after removing any output, the remaining outputs' virt_x
// values form the prefix sum of virt_rotated_widths.
func TestOutputReflowAfterRemoval(t *testing.T) {
	m := NewManager(scale.Context{Scale: 1})
	mkOutput(m, 1, 0, 1920, 1080)
	mkOutput(m, 2, 1920, 1280, 1024)
	mkOutput(m, 3, 3200, 2560, 1440)

	require.Equal(t, int32(0), m.outputs[0].VirtX)
	require.Equal(t, int32(1920), m.outputs[1].VirtX)
	require.Equal(t, int32(3200), m.outputs[2].VirtX)

	m.Remove(2)
	require.Len(t, m.outputs, 2)

	var x int32
	for _, o := range m.outputs {
		require.Equal(t, x, o.VirtX)
		x += o.VirtRotatedWidth
	}
}

func TestOutputRowKeptInHostXOrder(t *testing.T) {
	m := NewManager(scale.Context{Scale: 1})
	mkOutput(m, 1, 1000, 800, 600)
	mkOutput(m, 2, 0, 800, 600)

	// output 2 has the smaller host-x, so it must come first in the row.
	o2, _ := m.Lookup(2)
	require.Equal(t, int32(0), o2.VirtX)
	o1, _ := m.Lookup(1)
	require.Equal(t, int32(800), o1.VirtX)
}

func TestFirstOutputIsInternalByDefault(t *testing.T) {
	m := NewManager(scale.Context{Scale: 1})
	mkOutput(m, 1, 0, 1920, 1080)
	mkOutput(m, 2, 1920, 1920, 1080)

	internal, ok := m.InternalOutput()
	require.True(t, ok)
	require.Equal(t, uint32(1), internal.ID)
}

func TestRotatedOutputSwapsDimensions(t *testing.T) {
	m := NewManager(scale.Context{Scale: 1})
	o := mkOutput(m, 1, 0, 1920, 1080)
	o.Transform = Transform90
	m.Recompute(o)
	require.Equal(t, o.VirtHeight, o.VirtRotatedWidth)
	require.Equal(t, o.VirtWidth, o.VirtRotatedHeight)
}
