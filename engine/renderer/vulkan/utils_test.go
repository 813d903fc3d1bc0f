package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestVulkanSafeString(t *testing.T) {
	assert.Equal(t, "main\x00", VulkanSafeString("main"))
	assert.Equal(t, "main\x00", VulkanSafeString("main\x00"))
	assert.Equal(t, "\x00", VulkanSafeString(""))
}

func TestVulkanSafeStringsDoesNotMutateInput(t *testing.T) {
	in := []string{"a", "b\x00"}
	out := VulkanSafeStrings(in)
	assert.Equal(t, []string{"a\x00", "b\x00"}, out)
	assert.Equal(t, "a", in[0])
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(3, 5, 10))
	assert.Equal(t, 10, Clamp(12, 5, 10))
	assert.Equal(t, 7, Clamp(7, 5, 10))
	assert.Equal(t, uint32(240), Clamp(uint32(100), uint32(240), uint32(720)))
	assert.Equal(t, 1.5, Clamp(1.5, 0.0, 2.0))
}

func TestVulkanResultIsSuccess(t *testing.T) {
	assert.True(t, VulkanResultIsSuccess(vk.Success))
	assert.True(t, VulkanResultIsSuccess(vk.Suboptimal))
	assert.False(t, VulkanResultIsSuccess(vk.ErrorOutOfDate))
	assert.False(t, VulkanResultIsSuccess(vk.ErrorDeviceLost))
}

func TestVulkanResultString(t *testing.T) {
	assert.Equal(t, "VK_SUCCESS", VulkanResultString(vk.Success))
	assert.Equal(t, "VK_ERROR_OUT_OF_DATE_KHR", VulkanResultString(vk.ErrorOutOfDate))
	assert.Equal(t, "VK_ERROR_UNKNOWN", VulkanResultString(vk.Result(-9999)))
}

// The push constant and uniform blocks promise 128 bytes to the shaders;
// the scene package encodes blocks of the same size. Guard the contract.
func TestBlockSizes(t *testing.T) {
	assert.Equal(t, 128, PushConstantBlockSize)
	assert.Equal(t, 128, UniformBlockSize)
}
