package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"prism/engine/core"
)

// FenceWaitTimeout bounds every CPU wait on GPU work. A device that has
// not signaled after this long is considered wedged and the error is
// treated as fatal by the frame loop.
const FenceWaitTimeout uint64 = 5_000_000_000 // 5s in nanoseconds

type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(context *VulkanContext, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if res := vk.CreateFence(context.Device.LogicalDevice, &fenceCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("failed to create fence: %s", VulkanResultString(res))
	}
	fence.Handle = handle
	return fence, nil
}

func (vf *VulkanFence) FenceDestroy(context *VulkanContext) {
	if vf.Handle != vk.NullFence {
		vk.DestroyFence(context.Device.LogicalDevice, vf.Handle, context.Allocator)
		vf.Handle = vk.NullFence
	}
	vf.IsSignaled = false
}

// FenceWait blocks until the fence signals or the timeout expires. An
// already signaled fence returns immediately.
func (vf *VulkanFence) FenceWait(context *VulkanContext, timeoutNs uint64) error {
	if vf.IsSignaled {
		return nil
	}

	result := vk.WaitForFences(context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}, vk.True, timeoutNs)
	switch result {
	case vk.Success:
		vf.IsSignaled = true
		return nil
	case vk.Timeout:
		core.LogError("fence wait timed out after %dns", timeoutNs)
		return core.ErrDeviceTimeout
	default:
		return fmt.Errorf("fence wait failed: %s", VulkanResultString(result))
	}
}

func (vf *VulkanFence) FenceReset(context *VulkanContext) error {
	if !vf.IsSignaled {
		return nil
	}
	if res := vk.ResetFences(context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}); res != vk.Success {
		return fmt.Errorf("failed to reset fence: %s", VulkanResultString(res))
	}
	vf.IsSignaled = false
	return nil
}
