package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

type VulkanCommandBufferState int

const (
	CommandBufferStateReady VulkanCommandBufferState = iota
	CommandBufferStateRecording
	CommandBufferStateInRenderPass
	CommandBufferStateRecordingEnded
	CommandBufferStateSubmitted
	CommandBufferStateNotAllocated
)

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	State  VulkanCommandBufferState
}

func CommandBufferAllocate(context *VulkanContext, pool vk.CommandPool, isPrimary bool) (*VulkanCommandBuffer, error) {
	level := vk.CommandBufferLevelPrimary
	if !isPrimary {
		level = vk.CommandBufferLevelSecondary
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              level,
		CommandBufferCount: 1,
	}

	handles := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(context.Device.LogicalDevice, &allocateInfo, handles); res != vk.Success {
		return nil, fmt.Errorf("failed to allocate command buffer: %s", VulkanResultString(res))
	}

	return &VulkanCommandBuffer{
		Handle: handles[0],
		State:  CommandBufferStateReady,
	}, nil
}

func (cb *VulkanCommandBuffer) Free(context *VulkanContext, pool vk.CommandPool) {
	if cb.Handle != nil {
		vk.FreeCommandBuffers(context.Device.LogicalDevice, pool, 1, []vk.CommandBuffer{cb.Handle})
		cb.Handle = nil
	}
	cb.State = CommandBufferStateNotAllocated
}

func (cb *VulkanCommandBuffer) Begin(singleUse bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if singleUse {
		beginInfo.Flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}

	if res := vk.BeginCommandBuffer(cb.Handle, &beginInfo); res != vk.Success {
		return fmt.Errorf("failed to begin command buffer: %s", VulkanResultString(res))
	}
	cb.State = CommandBufferStateRecording
	return nil
}

func (cb *VulkanCommandBuffer) End() error {
	if res := vk.EndCommandBuffer(cb.Handle); res != vk.Success {
		return fmt.Errorf("failed to end command buffer: %s", VulkanResultString(res))
	}
	cb.State = CommandBufferStateRecordingEnded
	return nil
}

// Reset returns a submitted buffer to the ready state. The pool was created
// with the reset bit, so the implicit reset happens on the next Begin.
func (cb *VulkanCommandBuffer) Reset() {
	cb.State = CommandBufferStateReady
}

// CommandBufferAllocateAndBeginSingleUse hands out a primary buffer already
// recording, for short lived transfer work.
func CommandBufferAllocateAndBeginSingleUse(context *VulkanContext, pool vk.CommandPool) (*VulkanCommandBuffer, error) {
	cb, err := CommandBufferAllocate(context, pool, true)
	if err != nil {
		return nil, err
	}
	if err := cb.Begin(true); err != nil {
		cb.Free(context, pool)
		return nil, err
	}
	return cb, nil
}

// EndSingleUse submits the buffer, blocks until the queue drains and frees
// it. Acceptable for startup uploads, never for per frame work.
func (cb *VulkanCommandBuffer) EndSingleUse(context *VulkanContext, pool vk.CommandPool, queue vk.Queue) error {
	if err := cb.End(); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.Handle},
	}
	if res := vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
		return fmt.Errorf("failed to submit single use command buffer: %s", VulkanResultString(res))
	}
	if res := vk.QueueWaitIdle(queue); res != vk.Success {
		return fmt.Errorf("failed to wait for queue idle: %s", VulkanResultString(res))
	}

	cb.Free(context, pool)
	return nil
}
