package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"prism/engine/core"
)

type VulkanBuffer struct {
	Handle    vk.Buffer
	Memory    vk.DeviceMemory
	TotalSize vk.DeviceSize
	Usage     vk.BufferUsageFlags
}

// BufferCreate makes a buffer and binds fresh memory with the requested
// properties. Allocation failure maps to core.ErrOutOfDeviceMemory.
func BufferCreate(context *VulkanContext, size vk.DeviceSize, usage vk.BufferUsageFlags, memoryFlags vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	buffer := &VulkanBuffer{
		TotalSize: size,
		Usage:     usage,
	}

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var handle vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("failed to create buffer: %s", VulkanResultString(res))
	}
	buffer.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &requirements)
	requirements.Deref()

	memoryIndex := context.FindMemoryIndex(requirements.MemoryTypeBits, uint32(memoryFlags))
	if memoryIndex < 0 {
		buffer.Destroy(context)
		return nil, fmt.Errorf("no memory type for buffer: %w", core.ErrOutOfDeviceMemory)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}

	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		buffer.Destroy(context)
		if res == vk.ErrorOutOfDeviceMemory {
			return nil, fmt.Errorf("buffer allocation of %d bytes: %w", size, core.ErrOutOfDeviceMemory)
		}
		return nil, fmt.Errorf("failed to allocate buffer memory: %s", VulkanResultString(res))
	}
	buffer.Memory = memory

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0); res != vk.Success {
		buffer.Destroy(context)
		return nil, fmt.Errorf("failed to bind buffer memory: %s", VulkanResultString(res))
	}

	return buffer, nil
}

func (vb *VulkanBuffer) Destroy(context *VulkanContext) {
	if vb.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, vb.Memory, context.Allocator)
		vb.Memory = vk.NullDeviceMemory
	}
	if vb.Handle != vk.NullBuffer {
		vk.DestroyBuffer(context.Device.LogicalDevice, vb.Handle, context.Allocator)
		vb.Handle = vk.NullBuffer
	}
	vb.TotalSize = 0
}

// LoadData copies CPU bytes into host visible buffer memory.
func (vb *VulkanBuffer) LoadData(context *VulkanContext, offset vk.DeviceSize, data []byte) error {
	var mapped unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, vb.Memory, offset, vk.DeviceSize(len(data)), 0, &mapped); res != vk.Success {
		return fmt.Errorf("failed to map buffer memory: %s", VulkanResultString(res))
	}
	vk.Memcopy(mapped, data)
	vk.UnmapMemory(context.Device.LogicalDevice, vb.Memory)
	return nil
}

// CopyTo records and submits a single use transfer from this buffer into
// dest, blocking until the copy lands.
func (vb *VulkanBuffer) CopyTo(context *VulkanContext, pool vk.CommandPool, queue vk.Queue, dest *VulkanBuffer, size vk.DeviceSize) error {
	cb, err := CommandBufferAllocateAndBeginSingleUse(context, pool)
	if err != nil {
		return err
	}

	copyRegion := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      size,
	}
	vk.CmdCopyBuffer(cb.Handle, vb.Handle, dest.Handle, 1, []vk.BufferCopy{copyRegion})

	return cb.EndSingleUse(context, pool, queue)
}
