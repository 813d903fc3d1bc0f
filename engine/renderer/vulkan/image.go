package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"prism/engine/core"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
	Format vk.Format
}

// ImageCreate makes a 2D image, binds device memory and creates a view for
// the given aspect.
func ImageCreate(context *VulkanContext, width, height uint32, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlags, memoryFlags vk.MemoryPropertyFlags, aspect vk.ImageAspectFlags) (*VulkanImage, error) {
	image := &VulkanImage{
		Width:  width,
		Height: height,
		Format: format,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	var handle vk.Image
	if res := vk.CreateImage(context.Device.LogicalDevice, &imageCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("failed to create image: %s", VulkanResultString(res))
	}
	image.Handle = handle

	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, image.Handle, &requirements)
	requirements.Deref()

	memoryIndex := context.FindMemoryIndex(requirements.MemoryTypeBits, uint32(memoryFlags))
	if memoryIndex < 0 {
		image.ImageDestroy(context)
		return nil, fmt.Errorf("no memory type for image: %w", core.ErrOutOfDeviceMemory)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryIndex),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		image.ImageDestroy(context)
		if res == vk.ErrorOutOfDeviceMemory {
			return nil, fmt.Errorf("image allocation %dx%d: %w", width, height, core.ErrOutOfDeviceMemory)
		}
		return nil, fmt.Errorf("failed to allocate image memory: %s", VulkanResultString(res))
	}
	image.Memory = memory

	if res := vk.BindImageMemory(context.Device.LogicalDevice, image.Handle, image.Memory, 0); res != vk.Success {
		image.ImageDestroy(context)
		return nil, fmt.Errorf("failed to bind image memory: %s", VulkanResultString(res))
	}

	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image.Handle,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if res := vk.CreateImageView(context.Device.LogicalDevice, &viewCreateInfo, context.Allocator, &view); res != vk.Success {
		image.ImageDestroy(context)
		return nil, fmt.Errorf("failed to create image view: %s", VulkanResultString(res))
	}
	image.View = view

	return image, nil
}

func (vi *VulkanImage) ImageDestroy(context *VulkanContext) {
	if vi.View != vk.NullImageView {
		vk.DestroyImageView(context.Device.LogicalDevice, vi.View, context.Allocator)
		vi.View = vk.NullImageView
	}
	if vi.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.Device.LogicalDevice, vi.Memory, context.Allocator)
		vi.Memory = vk.NullDeviceMemory
	}
	if vi.Handle != vk.NullImage {
		vk.DestroyImage(context.Device.LogicalDevice, vi.Handle, context.Allocator)
		vi.Handle = vk.NullImage
	}
}

// TransitionLayout records a pipeline barrier moving the image between the
// layouts the upload path needs.
func (vi *VulkanImage) TransitionLayout(cb *VulkanCommandBuffer, oldLayout, newLayout vk.ImageLayout) error {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               vi.Handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	var srcStage, dstStage vk.PipelineStageFlags
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		barrier.SrcAccessMask = 0
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	default:
		return fmt.Errorf("unsupported layout transition %d -> %d", oldLayout, newLayout)
	}

	vk.CmdPipelineBarrier(cb.Handle, srcStage, dstStage, 0,
		0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	return nil
}

// CopyFromBuffer records a full-extent copy of tightly packed texel data.
func (vi *VulkanImage) CopyFromBuffer(cb *VulkanCommandBuffer, buffer *VulkanBuffer) {
	region := vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{
			Width:  vi.Width,
			Height: vi.Height,
			Depth:  1,
		},
	}
	vk.CmdCopyBufferToImage(cb.Handle, buffer.Handle, vi.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
}
