package vulkan

import (
	vk "github.com/goki/vulkan"

	"prism/engine/core"
)

// VulkanContext groups the handles shared by every part of the backend.
// It is created once by the renderer and threaded through all Create and
// Destroy calls.
type VulkanContext struct {
	// The framebuffer's current size in pixels.
	FramebufferWidth  uint32
	FramebufferHeight uint32
	// Bumped on every resize notification. When it differs from
	// FramebufferSizeLastGeneration the swapchain is stale and must be
	// rebuilt before the next frame.
	FramebufferSizeGeneration     uint64
	FramebufferSizeLastGeneration uint64

	// Requested swapchain depth from configuration. Clamped to what the
	// surface supports; zero means minimum plus one.
	DesiredImageCount uint32

	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	Device *VulkanDevice

	Swapchain      *VulkanSwapchain
	MainRenderpass *VulkanRenderpass

	// Index of the swapchain image acquired for the frame in flight.
	ImageIndex uint32
	// Frame slot in [0, MaxFramesInFlight).
	CurrentFrame uint32

	RecreatingSwapchain bool
}

// FindMemoryIndex returns the index of a memory type matching typeFilter
// with all of propertyFlags set, or -1 when none exists.
func (vc *VulkanContext) FindMemoryIndex(typeFilter, propertyFlags uint32) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (uint32(memoryProperties.MemoryTypes[i].PropertyFlags)&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("unable to find a suitable memory type")
	return -1
}
