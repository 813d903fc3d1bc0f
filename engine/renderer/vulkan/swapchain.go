package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"

	"prism/engine/core"
)

// MaxFramesInFlight is the number of frames the CPU may record before
// waiting for the GPU. Two slots keep the CPU one frame ahead without the
// latency of deeper pipelining.
const MaxFramesInFlight = 2

type VulkanSwapchain struct {
	Handle      vk.Swapchain
	ImageFormat vk.SurfaceFormat
	Extent      vk.Extent2D
	ImageCount  uint32
	Images      []vk.Image
	Views       []vk.ImageView

	DepthAttachment *VulkanImage

	// One framebuffer per swapchain image, rebuilt with the swapchain.
	Framebuffers []*VulkanFramebuffer

	// Per frame slot synchronization. Each slot owns the triple for one
	// frame in flight: acquisition semaphore, render completion semaphore
	// and a fence the CPU waits on before reusing the slot.
	ImageAvailableSemaphores []vk.Semaphore
	RenderFinishedSemaphores []vk.Semaphore
	InFlightFences           []*VulkanFence
}

func SwapchainCreate(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	swapchain, err := createSwapchain(context, width, height)
	if err != nil {
		return nil, err
	}
	if err := swapchain.createSyncObjects(context); err != nil {
		swapchain.destroySwapchain(context)
		return nil, err
	}
	return swapchain, nil
}

// SwapchainRecreate tears down the image-derived resources and builds them
// again at the new size. The caller must have drained the device first.
// Sync objects survive the rebuild; only images, views, depth and
// framebuffers are replaced.
func (vs *VulkanSwapchain) SwapchainRecreate(context *VulkanContext, width, height uint32) error {
	vs.destroySwapchain(context)

	fresh, err := createSwapchain(context, width, height)
	if err != nil {
		return err
	}
	vs.Handle = fresh.Handle
	vs.ImageFormat = fresh.ImageFormat
	vs.Extent = fresh.Extent
	vs.ImageCount = fresh.ImageCount
	vs.Images = fresh.Images
	vs.Views = fresh.Views
	vs.DepthAttachment = fresh.DepthAttachment
	vs.Framebuffers = nil
	return nil
}

func (vs *VulkanSwapchain) SwapchainDestroy(context *VulkanContext) {
	vs.destroySyncObjects(context)
	vs.destroySwapchain(context)
}

// SwapchainAcquireNextImageIndex blocks until the presentation engine hands
// out an image. A stale swapchain surfaces as core.ErrSwapchainStale so the
// frame loop can rebuild and retry; every other failure is fatal.
func (vs *VulkanSwapchain) SwapchainAcquireNextImageIndex(context *VulkanContext, timeoutNs uint64, imageAvailableSemaphore vk.Semaphore, fence vk.Fence) (uint32, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, timeoutNs, imageAvailableSemaphore, fence, &imageIndex)

	switch result {
	case vk.Success, vk.Suboptimal:
		// Suboptimal still presents correctly; the rebuild happens after
		// the present reports out of date or a resize arrives.
		return imageIndex, nil
	case vk.ErrorOutOfDate:
		return 0, core.ErrSwapchainStale
	case vk.ErrorSurfaceLost:
		return 0, core.ErrSurfaceLost
	case vk.Timeout, vk.NotReady:
		return 0, core.ErrDeviceTimeout
	default:
		return 0, fmt.Errorf("failed to acquire swapchain image: %s", VulkanResultString(result))
	}
}

// SwapchainPresent queues the image for presentation, waiting on the
// frame's render completion semaphore.
func (vs *VulkanSwapchain) SwapchainPresent(context *VulkanContext, presentQueue vk.Queue, renderFinishedSemaphore vk.Semaphore, presentImageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderFinishedSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{presentImageIndex},
	}

	result := vk.QueuePresent(presentQueue, &presentInfo)
	switch result {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return core.ErrSwapchainStale
	case vk.ErrorSurfaceLost:
		return core.ErrSurfaceLost
	default:
		return fmt.Errorf("failed to present swapchain image: %s", VulkanResultString(result))
	}
}

func createSwapchain(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	support := &context.Device.SwapchainSupport
	swapchain := &VulkanSwapchain{}

	swapchain.ImageFormat = chooseSurfaceFormat(support.Formats)
	presentMode := choosePresentMode(support.PresentModes)
	swapchain.Extent = chooseExtent(support.Capabilities, width, height)
	imageCount := chooseImageCount(support.Capabilities, context.DesiredImageCount)

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchain.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
	}

	if context.Device.GraphicsQueueIndex != context.Device.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{
			uint32(context.Device.GraphicsQueueIndex),
			uint32(context.Device.PresentQueueIndex),
		}
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	var handle vk.Swapchain
	if res := vk.CreateSwapchain(context.Device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("failed to create swapchain: %s", VulkanResultString(res))
	}
	swapchain.Handle = handle

	var actualCount uint32
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &actualCount, nil); res != vk.Success {
		return nil, fmt.Errorf("failed to query swapchain image count: %s", VulkanResultString(res))
	}
	swapchain.Images = make([]vk.Image, actualCount)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &actualCount, swapchain.Images); res != vk.Success {
		return nil, fmt.Errorf("failed to get swapchain images: %s", VulkanResultString(res))
	}
	swapchain.ImageCount = actualCount

	swapchain.Views = make([]vk.ImageView, actualCount)
	for i := range swapchain.Images {
		viewCreateInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    swapchain.Images[i],
			ViewType: vk.ImageViewType2d,
			Format:   swapchain.ImageFormat.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}
		var view vk.ImageView
		if res := vk.CreateImageView(context.Device.LogicalDevice, &viewCreateInfo, context.Allocator, &view); res != vk.Success {
			return nil, fmt.Errorf("failed to create swapchain image view: %s", VulkanResultString(res))
		}
		swapchain.Views[i] = view
	}

	depth, err := ImageCreate(context, swapchain.Extent.Width, swapchain.Extent.Height,
		context.Device.DepthFormat, vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		return nil, err
	}
	swapchain.DepthAttachment = depth

	core.LogInfo("swapchain created: %dx%d, %d images, format %d",
		swapchain.Extent.Width, swapchain.Extent.Height, actualCount, swapchain.ImageFormat.Format)
	return swapchain, nil
}

func (vs *VulkanSwapchain) createSyncObjects(context *VulkanContext) error {
	vs.ImageAvailableSemaphores = make([]vk.Semaphore, MaxFramesInFlight)
	vs.RenderFinishedSemaphores = make([]vk.Semaphore, MaxFramesInFlight)
	vs.InFlightFences = make([]*VulkanFence, MaxFramesInFlight)

	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	for i := 0; i < MaxFramesInFlight; i++ {
		var imageAvailable vk.Semaphore
		if res := vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreCreateInfo, context.Allocator, &imageAvailable); res != vk.Success {
			return fmt.Errorf("failed to create image available semaphore: %s", VulkanResultString(res))
		}
		vs.ImageAvailableSemaphores[i] = imageAvailable

		var renderFinished vk.Semaphore
		if res := vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreCreateInfo, context.Allocator, &renderFinished); res != vk.Success {
			return fmt.Errorf("failed to create render finished semaphore: %s", VulkanResultString(res))
		}
		vs.RenderFinishedSemaphores[i] = renderFinished

		// Signaled so the first frame does not deadlock on the wait.
		fence, err := NewFence(context, true)
		if err != nil {
			return err
		}
		vs.InFlightFences[i] = fence
	}
	return nil
}

func (vs *VulkanSwapchain) destroySyncObjects(context *VulkanContext) {
	for i := range vs.ImageAvailableSemaphores {
		if vs.ImageAvailableSemaphores[i] != vk.NullSemaphore {
			vk.DestroySemaphore(context.Device.LogicalDevice, vs.ImageAvailableSemaphores[i], context.Allocator)
			vs.ImageAvailableSemaphores[i] = vk.NullSemaphore
		}
	}
	for i := range vs.RenderFinishedSemaphores {
		if vs.RenderFinishedSemaphores[i] != vk.NullSemaphore {
			vk.DestroySemaphore(context.Device.LogicalDevice, vs.RenderFinishedSemaphores[i], context.Allocator)
			vs.RenderFinishedSemaphores[i] = vk.NullSemaphore
		}
	}
	for i := range vs.InFlightFences {
		if vs.InFlightFences[i] != nil {
			vs.InFlightFences[i].FenceDestroy(context)
			vs.InFlightFences[i] = nil
		}
	}
}

func (vs *VulkanSwapchain) destroySwapchain(context *VulkanContext) {
	for i := range vs.Framebuffers {
		if vs.Framebuffers[i] != nil {
			vs.Framebuffers[i].FramebufferDestroy(context)
			vs.Framebuffers[i] = nil
		}
	}
	vs.Framebuffers = nil

	if vs.DepthAttachment != nil {
		vs.DepthAttachment.ImageDestroy(context)
		vs.DepthAttachment = nil
	}

	// Only the views are owned here; the images belong to the swapchain.
	for i := range vs.Views {
		vk.DestroyImageView(context.Device.LogicalDevice, vs.Views[i], context.Allocator)
	}
	vs.Views = nil
	vs.Images = nil

	if vs.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
		vs.Handle = vk.NullSwapchain
	}
}

// chooseSurfaceFormat prefers an sRGB format so the fixed-function blend
// and the presentation engine agree on the transfer function. Falls back
// to whatever the surface offers first.
func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range formats {
		if format.Format == vk.FormatB8g8r8a8Srgb && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	for _, format := range formats {
		if format.Format == vk.FormatR8g8b8a8Srgb && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	if len(formats) > 0 {
		return formats[0]
	}
	return vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
}

// choosePresentMode prefers mailbox for low latency without tearing and
// falls back to FIFO, the only mode the standard guarantees.
func choosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

// chooseExtent uses the surface's current extent when the platform fixes
// it, otherwise clamps the requested framebuffer size to the allowed range.
func chooseExtent(capabilities vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}
	return vk.Extent2D{
		Width:  Clamp(width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: Clamp(height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

// chooseImageCount clamps the requested swapchain depth to what the
// surface allows. A zero request asks for one image more than the minimum
// so the driver is never starved; a zero surface maximum means unbounded.
func chooseImageCount(capabilities vk.SurfaceCapabilities, desired uint32) uint32 {
	count := desired
	if count == 0 {
		count = capabilities.MinImageCount + 1
	}
	if count < capabilities.MinImageCount {
		count = capabilities.MinImageCount
	}
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}

// nextFrameSlot advances the frame slot ring.
func nextFrameSlot(current uint32) uint32 {
	return (current + 1) % MaxFramesInFlight
}
