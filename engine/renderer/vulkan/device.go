package vulkan

import (
	"fmt"
	"runtime"

	vk "github.com/goki/vulkan"

	"prism/engine/core"
)

type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	SwapchainSupport   VulkanSwapchainSupportInfo
	GraphicsQueueIndex int32
	PresentQueueIndex  int32

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures

	DepthFormat vk.Format

	SupportsAnisotropy bool
}

// VulkanSwapchainSupportInfo caches the surface capabilities queried from
// the physical device. Refreshed on every swapchain rebuild because the
// current extent tracks the window.
type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// DeviceCreate selects a physical device, creates the logical device with
// graphics and present queues and the shared graphics command pool.
func DeviceCreate(context *VulkanContext) error {
	if err := selectPhysicalDevice(context); err != nil {
		return err
	}
	device := context.Device

	core.LogInfo("creating logical device")

	presentSharesGraphicsQueue := device.GraphicsQueueIndex == device.PresentQueueIndex
	indices := []uint32{uint32(device.GraphicsQueueIndex)}
	if !presentSharesGraphicsQueue {
		indices = append(indices, uint32(device.PresentQueueIndex))
	}

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i := range indices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: indices[i],
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	deviceFeatures := vk.PhysicalDeviceFeatures{}
	if device.SupportsAnisotropy {
		deviceFeatures.SamplerAnisotropy = vk.True
	}

	extensions := []string{vk.KhrSwapchainExtensionName}
	if runtime.GOOS == "darwin" {
		extensions = append(extensions, "VK_KHR_portability_subset")
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{deviceFeatures},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
	}

	var logicalDevice vk.Device
	if res := vk.CreateDevice(device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &logicalDevice); res != vk.Success {
		return fmt.Errorf("failed to create logical device: %s", VulkanResultString(res))
	}
	device.LogicalDevice = logicalDevice

	var graphicsQueue vk.Queue
	vk.GetDeviceQueue(device.LogicalDevice, uint32(device.GraphicsQueueIndex), 0, &graphicsQueue)
	device.GraphicsQueue = graphicsQueue

	var presentQueue vk.Queue
	vk.GetDeviceQueue(device.LogicalDevice, uint32(device.PresentQueueIndex), 0, &presentQueue)
	device.PresentQueue = presentQueue

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(device.GraphicsQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(device.LogicalDevice, &poolCreateInfo, context.Allocator, &pool); res != vk.Success {
		return fmt.Errorf("failed to create graphics command pool: %s", VulkanResultString(res))
	}
	device.GraphicsCommandPool = pool

	if err := device.DetectDepthFormat(); err != nil {
		return err
	}

	core.LogInfo("logical device created")
	return nil
}

// SubmitGraphics is the single submission point for rendering work: the
// command buffer runs after waitSemaphores are satisfied at the given
// stages, then signalSemaphores and fence are signaled. Submission failure
// is fatal; the caller treats it as device loss.
func (vd *VulkanDevice) SubmitGraphics(cb *VulkanCommandBuffer, waitSemaphores []vk.Semaphore, waitStages []vk.PipelineStageFlags, signalSemaphores []vk.Semaphore, fence vk.Fence) error {
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(waitSemaphores)),
		PWaitSemaphores:      waitSemaphores,
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cb.Handle},
		SignalSemaphoreCount: uint32(len(signalSemaphores)),
		PSignalSemaphores:    signalSemaphores,
	}

	if res := vk.QueueSubmit(vd.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, fence); res != vk.Success {
		return fmt.Errorf("failed to submit graphics work: %s", VulkanResultString(res))
	}
	cb.State = CommandBufferStateSubmitted
	return nil
}

func DeviceDestroy(context *VulkanContext) {
	device := context.Device
	if device == nil {
		return
	}

	device.GraphicsQueue = nil
	device.PresentQueue = nil

	if device.GraphicsCommandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(device.LogicalDevice, device.GraphicsCommandPool, context.Allocator)
		device.GraphicsCommandPool = vk.NullCommandPool
	}

	if device.LogicalDevice != nil {
		vk.DestroyDevice(device.LogicalDevice, context.Allocator)
		device.LogicalDevice = nil
	}

	device.PhysicalDevice = nil
	device.GraphicsQueueIndex = -1
	device.PresentQueueIndex = -1
}

// DeviceQuerySwapchainSupport refreshes the cached surface capabilities,
// formats and present modes for the given surface.
func DeviceQuerySwapchainSupport(device *VulkanDevice, physicalDevice vk.PhysicalDevice, surface vk.Surface) error {
	var capabilities vk.SurfaceCapabilities
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &capabilities); res != vk.Success {
		return fmt.Errorf("failed to query surface capabilities: %s", VulkanResultString(res))
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()
	device.SwapchainSupport.Capabilities = capabilities

	var formatCount uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil); res != vk.Success {
		return fmt.Errorf("failed to query surface format count: %s", VulkanResultString(res))
	}
	if formatCount == 0 {
		return fmt.Errorf("surface reports no formats: %w", core.ErrUnsupportedFormat)
	}
	formats := make([]vk.SurfaceFormat, formatCount)
	if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, formats); res != vk.Success {
		return fmt.Errorf("failed to query surface formats: %s", VulkanResultString(res))
	}
	for i := range formats {
		formats[i].Deref()
	}
	device.SwapchainSupport.Formats = formats

	var presentModeCount uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, nil); res != vk.Success {
		return fmt.Errorf("failed to query present mode count: %s", VulkanResultString(res))
	}
	presentModes := make([]vk.PresentMode, presentModeCount)
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, presentModes); res != vk.Success {
		return fmt.Errorf("failed to query present modes: %s", VulkanResultString(res))
	}
	device.SwapchainSupport.PresentModes = presentModes

	return nil
}

// DetectDepthFormat picks the first depth format with optimal tiling
// support, preferring a combined depth/stencil layout.
func (vd *VulkanDevice) DetectDepthFormat() error {
	candidates := []vk.Format{
		vk.FormatD32Sfloat,
		vk.FormatD32SfloatS8Uint,
		vk.FormatD24UnormS8Uint,
	}
	flags := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)

	for _, format := range candidates {
		var properties vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(vd.PhysicalDevice, format, &properties)
		properties.Deref()

		if vk.FormatFeatureFlags(properties.OptimalTilingFeatures)&flags == flags {
			vd.DepthFormat = format
			return nil
		}
	}
	vd.DepthFormat = vk.FormatUndefined
	return fmt.Errorf("no depth attachment format available: %w", core.ErrUnsupportedFormat)
}

func selectPhysicalDevice(context *VulkanContext) error {
	var deviceCount uint32
	if res := vk.EnumeratePhysicalDevices(context.Instance, &deviceCount, nil); res != vk.Success {
		return fmt.Errorf("failed to enumerate physical devices: %s", VulkanResultString(res))
	}
	if deviceCount == 0 {
		return fmt.Errorf("no Vulkan capable devices found: %w", core.ErrNoSuitableDevice)
	}

	physicalDevices := make([]vk.PhysicalDevice, deviceCount)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &deviceCount, physicalDevices); res != vk.Success {
		return fmt.Errorf("failed to enumerate physical devices: %s", VulkanResultString(res))
	}

	type candidate struct {
		physicalDevice vk.PhysicalDevice
		properties     vk.PhysicalDeviceProperties
		features       vk.PhysicalDeviceFeatures
		graphicsIndex  int32
		presentIndex   int32
		discrete       bool
	}
	var best *candidate

	for _, physicalDevice := range physicalDevices {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(physicalDevice, &properties)
		properties.Deref()

		var features vk.PhysicalDeviceFeatures
		vk.GetPhysicalDeviceFeatures(physicalDevice, &features)
		features.Deref()

		if !deviceSupportsSwapchain(physicalDevice) {
			core.LogDebug("device %s skipped, no swapchain extension", vk.ToString(properties.DeviceName[:]))
			continue
		}

		graphicsIndex, presentIndex := findQueueFamilies(physicalDevice, context.Surface)
		if graphicsIndex < 0 || presentIndex < 0 {
			continue
		}

		c := &candidate{
			physicalDevice: physicalDevice,
			properties:     properties,
			features:       features,
			graphicsIndex:  graphicsIndex,
			presentIndex:   presentIndex,
			discrete:       properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu,
		}
		// Prefer a discrete GPU, otherwise take the first usable device.
		if best == nil || (c.discrete && !best.discrete) {
			best = c
		}
	}

	if best == nil {
		return fmt.Errorf("no device with graphics and present support: %w", core.ErrNoSuitableDevice)
	}

	device := context.Device
	device.PhysicalDevice = best.physicalDevice
	device.Properties = best.properties
	device.Features = best.features
	device.GraphicsQueueIndex = best.graphicsIndex
	device.PresentQueueIndex = best.presentIndex
	device.SupportsAnisotropy = best.features.SamplerAnisotropy == vk.True

	if err := DeviceQuerySwapchainSupport(device, device.PhysicalDevice, context.Surface); err != nil {
		return err
	}

	core.LogInfo("selected device: %s", vk.ToString(best.properties.DeviceName[:]))
	return nil
}

func deviceSupportsSwapchain(physicalDevice vk.PhysicalDevice) bool {
	var extensionCount uint32
	if res := vk.EnumerateDeviceExtensionProperties(physicalDevice, "", &extensionCount, nil); res != vk.Success {
		return false
	}
	extensions := make([]vk.ExtensionProperties, extensionCount)
	if res := vk.EnumerateDeviceExtensionProperties(physicalDevice, "", &extensionCount, extensions); res != vk.Success {
		return false
	}
	want := VulkanSafeString(vk.KhrSwapchainExtensionName)
	for i := range extensions {
		extensions[i].Deref()
		if VulkanSafeString(vk.ToString(extensions[i].ExtensionName[:])) == want {
			return true
		}
	}
	return false
}

func findQueueFamilies(physicalDevice vk.PhysicalDevice, surface vk.Surface) (graphicsIndex, presentIndex int32) {
	graphicsIndex, presentIndex = -1, -1

	var familyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &familyCount, nil)
	families := make([]vk.QueueFamilyProperties, familyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &familyCount, families)

	for i := uint32(0); i < familyCount; i++ {
		families[i].Deref()

		if graphicsIndex < 0 && vk.QueueFlags(families[i].QueueFlags)&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			graphicsIndex = int32(i)
		}

		var supported vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(physicalDevice, i, surface, &supported); res == vk.Success && supported == vk.True {
			// A single family serving both is preferred.
			if presentIndex < 0 || int32(i) == graphicsIndex {
				presentIndex = int32(i)
			}
		}
	}
	return graphicsIndex, presentIndex
}
