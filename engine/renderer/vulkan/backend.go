package vulkan

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"prism/engine/assets"
	"prism/engine/core"
	"prism/engine/geometry"
	"prism/engine/platform"
)

// VulkanRenderer owns the whole backend: instance, surface, device,
// swapchain, pipeline and the per frame slot command buffers. One instance
// drives one window.
type VulkanRenderer struct {
	platform    *platform.Platform
	FrameNumber uint64
	context     *VulkanContext

	cachedFramebufferWidth  uint32
	cachedFramebufferHeight uint32

	descriptors *VulkanDescriptorState
	pipeline    *VulkanPipeline
	vertShader  *VulkanShaderStage
	fragShader  *VulkanShaderStage

	// Shader words are kept so the pipeline can be rebuilt when a
	// swapchain recreation changes the surface format.
	vertWords []uint32
	fragWords []uint32

	// One primary command buffer per frame slot, re-recorded every frame.
	commandBuffers []*VulkanCommandBuffer

	mesh    *GPUMesh
	texture *GPUTexture

	debug    bool
	shutdown bool
}

func New(p *platform.Platform) *VulkanRenderer {
	return &VulkanRenderer{
		platform: p,
		context: &VulkanContext{
			Allocator: nil,
		},
		debug: false,
	}
}

func (vr *VulkanRenderer) Initialize(appName string, width, height, desiredImageCount uint32, vertWords, fragWords []uint32) error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return errors.New("vulkan loader not available")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		return fmt.Errorf("failed to initialize vulkan: %w", err)
	}

	vr.context.FramebufferWidth = width
	vr.context.FramebufferHeight = height
	vr.context.DesiredImageCount = desiredImageCount
	vr.vertWords = vertWords
	vr.fragWords = fragWords

	if err := vr.createInstance(appName); err != nil {
		return err
	}

	surface, err := vr.platform.Window.CreateWindowSurface(vr.context.Instance, nil)
	if err != nil {
		return fmt.Errorf("failed to create window surface: %w", err)
	}
	vr.context.Surface = vk.SurfaceFromPointer(surface)

	vr.context.Device = &VulkanDevice{
		GraphicsQueueIndex: -1,
		PresentQueueIndex:  -1,
	}
	if err := DeviceCreate(vr.context); err != nil {
		return err
	}

	swapchain, err := SwapchainCreate(vr.context, vr.context.FramebufferWidth, vr.context.FramebufferHeight)
	if err != nil {
		return err
	}
	vr.context.Swapchain = swapchain

	renderpass, err := RenderpassCreate(vr.context, [4]float32{0.0, 0.0, 0.1, 1.0}, 1.0, 0)
	if err != nil {
		return err
	}
	vr.context.MainRenderpass = renderpass

	if err := vr.regenerateFramebuffers(); err != nil {
		return err
	}

	descriptors, err := DescriptorStateCreate(vr.context)
	if err != nil {
		return err
	}
	vr.descriptors = descriptors

	if err := vr.createShadersAndPipeline(); err != nil {
		return err
	}

	vr.commandBuffers = make([]*VulkanCommandBuffer, MaxFramesInFlight)
	for i := 0; i < MaxFramesInFlight; i++ {
		cb, err := CommandBufferAllocate(vr.context, vr.context.Device.GraphicsCommandPool, true)
		if err != nil {
			return err
		}
		vr.commandBuffers[i] = cb
	}

	core.LogInfo("vulkan renderer initialized")
	return nil
}

// UploadMesh moves mesh data to the GPU and keeps it as the drawn mesh.
func (vr *VulkanRenderer) UploadMesh(mesh *geometry.MeshData) error {
	gpuMesh, err := UploadMesh(vr.context, mesh)
	if err != nil {
		return err
	}
	vr.mesh = gpuMesh
	return nil
}

// UploadTexture moves texel data to the GPU and keeps it as the bound
// texture.
func (vr *VulkanRenderer) UploadTexture(texture *assets.TextureData) error {
	gpuTexture, err := UploadTexture(vr.context, vr.descriptors, texture)
	if err != nil {
		return err
	}
	vr.texture = gpuTexture
	return nil
}

// Resized records the new framebuffer size. The swapchain rebuild is
// deferred to the next DrawFrame so it happens on the render thread with
// nothing in flight.
func (vr *VulkanRenderer) Resized(width, height uint32) {
	vr.cachedFramebufferWidth = width
	vr.cachedFramebufferHeight = height
	vr.context.FramebufferSizeGeneration++
}

// DrawFrame runs one iteration of the frame protocol: wait on the slot
// fence, acquire, update per-frame data, record, submit, present. A stale
// swapchain rebuilds and skips the frame; the caller just calls again.
func (vr *VulkanRenderer) DrawFrame(pushBlock *[PushConstantBlockSize]byte, cameraBlock *[UniformBlockSize]byte) error {
	context := vr.context
	swapchain := context.Swapchain

	if context.RecreatingSwapchain {
		return nil
	}

	// A resize arrived since the last frame. Rebuild before touching the
	// stale swapchain.
	if context.FramebufferSizeGeneration != context.FramebufferSizeLastGeneration {
		if err := vr.recreateSwapchain(); err != nil {
			return err
		}
		return nil
	}

	slot := context.CurrentFrame
	fence := swapchain.InFlightFences[slot]

	if err := fence.FenceWait(context, FenceWaitTimeout); err != nil {
		return err
	}

	imageIndex, err := swapchain.SwapchainAcquireNextImageIndex(context, FenceWaitTimeout,
		swapchain.ImageAvailableSemaphores[slot], vk.NullFence)
	if err != nil {
		if errors.Is(err, core.ErrSwapchainStale) {
			return vr.recreateSwapchain()
		}
		return err
	}
	context.ImageIndex = imageIndex

	// Only reset the fence once work will actually be submitted for it.
	if err := fence.FenceReset(context); err != nil {
		return err
	}

	if err := vr.descriptors.UpdateCameraBuffer(context, slot, cameraBlock[:]); err != nil {
		return err
	}

	cb := vr.commandBuffers[slot]
	cb.Reset()
	if err := vr.recordCommands(cb, imageIndex, pushBlock, slot); err != nil {
		return err
	}

	if err := context.Device.SubmitGraphics(cb,
		[]vk.Semaphore{swapchain.ImageAvailableSemaphores[slot]},
		[]vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		[]vk.Semaphore{swapchain.RenderFinishedSemaphores[slot]},
		fence.Handle); err != nil {
		return err
	}

	err = swapchain.SwapchainPresent(context, context.Device.PresentQueue,
		swapchain.RenderFinishedSemaphores[slot], imageIndex)
	if err != nil {
		if errors.Is(err, core.ErrSwapchainStale) {
			// The submitted work still completes; only the present was
			// refused. Rebuild for the next frame.
			context.CurrentFrame = nextFrameSlot(context.CurrentFrame)
			vr.FrameNumber++
			return vr.recreateSwapchain()
		}
		return err
	}

	context.CurrentFrame = nextFrameSlot(context.CurrentFrame)
	vr.FrameNumber++
	return nil
}

// Shutdown tears everything down in reverse creation order. Safe to call
// more than once.
func (vr *VulkanRenderer) Shutdown() {
	if vr.shutdown {
		return
	}
	vr.shutdown = true

	context := vr.context
	if context.Device != nil && context.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(context.Device.LogicalDevice)
	}

	if vr.texture != nil {
		vr.texture.Destroy(context)
		vr.texture = nil
	}
	if vr.mesh != nil {
		vr.mesh.Destroy(context)
		vr.mesh = nil
	}

	for i := range vr.commandBuffers {
		if vr.commandBuffers[i] != nil {
			vr.commandBuffers[i].Free(context, context.Device.GraphicsCommandPool)
			vr.commandBuffers[i] = nil
		}
	}

	if vr.pipeline != nil {
		vr.pipeline.Destroy(context)
		vr.pipeline = nil
	}
	if vr.vertShader != nil {
		vr.vertShader.Destroy(context)
		vr.vertShader = nil
	}
	if vr.fragShader != nil {
		vr.fragShader.Destroy(context)
		vr.fragShader = nil
	}
	if vr.descriptors != nil {
		vr.descriptors.Destroy(context)
		vr.descriptors = nil
	}
	if context.MainRenderpass != nil {
		context.MainRenderpass.RenderpassDestroy(context)
		context.MainRenderpass = nil
	}
	if context.Swapchain != nil {
		context.Swapchain.SwapchainDestroy(context)
		context.Swapchain = nil
	}

	DeviceDestroy(context)

	if context.Surface != vk.NullSurface {
		vk.DestroySurface(context.Instance, context.Surface, context.Allocator)
		context.Surface = vk.NullSurface
	}
	if context.Instance != nil {
		vk.DestroyInstance(context.Instance, context.Allocator)
		context.Instance = nil
	}

	core.LogInfo("vulkan renderer shut down")
}

func (vr *VulkanRenderer) createInstance(appName string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Prism Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := vr.platform.GetRequiredExtensionNames()
	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		createInfo.Flags |= 1
	}

	layers := []string{}
	if vr.debug {
		layers = append(layers, "VK_LAYER_KHRONOS_validation")
		core.LogInfo("validation layers enabled")
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &instance); res != vk.Success {
		return fmt.Errorf("failed to create vulkan instance: %s", VulkanResultString(res))
	}
	vr.context.Instance = instance

	if err := vk.InitInstance(instance); err != nil {
		return fmt.Errorf("failed to load instance procedures: %w", err)
	}
	return nil
}

func (vr *VulkanRenderer) createShadersAndPipeline() error {
	vertShader, err := ShaderStageCreate(vr.context, vr.vertWords, vk.ShaderStageVertexBit)
	if err != nil {
		return err
	}
	vr.vertShader = vertShader

	fragShader, err := ShaderStageCreate(vr.context, vr.fragWords, vk.ShaderStageFragmentBit)
	if err != nil {
		return err
	}
	vr.fragShader = fragShader

	pipeline, err := PipelineCreate(vr.context, vr.context.MainRenderpass, vr.descriptors, vr.vertShader, vr.fragShader)
	if err != nil {
		return err
	}
	vr.pipeline = pipeline
	return nil
}

func (vr *VulkanRenderer) recordCommands(cb *VulkanCommandBuffer, imageIndex uint32, pushBlock *[PushConstantBlockSize]byte, slot uint32) error {
	context := vr.context
	swapchain := context.Swapchain
	extent := swapchain.Extent

	if err := cb.Begin(false); err != nil {
		return err
	}

	context.MainRenderpass.RenderpassBegin(cb, swapchain.Framebuffers[imageIndex].Handle, extent)

	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	vk.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{viewport})

	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: extent,
	}
	vk.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{scissor})

	if vr.mesh != nil && vr.texture != nil {
		vr.pipeline.Bind(cb)

		vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, vr.pipeline.Layout,
			0, 2, []vk.DescriptorSet{
				vr.descriptors.CameraSets[slot],
				vr.texture.DescriptorSet,
			}, 0, nil)

		vr.pipeline.PushConstants(cb, pushBlock)

		vk.CmdBindVertexBuffers(cb.Handle, 0, 1,
			[]vk.Buffer{vr.mesh.VertexBuffer.Handle}, []vk.DeviceSize{0})
		vk.CmdBindIndexBuffer(cb.Handle, vr.mesh.IndexBuffer.Handle, 0, vk.IndexTypeUint32)

		vk.CmdDrawIndexed(cb.Handle, vr.mesh.IndexCount, 1, 0, 0, 0)
	}

	context.MainRenderpass.RenderpassEnd(cb)
	return cb.End()
}

// recreateSwapchain drains the device and rebuilds everything derived from
// the surface. A format change also invalidates the render pass and the
// pipeline, so those are rebuilt too.
func (vr *VulkanRenderer) recreateSwapchain() error {
	context := vr.context

	if context.RecreatingSwapchain {
		return nil
	}

	width := vr.cachedFramebufferWidth
	height := vr.cachedFramebufferHeight
	if width == 0 && height == 0 {
		width = context.FramebufferWidth
		height = context.FramebufferHeight
	}
	// Minimized window. Stay stale until a real size shows up.
	if width == 0 || height == 0 {
		return nil
	}

	context.RecreatingSwapchain = true
	defer func() { context.RecreatingSwapchain = false }()

	if res := vk.DeviceWaitIdle(context.Device.LogicalDevice); res != vk.Success {
		return fmt.Errorf("failed to drain device for swapchain rebuild: %s", VulkanResultString(res))
	}

	if err := DeviceQuerySwapchainSupport(context.Device, context.Device.PhysicalDevice, context.Surface); err != nil {
		return err
	}

	oldFormat := context.Swapchain.ImageFormat.Format
	if err := context.Swapchain.SwapchainRecreate(context, width, height); err != nil {
		return err
	}

	context.FramebufferWidth = context.Swapchain.Extent.Width
	context.FramebufferHeight = context.Swapchain.Extent.Height
	context.FramebufferSizeLastGeneration = context.FramebufferSizeGeneration
	vr.cachedFramebufferWidth = 0
	vr.cachedFramebufferHeight = 0

	if context.Swapchain.ImageFormat.Format != oldFormat {
		core.LogWarn("surface format changed, rebuilding render pass and pipeline")

		context.MainRenderpass.RenderpassDestroy(context)
		renderpass, err := RenderpassCreate(context, [4]float32{0.0, 0.0, 0.1, 1.0}, 1.0, 0)
		if err != nil {
			return err
		}
		context.MainRenderpass = renderpass

		vr.pipeline.Destroy(context)
		pipeline, err := PipelineCreate(context, context.MainRenderpass, vr.descriptors, vr.vertShader, vr.fragShader)
		if err != nil {
			return err
		}
		vr.pipeline = pipeline
	}

	if err := vr.regenerateFramebuffers(); err != nil {
		return err
	}

	core.LogDebug("swapchain recreated at %dx%d", context.FramebufferWidth, context.FramebufferHeight)
	return nil
}

func (vr *VulkanRenderer) regenerateFramebuffers() error {
	context := vr.context
	swapchain := context.Swapchain

	swapchain.Framebuffers = make([]*VulkanFramebuffer, swapchain.ImageCount)
	for i := uint32(0); i < swapchain.ImageCount; i++ {
		attachments := []vk.ImageView{
			swapchain.Views[i],
			swapchain.DepthAttachment.View,
		}
		framebuffer, err := FramebufferCreate(context, context.MainRenderpass,
			swapchain.Extent.Width, swapchain.Extent.Height, attachments)
		if err != nil {
			return err
		}
		swapchain.Framebuffers[i] = framebuffer
	}
	return nil
}
