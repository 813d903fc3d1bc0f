package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"

	"prism/engine/assets"
	"prism/engine/core"
	"prism/engine/geometry"
)

// GPUMesh is the device-resident form of a mesh: immutable device-local
// vertex and index buffers plus the index count the draw call needs.
type GPUMesh struct {
	ID           uuid.UUID
	VertexBuffer *VulkanBuffer
	IndexBuffer  *VulkanBuffer
	IndexCount   uint32
}

// GPUTexture is a sampled image in shader-read-only layout with its
// sampler and the descriptor set binding it at set 1.
type GPUTexture struct {
	ID            uuid.UUID
	Image         *VulkanImage
	Sampler       vk.Sampler
	DescriptorSet vk.DescriptorSet
}

// UploadMesh pushes validated mesh data through a host-visible staging
// buffer into device-local memory. The blocking copies are fine here; all
// uploads happen before the first frame.
func UploadMesh(context *VulkanContext, mesh *geometry.MeshData) (*GPUMesh, error) {
	if err := mesh.Validate(); err != nil {
		return nil, err
	}

	out := &GPUMesh{
		ID:         uuid.New(),
		IndexCount: uint32(len(mesh.Indices)),
	}

	vertexBytes := geometry.VertexBytes(mesh.Vertices)
	vertexBuffer, err := uploadThroughStaging(context, vertexBytes,
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return nil, fmt.Errorf("vertex upload: %w", err)
	}
	out.VertexBuffer = vertexBuffer

	indexBytes := geometry.IndexBytes(mesh.Indices)
	indexBuffer, err := uploadThroughStaging(context, indexBytes,
		vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
	if err != nil {
		vertexBuffer.Destroy(context)
		return nil, fmt.Errorf("index upload: %w", err)
	}
	out.IndexBuffer = indexBuffer

	core.LogInfo("mesh %s uploaded: %d vertices, %d indices", out.ID, len(mesh.Vertices), out.IndexCount)
	return out, nil
}

func (gm *GPUMesh) Destroy(context *VulkanContext) {
	if gm.VertexBuffer != nil {
		gm.VertexBuffer.Destroy(context)
		gm.VertexBuffer = nil
	}
	if gm.IndexBuffer != nil {
		gm.IndexBuffer.Destroy(context)
		gm.IndexBuffer = nil
	}
	gm.IndexCount = 0
}

// UploadTexture stages RGBA8 texel data into a device-local image,
// transitioning it undefined -> transfer-dst -> shader-read-only, then
// creates the sampler and the set 1 descriptor.
func UploadTexture(context *VulkanContext, descriptors *VulkanDescriptorState, texture *assets.TextureData) (*GPUTexture, error) {
	expected := int(texture.Width) * int(texture.Height) * 4
	if len(texture.Pixels) != expected {
		return nil, fmt.Errorf("texture data is %d bytes, want %d", len(texture.Pixels), expected)
	}

	out := &GPUTexture{ID: uuid.New()}

	staging, err := BufferCreate(context, vk.DeviceSize(len(texture.Pixels)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	if err := staging.LoadData(context, 0, texture.Pixels); err != nil {
		return nil, err
	}

	image, err := ImageCreate(context, texture.Width, texture.Height,
		vk.FormatR8g8b8a8Srgb, vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		return nil, err
	}
	out.Image = image

	pool := context.Device.GraphicsCommandPool
	queue := context.Device.GraphicsQueue

	cb, err := CommandBufferAllocateAndBeginSingleUse(context, pool)
	if err != nil {
		out.Destroy(context)
		return nil, err
	}
	if err := image.TransitionLayout(cb, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
		out.Destroy(context)
		return nil, err
	}
	image.CopyFromBuffer(cb, staging)
	if err := image.TransitionLayout(cb, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal); err != nil {
		out.Destroy(context)
		return nil, err
	}
	if err := cb.EndSingleUse(context, pool, queue); err != nil {
		out.Destroy(context)
		return nil, err
	}

	sampler, err := createSampler(context)
	if err != nil {
		out.Destroy(context)
		return nil, err
	}
	out.Sampler = sampler

	set, err := descriptors.AllocateTextureSet(context, image.View, sampler)
	if err != nil {
		out.Destroy(context)
		return nil, err
	}
	out.DescriptorSet = set

	core.LogInfo("texture %s uploaded: %dx%d", out.ID, texture.Width, texture.Height)
	return out, nil
}

func (gt *GPUTexture) Destroy(context *VulkanContext) {
	if gt.Sampler != vk.NullSampler {
		vk.DestroySampler(context.Device.LogicalDevice, gt.Sampler, context.Allocator)
		gt.Sampler = vk.NullSampler
	}
	if gt.Image != nil {
		gt.Image.ImageDestroy(context)
		gt.Image = nil
	}
	gt.DescriptorSet = vk.NullDescriptorSet
}

func uploadThroughStaging(context *VulkanContext, data []byte, usage vk.BufferUsageFlags) (*VulkanBuffer, error) {
	size := vk.DeviceSize(len(data))

	staging, err := BufferCreate(context, size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	if err := staging.LoadData(context, 0, data); err != nil {
		return nil, err
	}

	deviceLocal, err := BufferCreate(context, size,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}

	if err := staging.CopyTo(context, context.Device.GraphicsCommandPool, context.Device.GraphicsQueue, deviceLocal, size); err != nil {
		deviceLocal.Destroy(context)
		return nil, err
	}
	return deviceLocal, nil
}

func createSampler(context *VulkanContext) (vk.Sampler, error) {
	samplerCreateInfo := vk.SamplerCreateInfo{
		SType:        vk.StructureTypeSamplerCreateInfo,
		MagFilter:    vk.FilterLinear,
		MinFilter:    vk.FilterLinear,
		AddressModeU: vk.SamplerAddressModeRepeat,
		AddressModeV: vk.SamplerAddressModeRepeat,
		AddressModeW: vk.SamplerAddressModeRepeat,
		MipmapMode:   vk.SamplerMipmapModeLinear,
		MaxLod:       1,
	}
	if context.Device.SupportsAnisotropy {
		samplerCreateInfo.AnisotropyEnable = vk.True
		samplerCreateInfo.MaxAnisotropy = 16
	}

	var sampler vk.Sampler
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerCreateInfo, context.Allocator, &sampler); res != vk.Success {
		return vk.NullSampler, fmt.Errorf("failed to create sampler: %s", VulkanResultString(res))
	}
	return sampler, nil
}
