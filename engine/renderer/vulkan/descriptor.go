package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

const (
	// UniformBlockSize is the byte size of the per-frame camera uniform
	// bound at set 0, binding 0.
	UniformBlockSize = 128

	// maxTextureSets bounds how many sampler descriptor sets the pool can
	// hand out. One mesh needs one; the slack covers texture swaps.
	maxTextureSets = 8
)

// VulkanDescriptorState owns the fixed binding scheme: set 0 binding 0 is
// the camera uniform (one buffer and set per frame slot so an in-flight
// frame never sees a partial update), set 1 binding 0 is the combined
// image sampler for the mesh texture.
type VulkanDescriptorState struct {
	CameraLayout  vk.DescriptorSetLayout
	SamplerLayout vk.DescriptorSetLayout
	Pool          vk.DescriptorPool

	CameraSets    [MaxFramesInFlight]vk.DescriptorSet
	CameraBuffers [MaxFramesInFlight]*VulkanBuffer
}

func DescriptorStateCreate(context *VulkanContext) (*VulkanDescriptorState, error) {
	ds := &VulkanDescriptorState{}

	cameraBinding := vk.DescriptorSetLayoutBinding{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
	}
	cameraLayoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings:    []vk.DescriptorSetLayoutBinding{cameraBinding},
	}
	var cameraLayout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &cameraLayoutInfo, context.Allocator, &cameraLayout); res != vk.Success {
		return nil, fmt.Errorf("failed to create camera descriptor layout: %s", VulkanResultString(res))
	}
	ds.CameraLayout = cameraLayout

	samplerBinding := vk.DescriptorSetLayoutBinding{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
	}
	samplerLayoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings:    []vk.DescriptorSetLayoutBinding{samplerBinding},
	}
	var samplerLayout vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &samplerLayoutInfo, context.Allocator, &samplerLayout); res != vk.Success {
		ds.Destroy(context)
		return nil, fmt.Errorf("failed to create sampler descriptor layout: %s", VulkanResultString(res))
	}
	ds.SamplerLayout = samplerLayout

	poolSizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: MaxFramesInFlight},
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: maxTextureSets},
	}
	poolCreateInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
		MaxSets:       MaxFramesInFlight + maxTextureSets,
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolCreateInfo, context.Allocator, &pool); res != vk.Success {
		ds.Destroy(context)
		return nil, fmt.Errorf("failed to create descriptor pool: %s", VulkanResultString(res))
	}
	ds.Pool = pool

	for slot := 0; slot < MaxFramesInFlight; slot++ {
		buffer, err := BufferCreate(context, UniformBlockSize,
			vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
		if err != nil {
			ds.Destroy(context)
			return nil, err
		}
		ds.CameraBuffers[slot] = buffer

		allocateInfo := vk.DescriptorSetAllocateInfo{
			SType:              vk.StructureTypeDescriptorSetAllocateInfo,
			DescriptorPool:     ds.Pool,
			DescriptorSetCount: 1,
			PSetLayouts:        []vk.DescriptorSetLayout{ds.CameraLayout},
		}
		var set vk.DescriptorSet
		if res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocateInfo, &set); res != vk.Success {
			ds.Destroy(context)
			return nil, fmt.Errorf("failed to allocate camera descriptor set: %s", VulkanResultString(res))
		}
		ds.CameraSets[slot] = set

		bufferInfo := vk.DescriptorBufferInfo{
			Buffer: buffer.Handle,
			Offset: 0,
			Range:  UniformBlockSize,
		}
		write := vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      0,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
		}
		vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
	}

	return ds, nil
}

func (ds *VulkanDescriptorState) Destroy(context *VulkanContext) {
	for slot := range ds.CameraBuffers {
		if ds.CameraBuffers[slot] != nil {
			ds.CameraBuffers[slot].Destroy(context)
			ds.CameraBuffers[slot] = nil
		}
	}
	if ds.Pool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, ds.Pool, context.Allocator)
		ds.Pool = vk.NullDescriptorPool
	}
	if ds.SamplerLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, ds.SamplerLayout, context.Allocator)
		ds.SamplerLayout = vk.NullDescriptorSetLayout
	}
	if ds.CameraLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, ds.CameraLayout, context.Allocator)
		ds.CameraLayout = vk.NullDescriptorSetLayout
	}
}

// UpdateCameraBuffer writes the frame's camera block into the slot's
// uniform buffer. Safe because the slot's fence already proved the GPU is
// done with it.
func (ds *VulkanDescriptorState) UpdateCameraBuffer(context *VulkanContext, slot uint32, data []byte) error {
	if len(data) != UniformBlockSize {
		return fmt.Errorf("camera block must be %d bytes, got %d", UniformBlockSize, len(data))
	}
	return ds.CameraBuffers[slot].LoadData(context, 0, data)
}

// AllocateTextureSet binds a sampled image into a fresh set 1 descriptor.
func (ds *VulkanDescriptorState) AllocateTextureSet(context *VulkanContext, view vk.ImageView, sampler vk.Sampler) (vk.DescriptorSet, error) {
	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     ds.Pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{ds.SamplerLayout},
	}
	var set vk.DescriptorSet
	if res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocateInfo, &set); res != vk.Success {
		return vk.NullDescriptorSet, fmt.Errorf("failed to allocate texture descriptor set: %s", VulkanResultString(res))
	}

	imageInfo := vk.DescriptorImageInfo{
		Sampler:     sampler,
		ImageView:   view,
		ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)

	return set, nil
}
