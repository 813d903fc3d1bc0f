package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"prism/engine/geometry"
)

// PushConstantBlockSize is the byte size of the per-draw push constant
// range: model matrix, padded normal matrix and the texture blend factor.
// 128 bytes is the minimum the standard guarantees, so the block always
// fits.
const PushConstantBlockSize = 128

type VulkanPipeline struct {
	Handle vk.Pipeline
	Layout vk.PipelineLayout
}

// PipelineCreate builds the one graphics pipeline the engine uses: fixed
// vertex layout, triangle list, depth tested opaque draw with dynamic
// viewport and scissor so a swapchain resize does not force a rebuild.
// Only a surface format change invalidates it.
func PipelineCreate(context *VulkanContext, renderpass *VulkanRenderpass, descriptors *VulkanDescriptorState, vertShader, fragShader *VulkanShaderStage) (*VulkanPipeline, error) {
	pipeline := &VulkanPipeline{}

	bindingDescription := vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    uint32(geometry.VertexStride),
		InputRate: vk.VertexInputRateVertex,
	}

	attributeDescriptions := []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(geometry.PositionOffset)},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(geometry.ColorOffset)},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(geometry.NormalOffset)},
		{Location: 3, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(geometry.UVOffset)},
	}

	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{bindingDescription},
		VertexAttributeDescriptionCount: uint32(len(attributeDescriptions)),
		PVertexAttributeDescriptions:    attributeDescriptions,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: vk.PrimitiveTopologyTriangleList,
	}

	// Viewport and scissor are dynamic; the counts still must be declared.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	// Culling stays off: loaded meshes carry no winding guarantee and the
	// depth test already resolves visibility for a single object.
	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		LineWidth:   1.0,
		CullMode:    vk.CullModeFlags(vk.CullModeNone),
		FrontFace:   vk.FrontFaceCounterClockwise,
	}

	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:  vk.True,
		DepthWriteEnable: vk.True,
		DepthCompareOp:   vk.CompareOpLess,
	}

	colorBlendAttachment := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(
			vk.ColorComponentRBit | vk.ColorComponentGBit |
				vk.ColorComponentBBit | vk.ColorComponentABit),
	}

	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachment},
	}

	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	pushConstantRange := vk.PushConstantRange{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit),
		Offset:     0,
		Size:       PushConstantBlockSize,
	}

	layoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 2,
		PSetLayouts: []vk.DescriptorSetLayout{
			descriptors.CameraLayout,
			descriptors.SamplerLayout,
		},
		PushConstantRangeCount: 1,
		PPushConstantRanges:    []vk.PushConstantRange{pushConstantRange},
	}

	var layout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(context.Device.LogicalDevice, &layoutCreateInfo, context.Allocator, &layout); res != vk.Success {
		return nil, fmt.Errorf("failed to create pipeline layout: %s", VulkanResultString(res))
	}
	pipeline.Layout = layout

	stages := []vk.PipelineShaderStageCreateInfo{
		vertShader.StageCreateInfo(),
		fragShader.StageCreateInfo(),
	}

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlend,
		PDynamicState:       &dynamicState,
		Layout:              pipeline.Layout,
		RenderPass:          renderpass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	handles := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(context.Device.LogicalDevice, vk.NullPipelineCache, 1,
		[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo}, context.Allocator, handles); res != vk.Success {
		pipeline.Destroy(context)
		return nil, fmt.Errorf("failed to create graphics pipeline: %s", VulkanResultString(res))
	}
	pipeline.Handle = handles[0]

	return pipeline, nil
}

func (vp *VulkanPipeline) Destroy(context *VulkanContext) {
	if vp.Handle != vk.NullPipeline {
		vk.DestroyPipeline(context.Device.LogicalDevice, vp.Handle, context.Allocator)
		vp.Handle = vk.NullPipeline
	}
	if vp.Layout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(context.Device.LogicalDevice, vp.Layout, context.Allocator)
		vp.Layout = vk.NullPipelineLayout
	}
}

func (vp *VulkanPipeline) Bind(cb *VulkanCommandBuffer) {
	vk.CmdBindPipeline(cb.Handle, vk.PipelineBindPointGraphics, vp.Handle)
}

// PushConstants uploads the 128 byte per-draw block to both stages.
func (vp *VulkanPipeline) PushConstants(cb *VulkanCommandBuffer, block *[PushConstantBlockSize]byte) {
	vk.CmdPushConstants(cb.Handle, vp.Layout,
		vk.ShaderStageFlags(vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit),
		0, PushConstantBlockSize, unsafe.Pointer(&block[0]))
}
