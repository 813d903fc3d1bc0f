package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"prism/engine/core"
)

type VulkanShaderStage struct {
	Module vk.ShaderModule
	Stage  vk.ShaderStageFlagBits
}

// ShaderStageCreate wraps validated SPIR-V words in a shader module. A
// rejection from the driver maps to core.ErrShaderCompile since the words
// already passed the loader's structural checks.
func ShaderStageCreate(context *VulkanContext, words []uint32, stage vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("empty shader module: %w", core.ErrShaderCompile)
	}

	moduleCreateInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(words) * 4),
		PCode:    words,
	}

	var module vk.ShaderModule
	if res := vk.CreateShaderModule(context.Device.LogicalDevice, &moduleCreateInfo, context.Allocator, &module); res != vk.Success {
		return nil, fmt.Errorf("shader module rejected (%s): %w", VulkanResultString(res), core.ErrShaderCompile)
	}

	return &VulkanShaderStage{
		Module: module,
		Stage:  stage,
	}, nil
}

func (ss *VulkanShaderStage) Destroy(context *VulkanContext) {
	if ss.Module != vk.NullShaderModule {
		vk.DestroyShaderModule(context.Device.LogicalDevice, ss.Module, context.Allocator)
		ss.Module = vk.NullShaderModule
	}
}

// StageCreateInfo builds the pipeline stage description for this module,
// entered at main.
func (ss *VulkanShaderStage) StageCreateInfo() vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  ss.Stage,
		Module: ss.Module,
		PName:  VulkanSafeString("main"),
	}
}
