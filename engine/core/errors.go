package core

import (
	"errors"
)

// Failure taxonomy for the renderer. ErrSwapchainStale is the only
// recoverable condition; it is consumed inside the frame loop and never
// surfaces to callers. Everything else aborts the run.
var (
	// ErrNoSuitableDevice means no physical device exposes the required
	// graphics and presentation queues.
	ErrNoSuitableDevice = errors.New("no suitable gpu device")

	// ErrSurfaceLost means the presentation surface disappeared out from
	// under the swapchain.
	ErrSurfaceLost = errors.New("presentation surface lost")

	// ErrSwapchainStale means the swapchain no longer matches the surface
	// (typically after a resize) and must be rebuilt before the next acquire.
	ErrSwapchainStale = errors.New("swapchain stale")

	// ErrOutOfDeviceMemory means a device allocation failed. There is no
	// reclamation strategy at this scope.
	ErrOutOfDeviceMemory = errors.New("out of device memory")

	// ErrShaderCompile means a shader module was rejected at pipeline build.
	ErrShaderCompile = errors.New("shader compile failed")

	// ErrUnsupportedFormat means the requested render target format is not
	// supported by the device.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrDeviceTimeout means a fence or acquire wait exceeded its deadline,
	// which is treated as an unrecoverable device hang.
	ErrDeviceTimeout = errors.New("device timeout")
)
