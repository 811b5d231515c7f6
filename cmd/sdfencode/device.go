package main

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/sdfblend/sdfrt/rt/gpu"
)

// openDevice creates a headless WebGPU device and a sink on top of it.
func openDevice() (*gpu.WgpuSink, func(), error) {
	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, nil, fmt.Errorf("requesting adapter: %w", err)
	}
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, nil, fmt.Errorf("requesting device: %w", err)
	}

	sink := gpu.NewWgpuSink(device)
	release := func() {
		sink.Release()
		device.Release()
		adapter.Release()
		instance.Release()
	}
	return sink, release, nil
}
