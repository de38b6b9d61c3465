// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"fmt"

	"github.com/devblok/lumen/assets"
	"github.com/devblok/lumen/gfx"
	vk "github.com/devblok/vulkan"
	log "github.com/sirupsen/logrus"
)

// DeviceConfiguration configures the logical device and its swapchains
type DeviceConfiguration struct {
	// SwapchainSize is the preferred number of swapchain images.
	SwapchainSize uint32

	// Extensions are required device extensions.
	Extensions []string

	// DeviceIndex selects the physical device.
	DeviceIndex int

	// Assets provides shader bytecode.
	Assets assets.Source

	Logger log.FieldLogger
}

// queueFamilies are the indices of queue families work is submitted to.
type queueFamilies struct {
	graphics uint32
	present  uint32
}

// NewDevice creates the logical device with its command pool on the
// selected physical device of the instance. The instance surface
// must be set.
func NewDevice(instance *Instance, cfg DeviceConfiguration) (*Device, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.StandardLogger()
	}
	if cfg.Assets == nil {
		return nil, errors.New("vkr: no asset source for shaders")
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{vk.KhrSwapchainExtensionName}
	}

	devices := instance.AvailableDevices()
	if cfg.DeviceIndex < 0 || cfg.DeviceIndex >= len(devices) {
		return nil, fmt.Errorf("vkr: device %d not available, %d devices present", cfg.DeviceIndex, len(devices))
	}
	physical := devices[cfg.DeviceIndex]
	surface := instance.Surface()

	families, err := findQueueFamilies(physical, surface)
	if err != nil {
		return nil, err
	}

	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: families.graphics,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}
	if families.present != families.graphics {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: families.present,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	var logical vk.Device
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(cfg.Extensions)),
		PpEnabledExtensionNames: safeStrings(cfg.Extensions),
	}
	if err := vk.Error(vk.CreateDevice(physical, &dci, nil, &logical)); err != nil {
		return nil, errors.New("vk.CreateDevice(): " + err.Error())
	}

	d := &Device{
		configuration: cfg,
		log:           cfg.Logger,
		physical:      physical,
		logical:       logical,
		surface:       surface,
		families:      families,
		allocator:     NewMemoryAllocator(logical, physical),
	}
	vk.GetDeviceQueue(logical, families.graphics, 0, &d.graphicsQueue)
	vk.GetDeviceQueue(logical, families.present, 0, &d.presentQueue)

	if err := d.createCommandPool(); err != nil {
		d.Destroy()
		return nil, err
	}
	if err := d.createPipelineCache(); err != nil {
		d.Destroy()
		return nil, err
	}
	if d.depthFormat, err = findDepthFormat(physical); err != nil {
		d.Destroy()
		return nil, err
	}

	d.log.WithFields(log.Fields{
		"graphicsQueue": families.graphics,
		"presentQueue":  families.present,
	}).Debug("vulkan device created")
	return d, nil
}

// Device is the Vulkan implementation of gfx.Device
type Device struct {
	configuration DeviceConfiguration
	log           log.FieldLogger

	physical vk.PhysicalDevice
	logical  vk.Device
	surface  vk.Surface

	families      queueFamilies
	graphicsQueue vk.Queue
	presentQueue  vk.Queue

	commandPool   vk.CommandPool
	pipelineCache vk.PipelineCache
	allocator     *MemoryAllocator
	depthFormat   vk.Format
}

// findQueueFamilies prefers a single family that does both graphics and
// present, otherwise the first graphics family and the first present family.
func findQueueFamilies(physical vk.PhysicalDevice, surface vk.Surface) (queueFamilies, error) {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(physical, &queueFamilyCount, nil)
	if queueFamilyCount == 0 {
		return queueFamilies{}, errors.New("vk.GetPhysicalDeviceQueueFamilyProperties(): no queuefamilies on GPU")
	}
	properties := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(physical, &queueFamilyCount, properties)

	present := make([]bool, queueFamilyCount)
	for i := uint32(0); i < queueFamilyCount; i++ {
		var supportsPresent vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(physical, i, surface, &supportsPresent)
		present[i] = supportsPresent.B()
	}
	return pickQueueFamilies(properties, present)
}

func pickQueueFamilies(properties []vk.QueueFamilyProperties, present []bool) (queueFamilies, error) {
	const none = ^uint32(0)
	graphics, presenting := none, none
	for i := range properties {
		properties[i].Deref()
		isGraphics := properties[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0
		if isGraphics && present[i] {
			return queueFamilies{graphics: uint32(i), present: uint32(i)}, nil
		}
		if isGraphics && graphics == none {
			graphics = uint32(i)
		}
		if present[i] && presenting == none {
			presenting = uint32(i)
		}
	}
	if graphics == none {
		return queueFamilies{}, errors.New("vulkan error: could not find a suitable queue family for the target Vulkan mode")
	}
	if presenting == none {
		return queueFamilies{}, errors.New("vulkan error: could not find a queue with present capabilities")
	}
	return queueFamilies{graphics: graphics, present: presenting}, nil
}

func (d *Device) createCommandPool() error {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.families.graphics,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}

	var commandPool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(d.logical, &cpci, nil, &commandPool)); err != nil {
		return errors.New("vk.CreateCommandPool(): " + err.Error())
	}
	d.commandPool = commandPool
	return nil
}

func (d *Device) createPipelineCache() error {
	pcci := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}

	var pipelineCache vk.PipelineCache
	if err := vk.Error(vk.CreatePipelineCache(d.logical, &pcci, nil, &pipelineCache)); err != nil {
		return errors.New("vk.CreatePipelineCache(): " + err.Error())
	}
	d.pipelineCache = pipelineCache
	return nil
}

// WaitIdle implements gfx.Device
func (d *Device) WaitIdle() error {
	if err := vk.Error(vk.DeviceWaitIdle(d.logical)); err != nil {
		return errors.New("vk.DeviceWaitIdle(): " + err.Error())
	}
	return nil
}

// AllocateCommandBuffers implements gfx.Device
func (d *Device) AllocateCommandBuffers(count int) ([]gfx.CommandBuffer, error) {
	if count <= 0 {
		return nil, fmt.Errorf("vkr: can't allocate %d command buffers", count)
	}
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}

	handles := make([]vk.CommandBuffer, count)
	if err := vk.Error(vk.AllocateCommandBuffers(d.logical, &cbai, handles)); err != nil {
		return nil, errors.New("vk.AllocateCommandBuffers(): " + err.Error())
	}

	buffers := make([]gfx.CommandBuffer, count)
	for i, handle := range handles {
		buffers[i] = &CommandBuffer{buffer: handle}
	}
	return buffers, nil
}

// FreeCommandBuffers implements gfx.Device
func (d *Device) FreeCommandBuffers(buffers []gfx.CommandBuffer) {
	handles := make([]vk.CommandBuffer, 0, len(buffers))
	for _, buffer := range buffers {
		if cb, ok := buffer.(*CommandBuffer); ok {
			handles = append(handles, cb.buffer)
		}
	}
	if len(handles) == 0 {
		return
	}
	vk.FreeCommandBuffers(d.logical, d.commandPool, uint32(len(handles)), handles)
}

// Destroy destroys the device and everything it owns directly.
// Everything created from the device has to be released before.
func (d *Device) Destroy() {
	if d.logical == nil {
		return
	}
	vk.DeviceWaitIdle(d.logical)
	if d.pipelineCache != nil {
		vk.DestroyPipelineCache(d.logical, d.pipelineCache, nil)
	}
	if d.commandPool != nil {
		vk.DestroyCommandPool(d.logical, d.commandPool, nil)
	}
	vk.DestroyDevice(d.logical, nil)
	d.logical = nil
}
