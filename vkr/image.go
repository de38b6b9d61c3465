// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"

	vk "github.com/devblok/vulkan"
)

// depthFormats are tried in order when picking the depth attachment format.
var depthFormats = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
	vk.FormatD16Unorm,
}

// findDepthFormat returns the first depth format usable as an
// optimally tiled depth attachment.
func findDepthFormat(physical vk.PhysicalDevice) (vk.Format, error) {
	for _, format := range depthFormats {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(physical, format, &props)
		props.Deref()
		if props.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit) != 0 {
			return format, nil
		}
	}
	return vk.FormatUndefined, fmt.Errorf("no supported depth format")
}

// NewDepthImage creates a device local depth attachment with its view.
func NewDepthImage(dev vk.Device, width, height uint32, format vk.Format, ma *MemoryAllocator) (Image, error) {
	ici := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	var image vk.Image
	if err := vk.Error(vk.CreateImage(dev, &ici, nil, &image)); err != nil {
		return Image{}, fmt.Errorf("vk.CreateImage(): %s", err.Error())
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dev, image, &req)
	req.Deref()

	memory, err := ma.Malloc(req, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		vk.DestroyImage(dev, image, nil)
		return Image{}, err
	}

	if err := vk.Error(vk.BindImageMemory(dev, image, memory.Get(), vk.DeviceSize(memory.Offset()))); err != nil {
		vk.DestroyImage(dev, image, nil)
		memory.Release()
		return Image{}, fmt.Errorf("vk.BindImageMemory(): %s", err.Error())
	}

	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectDepthBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}

	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(dev, &ivci, nil, &view)); err != nil {
		vk.DestroyImage(dev, image, nil)
		memory.Release()
		return Image{}, fmt.Errorf("vk.CreateImageView(): %s", err.Error())
	}

	return Image{
		device: dev,
		image:  image,
		view:   view,
		format: format,
		memory: memory,
	}, nil
}

// Image implements and abstracts vulkan image primitive.
type Image struct {
	device vk.Device
	image  vk.Image
	view   vk.ImageView
	format vk.Format
	memory Memory
}

// Mem returns the underlying memory of the Image.
func (i *Image) Mem() *Memory {
	return &i.memory
}

// View returns the image view.
func (i *Image) View() vk.ImageView {
	return i.view
}

// Format returns the image format.
func (i *Image) Format() vk.Format {
	return i.format
}

// Release destroys the view, the image and frees its memory.
func (i *Image) Release() {
	vk.DestroyImageView(i.device, i.view, nil)
	vk.DestroyImage(i.device, i.image, nil)
	i.memory.Release()
}
