// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"fmt"
	"math"

	"github.com/devblok/lumen/gfx"
	vk "github.com/devblok/vulkan"
	log "github.com/sirupsen/logrus"
)

type renderPass struct {
	renderPass vk.RenderPass
}

func (r *renderPass) Inner() interface{} { return r.renderPass }

type framebuffer struct {
	framebuffer vk.Framebuffer
}

func (f *framebuffer) Inner() interface{} { return f.framebuffer }

// Swapchain is the Vulkan implementation of gfx.Swapchain. It owns
// image views, the depth image, the render pass and framebuffers.
type Swapchain struct {
	device *Device

	swapchain   vk.Swapchain
	extent      vk.Extent2D
	colorFormat vk.Format

	images       []vk.Image
	imageViews   []vk.ImageView
	depth        Image
	hasDepth     bool
	renderPass   renderPass
	framebuffers []framebuffer

	sync *frameSync
}

// CreateSwapchain implements gfx.Device. The new swapchain takes over
// the frame synchronisation of previous and releases it.
func (d *Device) CreateSwapchain(extent gfx.Extent, previous gfx.Swapchain) (gfx.Swapchain, error) {
	var old *Swapchain
	if previous != nil {
		prev, ok := previous.(*Swapchain)
		if !ok {
			return nil, fmt.Errorf("vkr: foreign swapchain %T", previous)
		}
		old = prev
	}

	support, err := d.querySwapchainSupport()
	if err != nil {
		return nil, err
	}
	if len(support.formats) == 0 {
		return nil, errors.New("vkr: surface reports no formats")
	}

	surfaceFormat := chooseSurfaceFormat(support.formats)
	sc := &Swapchain{
		device:      d,
		extent:      chooseExtent(support.capabilities, extent),
		colorFormat: surfaceFormat.Format,
	}

	scci := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          d.surface,
		MinImageCount:    chooseImageCount(support.capabilities, d.configuration.SwapchainSize),
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      sc.extent,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.capabilities.CurrentTransform,
		CompositeAlpha:   chooseCompositeAlpha(support.capabilities),
		PresentMode:      choosePresentMode(support.presentModes),
		Clipped:          vk.True,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
	}
	if d.families.graphics != d.families.present {
		scci.ImageSharingMode = vk.SharingModeConcurrent
		scci.QueueFamilyIndexCount = 2
		scci.PQueueFamilyIndices = []uint32{d.families.graphics, d.families.present}
	}
	if old != nil {
		scci.OldSwapchain = old.swapchain
	}

	if err := vk.Error(vk.CreateSwapchain(d.logical, &scci, nil, &sc.swapchain)); err != nil {
		return nil, errors.New("vk.CreateSwapchain(): " + err.Error())
	}

	if err := sc.createImageViews(); err != nil {
		sc.destroy()
		return nil, err
	}
	if sc.depth, err = NewDepthImage(d.logical, sc.extent.Width, sc.extent.Height, d.depthFormat, d.allocator); err != nil {
		sc.destroy()
		return nil, err
	}
	sc.hasDepth = true
	if err := sc.createRenderPass(); err != nil {
		sc.destroy()
		return nil, err
	}
	if err := sc.createFramebuffers(); err != nil {
		sc.destroy()
		return nil, err
	}

	if old != nil {
		sc.sync = old.sync
		sc.sync.resize(len(sc.images))
		old.sync = nil
		old.Release()
	} else if sc.sync, err = newFrameSync(d.logical, len(sc.images)); err != nil {
		sc.destroy()
		return nil, err
	}

	d.log.WithFields(log.Fields{
		"extent": fmt.Sprintf("%dx%d", sc.extent.Width, sc.extent.Height),
		"images": len(sc.images),
		"format": sc.colorFormat,
	}).Debug("vulkan swapchain created")
	return sc, nil
}

type swapchainSupport struct {
	capabilities vk.SurfaceCapabilities
	formats      []vk.SurfaceFormat
	presentModes []vk.PresentMode
}

func (d *Device) querySwapchainSupport() (swapchainSupport, error) {
	var support swapchainSupport
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(d.physical, d.surface, &support.capabilities)); err != nil {
		return support, errors.New("vk.GetPhysicalDeviceSurfaceCapabilities(): " + err.Error())
	}
	support.capabilities.Deref()
	support.capabilities.CurrentExtent.Deref()
	support.capabilities.MinImageExtent.Deref()
	support.capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(d.physical, d.surface, &formatCount, nil)); err != nil {
		return support, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	support.formats = make([]vk.SurfaceFormat, formatCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(d.physical, d.surface, &formatCount, support.formats)); err != nil {
		return support, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	for i := range support.formats {
		support.formats[i].Deref()
	}

	var presentCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(d.physical, d.surface, &presentCount, nil)); err != nil {
		return support, errors.New("vk.GetPhysicalDeviceSurfacePresentModes(): " + err.Error())
	}
	support.presentModes = make([]vk.PresentMode, presentCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(d.physical, d.surface, &presentCount, support.presentModes)); err != nil {
		return support, errors.New("vk.GetPhysicalDeviceSurfacePresentModes(): " + err.Error())
	}
	return support, nil
}

func chooseSurfaceFormat(available []vk.SurfaceFormat) vk.SurfaceFormat {
	if len(available) == 1 && available[0].Format == vk.FormatUndefined {
		return vk.SurfaceFormat{
			Format:     vk.FormatB8g8r8a8Unorm,
			ColorSpace: vk.ColorSpaceSrgbNonlinear,
		}
	}
	for _, f := range available {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return available[0]
}

func choosePresentMode(available []vk.PresentMode) vk.PresentMode {
	for _, m := range available {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

// chooseExtent uses the surface extent when the surface dictates it,
// otherwise the requested extent clamped to the surface limits.
func chooseExtent(caps vk.SurfaceCapabilities, requested gfx.Extent) vk.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(requested.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(requested.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func chooseImageCount(caps vk.SurfaceCapabilities, preferred uint32) uint32 {
	count := preferred
	if count < caps.MinImageCount {
		count = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func chooseCompositeAlpha(caps vk.SurfaceCapabilities) vk.CompositeAlphaFlagBits {
	compositeAlphaFlags := []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	}
	for _, flag := range compositeAlphaFlags {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			return flag
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

func clamp(v, min, max uint32) uint32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func (s *Swapchain) createImageViews() error {
	dev := s.device.logical

	var numImages uint32
	if err := vk.Error(vk.GetSwapchainImages(dev, s.swapchain, &numImages, nil)); err != nil {
		return errors.New("vk.GetSwapchainImages(num): " + err.Error())
	}
	s.images = make([]vk.Image, numImages)
	if err := vk.Error(vk.GetSwapchainImages(dev, s.swapchain, &numImages, s.images)); err != nil {
		return errors.New("vk.GetSwapchainImages(images): " + err.Error())
	}

	for idx, image := range s.images {
		ivci := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   s.colorFormat,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}

		var imageView vk.ImageView
		if err := vk.Error(vk.CreateImageView(dev, &ivci, nil, &imageView)); err != nil {
			return fmt.Errorf("vk.CreateImageView()[%d]: %s", idx, err.Error())
		}
		s.imageViews = append(s.imageViews, imageView)
	}
	return nil
}

func (s *Swapchain) createRenderPass() error {
	attachments := []vk.AttachmentDescription{
		{
			Format:         s.colorFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		},
		{
			Format:         s.depth.Format(),
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	depthAttachmentRef := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpassDependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    uint32(len(colorAttachmentRef)),
		PColorAttachments:       colorAttachmentRef,
		PDepthStencilAttachment: &depthAttachmentRef,
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subpassDependency},
	}

	var rp vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(s.device.logical, &rpci, nil, &rp)); err != nil {
		return errors.New("vk.CreateRenderPass(): " + err.Error())
	}
	s.renderPass.renderPass = rp
	return nil
}

func (s *Swapchain) createFramebuffers() error {
	for idx, view := range s.imageViews {
		attachments := []vk.ImageView{
			view,
			s.depth.View(),
		}
		fci := vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      s.renderPass.renderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           s.extent.Width,
			Height:          s.extent.Height,
			Layers:          1,
		}

		var fb vk.Framebuffer
		if err := vk.Error(vk.CreateFramebuffer(s.device.logical, &fci, nil, &fb)); err != nil {
			return fmt.Errorf("vk.CreateFramebuffer()[%d]: %s", idx, err.Error())
		}
		s.framebuffers = append(s.framebuffers, framebuffer{framebuffer: fb})
	}
	return nil
}

// AcquireNextImage waits for the current frame to be free and
// acquires the next presentable image.
func (s *Swapchain) AcquireNextImage() (uint32, gfx.Result) {
	dev := s.device.logical
	frame := s.sync.current

	vk.WaitForFences(dev, 1, []vk.Fence{s.sync.inFlight[frame]}, vk.True, math.MaxUint64)

	var imageIndex uint32
	res := vk.AcquireNextImage(dev, s.swapchain, math.MaxUint64, s.sync.imageAvailable[frame], nil, &imageIndex)
	if res != vk.Success && res != vk.Suboptimal {
		return 0, toResult(res)
	}

	if fence := s.sync.imagesInFlight[imageIndex]; fence != nil {
		vk.WaitForFences(dev, 1, []vk.Fence{fence}, vk.True, math.MaxUint64)
	}
	s.sync.imagesInFlight[imageIndex] = s.sync.inFlight[frame]
	return imageIndex, toResult(res)
}

// Submit queues the buffer on the graphics queue and presents the
// image once rendering finished. When the submission fails the frame
// fence stays unsignaled and the swapchain can't be drawn with again.
func (s *Swapchain) Submit(buffer gfx.CommandBuffer, index uint32) (gfx.Result, error) {
	frame := s.sync.current
	fence := s.sync.inFlight[frame]

	vk.ResetFences(s.device.logical, 1, []vk.Fence{fence})

	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{s.sync.imageAvailable[frame]},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBufferOf(buffer)},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{s.sync.renderFinished[frame]},
	}}
	if res := vk.QueueSubmit(s.device.graphicsQueue, 1, submit, fence); res != vk.Success {
		s.sync.imagesInFlight[index] = nil
		return toResult(res), fmt.Errorf("vk.QueueSubmit(): %s", toResult(res))
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{s.sync.renderFinished[frame]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{s.swapchain},
		PImageIndices:      []uint32{index},
	}
	res := vk.QueuePresent(s.device.presentQueue, &presentInfo)
	s.sync.advance()
	return toResult(res), nil
}

// ImageCount implements gfx.Swapchain
func (s *Swapchain) ImageCount() int {
	return len(s.images)
}

// Extent implements gfx.Swapchain
func (s *Swapchain) Extent() gfx.Extent {
	return gfx.Extent{Width: s.extent.Width, Height: s.extent.Height}
}

// Formats implements gfx.Swapchain
func (s *Swapchain) Formats() (color, depth gfx.Format) {
	return gfx.Format(s.colorFormat), gfx.Format(s.depth.Format())
}

// RenderPass implements gfx.Swapchain
func (s *Swapchain) RenderPass() gfx.RenderPass {
	return &s.renderPass
}

// Framebuffer implements gfx.Swapchain
func (s *Swapchain) Framebuffer(index uint32) gfx.Framebuffer {
	return &s.framebuffers[index]
}

// Release destroys the swapchain with everything it owns.
func (s *Swapchain) Release() {
	if s.sync != nil {
		s.sync.release()
		s.sync = nil
	}
	s.destroy()
}

func (s *Swapchain) destroy() {
	dev := s.device.logical
	for _, fb := range s.framebuffers {
		vk.DestroyFramebuffer(dev, fb.framebuffer, nil)
	}
	s.framebuffers = nil

	if s.renderPass.renderPass != nil {
		vk.DestroyRenderPass(dev, s.renderPass.renderPass, nil)
		s.renderPass.renderPass = nil
	}
	if s.hasDepth {
		s.depth.Release()
		s.hasDepth = false
	}
	for _, iv := range s.imageViews {
		vk.DestroyImageView(dev, iv, nil)
	}
	s.imageViews = nil
	s.images = nil

	if s.swapchain != nil {
		vk.DestroySwapchain(dev, s.swapchain, nil)
		s.swapchain = nil
	}
}
