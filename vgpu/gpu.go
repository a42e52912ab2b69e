// Copyright (c) 2024, The GoKi Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This is initially adapted from https://github.com/vulkan-go/asche
// Copyright © 2017 Maxim Kupriianov <max@kc.vc>, under the MIT License

package vgpu

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	vk "github.com/goki/vulkan"
)

// ErrNoDevice is returned when no physical device can render to the surface.
var ErrNoDevice = errors.New("vgpu: no suitable physical device")

// DynamicRenderingExt is the extension providing dynamic rendering before 1.3.
const DynamicRenderingExt = "VK_KHR_dynamic_rendering"

// SwapchainExt is required on every device that presents.
const SwapchainExt = "VK_KHR_swapchain"

// GPU represents the Vulkan instance and the selected physical device.
type GPU struct {
	Instance         vk.Instance                       `desc:"handle for the vulkan instance"`
	GPU              vk.PhysicalDevice                 `desc:"handle for the selected physical device"`
	AppName          string                            `desc:"name of the application, passed to the driver"`
	APIVersion       uint32                            `desc:"vulkan api version requested for the instance"`
	InstanceExts     []string                          `desc:"instance extensions, typically from the window system"`
	DeviceExts       []string                          `desc:"extensions required of the physical device"`
	ValidationLayers []string                          `desc:"validation layers, enabled when Debug is set and they are installed"`
	Debug            bool                              `desc:"enable validation layers"`
	PreferredName    string                            `desc:"if set, a device whose name contains this string wins over the ranking"`
	DeviceName       string                            `desc:"name of the selected device"`
	QueueIndex       uint32                            `desc:"queue family supporting both graphics and present on the selected device"`
	Props            vk.PhysicalDeviceProperties       `desc:"properties of the selected device"`
	MemoryProps      vk.PhysicalDeviceMemoryProperties `desc:"memory properties of the selected device"`
}

// NewGPU returns a GPU with default settings. Call Init next.
func NewGPU() *GPU {
	gp := &GPU{}
	gp.Defaults()
	return gp
}

// Defaults sets up default parameters.
func (gp *GPU) Defaults() {
	gp.APIVersion = vk.MakeVersion(1, 2, 0)
	gp.DeviceExts = []string{SwapchainExt}
	gp.ValidationLayers = []string{"VK_LAYER_KHRONOS_validation"}
}

// Init creates the vulkan instance, with the given extensions added
// to InstanceExts (typically from [Window.InstanceExtensions]).
func (gp *GPU) Init(name string, exts ...string) error {
	gp.AppName = name
	for _, ext := range exts {
		if !slices.Contains(gp.InstanceExts, ext) {
			gp.InstanceExts = append(gp.InstanceExts, ext)
		}
	}
	var layers []string
	if gp.Debug {
		layers = gp.availableLayers()
	}
	gp.ValidationLayers = layers

	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         gp.APIVersion,
			ApplicationVersion: vk.MakeVersion(1, 0, 0),
			PApplicationName:   safeString(name),
			PEngineName:        "vk2d\x00",
		},
		EnabledExtensionCount:   uint32(len(gp.InstanceExts)),
		PpEnabledExtensionNames: safeStrings(gp.InstanceExts),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}, nil, &instance)
	if err := NewError(ret); err != nil {
		return err
	}
	gp.Instance = instance
	return NewError(vk.InitInstance(instance))
}

// availableLayers returns the ValidationLayers that are installed.
func (gp *GPU) availableLayers() []string {
	var count uint32
	vk.EnumerateInstanceLayerProperties(&count, nil)
	props := make([]vk.LayerProperties, count)
	vk.EnumerateInstanceLayerProperties(&count, props)
	have := make([]string, count)
	for i := range props {
		props[i].Deref()
		have[i] = vk.ToString(props[i].LayerName[:])
	}
	var res []string
	for _, l := range gp.ValidationLayers {
		if slices.Contains(have, l) {
			res = append(res, l)
		} else {
			slog.Warn("vgpu: validation layer not available", "layer", l)
		}
	}
	return res
}

// SelectDevice enumerates the physical devices, ranks those able to
// present to the surface and selects the best one.
func (gp *GPU) SelectDevice(surface vk.Surface) error {
	var count uint32
	if err := NewError(vk.EnumeratePhysicalDevices(gp.Instance, &count, nil)); err != nil {
		return err
	}
	if count == 0 {
		return ErrNoDevice
	}
	pds := make([]vk.PhysicalDevice, count)
	if err := NewError(vk.EnumeratePhysicalDevices(gp.Instance, &count, pds)); err != nil {
		return err
	}
	infos := make([]DeviceInfo, count)
	for i, pd := range pds {
		infos[i] = queryDevice(pd, surface)
		infos[i].Index = i
	}
	best, err := SelectDevice(infos, gp.DeviceExts, gp.PreferredName)
	if err != nil {
		return err
	}
	di := infos[best]
	gp.GPU = pds[di.Index]
	gp.DeviceName = di.Name
	gp.QueueIndex = uint32(di.QueueFamily)
	if !di.APIAtLeast(1, 3) && slices.Contains(di.Extensions, DynamicRenderingExt) {
		gp.DeviceExts = append(gp.DeviceExts, DynamicRenderingExt)
	}

	vk.GetPhysicalDeviceProperties(gp.GPU, &gp.Props)
	gp.Props.Deref()
	vk.GetPhysicalDeviceMemoryProperties(gp.GPU, &gp.MemoryProps)
	gp.MemoryProps.Deref()
	slog.Info("vgpu: selected device", "name", di.Name, "type", di.Type, "api", VersionString(di.APIVersion))
	return nil
}

// Destroy releases the instance.
func (gp *GPU) Destroy() {
	if gp.Instance == nil {
		return
	}
	vk.DestroyInstance(gp.Instance, nil)
	gp.Instance = nil
}

// queryDevice gathers the facts SelectDevice ranks on.
func queryDevice(pd vk.PhysicalDevice, surface vk.Surface) DeviceInfo {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &props)
	props.Deref()
	di := DeviceInfo{
		Name:        vk.ToString(props.DeviceName[:]),
		Type:        DeviceTypeOf(props.DeviceType),
		APIVersion:  props.ApiVersion,
		QueueFamily: -1,
	}

	var nexts uint32
	vk.EnumerateDeviceExtensionProperties(pd, "", &nexts, nil)
	exts := make([]vk.ExtensionProperties, nexts)
	vk.EnumerateDeviceExtensionProperties(pd, "", &nexts, exts)
	for i := range exts {
		exts[i].Deref()
		di.Extensions = append(di.Extensions, vk.ToString(exts[i].ExtensionName[:]))
	}

	var nq uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &nq, nil)
	qprops := make([]vk.QueueFamilyProperties, nq)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &nq, qprops)
	for i := uint32(0); i < nq; i++ {
		qprops[i].Deref()
		if qprops[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
			continue
		}
		var present vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(pd, i, surface, &present)
		if present.B() {
			di.QueueFamily = int(i)
			break
		}
	}
	return di
}

// DeviceTypes are the kinds of physical device, in order of preference.
type DeviceTypes int32

const (
	DiscreteGPU DeviceTypes = iota
	IntegratedGPU
	VirtualGPU
	CPUDevice
	OtherDevice
)

func (dt DeviceTypes) String() string {
	switch dt {
	case DiscreteGPU:
		return "DiscreteGPU"
	case IntegratedGPU:
		return "IntegratedGPU"
	case VirtualGPU:
		return "VirtualGPU"
	case CPUDevice:
		return "CPU"
	}
	return "Other"
}

// DeviceTypeOf converts a vulkan device type.
func DeviceTypeOf(t vk.PhysicalDeviceType) DeviceTypes {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return DiscreteGPU
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return IntegratedGPU
	case vk.PhysicalDeviceTypeVirtualGpu:
		return VirtualGPU
	case vk.PhysicalDeviceTypeCpu:
		return CPUDevice
	}
	return OtherDevice
}

// DeviceInfo is what device selection knows about a physical device.
type DeviceInfo struct {
	Index      int
	Name       string
	Type       DeviceTypes
	APIVersion uint32
	Extensions []string

	// QueueFamily is a family with graphics and present support, -1 if none.
	QueueFamily int
}

// APIAtLeast returns whether the device supports api major.minor.
func (di *DeviceInfo) APIAtLeast(major, minor int) bool {
	return di.APIVersion >= vk.MakeVersion(major, minor, 0)
}

// DynamicRendering returns whether the device has dynamic rendering,
// either in core 1.3 or through the extension.
func (di *DeviceInfo) DynamicRendering() bool {
	return di.APIAtLeast(1, 3) || slices.Contains(di.Extensions, DynamicRenderingExt)
}

// Suitable returns nil if the device can be used, with the given
// required extensions, or an error saying why not.
func (di *DeviceInfo) Suitable(required []string) error {
	if !di.DynamicRendering() {
		return fmt.Errorf("no dynamic rendering (api %s)", VersionString(di.APIVersion))
	}
	for _, ext := range required {
		if !slices.Contains(di.Extensions, ext) {
			return fmt.Errorf("missing extension %s", ext)
		}
	}
	if di.QueueFamily < 0 {
		return errors.New("no queue with graphics and present support")
	}
	return nil
}

// SelectDevice returns the position in devs of the best suitable device:
// a suitable device whose name contains preferred if given, otherwise the
// most preferred type, earliest on ties. Unsuitable devices are logged.
func SelectDevice(devs []DeviceInfo, required []string, preferred string) (int, error) {
	best := -1
	for i := range devs {
		di := &devs[i]
		if err := di.Suitable(required); err != nil {
			slog.Debug("vgpu: skipping device", "name", di.Name, "reason", err)
			continue
		}
		if preferred != "" && containsFold(di.Name, preferred) {
			return i, nil
		}
		if best < 0 || di.Type < devs[best].Type {
			best = i
		}
	}
	if best < 0 {
		return -1, ErrNoDevice
	}
	return best, nil
}

// VersionString formats a packed vulkan version.
func VersionString(v uint32) string {
	return fmt.Sprintf("%d.%d.%d", v>>22, (v>>12)&0x3ff, v&0xfff)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
