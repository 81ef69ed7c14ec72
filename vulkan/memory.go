package vulkan

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func (p *Platform) allocate(reqs vk.MemoryRequirements, props vk.MemoryPropertyFlagBits) (vk.DeviceMemory, error) {
	typeIndex, ok := vk.FindMemoryTypeIndex(p.gpu, reqs.MemoryTypeBits, props)
	if !ok {
		return vk.NullDeviceMemory, errors.Errorf("vulkan: no memory type for bits %#x with properties %#x", reqs.MemoryTypeBits, props)
	}
	var memory vk.DeviceMemory
	ret := vk.AllocateMemory(p.device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: typeIndex,
	}, nil, &memory)
	if isError(ret) {
		return vk.NullDeviceMemory, errors.Wrap(newError(ret), "allocate memory")
	}
	return memory, nil
}

// UniformBuffer is a host visible, coherent uniform buffer that stays mapped
// for its lifetime.
type UniformBuffer struct {
	device vk.Device
	Buffer vk.Buffer
	Memory vk.DeviceMemory
	Size   uint64
	mapped unsafe.Pointer
}

// NewUniformBuffer creates and maps a uniform buffer of size bytes.
func (p *Platform) NewUniformBuffer(size uint64) (*UniformBuffer, error) {
	var buffer vk.Buffer
	ret := vk.CreateBuffer(p.device, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Usage:       vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
		Size:        vk.DeviceSize(size),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	if isError(ret) {
		return nil, errors.Wrap(newError(ret), "create uniform buffer")
	}

	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(p.device, buffer, &reqs)
	reqs.Deref()

	memory, err := p.allocate(reqs, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		vk.DestroyBuffer(p.device, buffer, nil)
		return nil, err
	}
	if ret := vk.BindBufferMemory(p.device, buffer, memory, 0); isError(ret) {
		vk.FreeMemory(p.device, memory, nil)
		vk.DestroyBuffer(p.device, buffer, nil)
		return nil, errors.Wrap(newError(ret), "bind uniform memory")
	}

	b := &UniformBuffer{device: p.device, Buffer: buffer, Memory: memory, Size: size}
	if ret := vk.MapMemory(p.device, memory, 0, vk.DeviceSize(size), 0, &b.mapped); isError(ret) {
		b.Destroy()
		return nil, errors.Wrap(newError(ret), "map uniform memory")
	}
	return b, nil
}

// Update copies data to the start of the buffer.
func (b *UniformBuffer) Update(data []byte) error {
	if uint64(len(data)) > b.Size {
		return errors.Errorf("uniform update of %d bytes exceeds buffer size %d", len(data), b.Size)
	}
	vk.Memcopy(b.mapped, data)
	return nil
}

func (b *UniformBuffer) Destroy() {
	if b.device == nil {
		return
	}
	if b.mapped != nil {
		vk.UnmapMemory(b.device, b.Memory)
		b.mapped = nil
	}
	vk.FreeMemory(b.device, b.Memory, nil)
	vk.DestroyBuffer(b.device, b.Buffer, nil)
	b.device = nil
}
