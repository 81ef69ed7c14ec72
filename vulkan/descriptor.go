package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/dieselframe/present"
)

// DescriptorPool is a fixed capacity pool of uniform buffer descriptor sets.
// It counts allocations itself so exhaustion is reported the same way on
// every driver.
type DescriptorPool struct {
	device    vk.Device
	pool      vk.DescriptorPool
	capacity  uint32
	allocated uint32
}

var _ present.DescriptorAllocator = (*DescriptorPool)(nil)

// NewDescriptorPool creates a pool for maxSets sets of one uniform buffer each.
func (p *Platform) NewDescriptorPool(maxSets uint32) (*DescriptorPool, error) {
	if maxSets == 0 {
		return nil, errors.New("descriptor pool needs at least one set")
	}
	var pool vk.DescriptorPool
	ret := vk.CreateDescriptorPool(p.device, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: maxSets,
		}},
	}, nil, &pool)
	if isError(ret) {
		return nil, errors.Wrap(newError(ret), "create descriptor pool")
	}
	return &DescriptorPool{device: p.device, pool: pool, capacity: maxSets}, nil
}

// Allocate returns a set laid out by layout, or present.ErrPoolExhausted.
func (d *DescriptorPool) Allocate(layout present.DescriptorSetLayout) (present.DescriptorSet, error) {
	if d.allocated >= d.capacity {
		return nil, present.ErrPoolExhausted
	}
	sets := make([]vk.DescriptorSet, 1)
	ret := vk.AllocateDescriptorSets(d.device, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     d.pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout.(vk.DescriptorSetLayout)},
	}, &sets[0])
	if err := allocateResult(ret); err != nil {
		return nil, err
	}
	d.allocated++
	return sets[0], nil
}

func allocateResult(ret vk.Result) error {
	switch ret {
	case vk.Success:
		return nil
	case resultOutOfPoolMemory, resultFragmentedPool:
		return present.ErrPoolExhausted
	default:
		return errors.Wrap(newError(ret), "allocate descriptor set")
	}
}

// WriteBuffer points binding of set at size bytes of buf starting at offset.
func (d *DescriptorPool) WriteBuffer(set present.DescriptorSet, binding uint32, buf present.Buffer, offset, size uint64) error {
	var buffer vk.Buffer
	switch b := buf.(type) {
	case vk.Buffer:
		buffer = b
	case *UniformBuffer:
		buffer = b.Buffer
	default:
		return errors.Errorf("unsupported buffer type %T", buf)
	}
	vk.UpdateDescriptorSets(d.device, 1, []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set.(vk.DescriptorSet),
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: buffer,
			Offset: vk.DeviceSize(offset),
			Range:  vk.DeviceSize(size),
		}},
	}}, 0, nil)
	return nil
}

// Reset returns every set to the pool.
func (d *DescriptorPool) Reset() error {
	if ret := vk.ResetDescriptorPool(d.device, d.pool, 0); isError(ret) {
		return errors.Wrap(newError(ret), "reset descriptor pool")
	}
	d.allocated = 0
	return nil
}

func (d *DescriptorPool) Capacity() uint32 { return d.capacity }
func (d *DescriptorPool) Allocated() uint32 { return d.allocated }

func (d *DescriptorPool) Destroy() {
	if d.device == nil {
		return
	}
	vk.DestroyDescriptorPool(d.device, d.pool, nil)
	d.device = nil
}

// NewUniformLayout creates a layout with a single uniform buffer at binding,
// visible to stages.
func (p *Platform) NewUniformLayout(binding uint32, stages vk.ShaderStageFlagBits) (vk.DescriptorSetLayout, error) {
	var layout vk.DescriptorSetLayout
	ret := vk.CreateDescriptorSetLayout(p.device, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings: []vk.DescriptorSetLayoutBinding{{
			Binding:         binding,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(stages),
		}},
	}, nil, &layout)
	if isError(ret) {
		return layout, errors.Wrap(newError(ret), "create uniform layout")
	}
	return layout, nil
}

func (p *Platform) DestroyLayout(layout vk.DescriptorSetLayout) {
	vk.DestroyDescriptorSetLayout(p.device, layout, nil)
}
