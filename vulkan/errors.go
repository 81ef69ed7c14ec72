package vulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/dieselframe/present"
)

// Descriptor pool exhaustion results. VK_ERROR_OUT_OF_POOL_MEMORY comes from
// VK_KHR_maintenance1.
const (
	resultFragmentedPool  vk.Result = -12
	resultOutOfPoolMemory vk.Result = -1000069000
)

func isError(ret vk.Result) bool {
	return ret != vk.Success
}

// newError turns a failing result into an error carrying a stack trace.
// Device loss maps onto present.ErrDeviceLost so callers can match it.
func newError(ret vk.Result) error {
	switch ret {
	case vk.Success:
		return nil
	case vk.ErrorDeviceLost:
		return errors.WithStack(present.ErrDeviceLost)
	}
	return errors.WithStack(vk.Error(ret))
}

// status splits swapchain results into expected conditions and failures.
func status(ret vk.Result) (present.Status, error) {
	switch ret {
	case vk.Success:
		return present.StatusSuccess, nil
	case vk.Suboptimal:
		return present.StatusSuboptimal, nil
	case vk.ErrorOutOfDate:
		return present.StatusOutOfDate, nil
	case vk.Timeout, vk.NotReady:
		return present.StatusNotReady, nil
	}
	return present.StatusSuccess, newError(ret)
}
