package kernelmap_test

import "strata/kernel/firmware"

// zeroFirmwareMapWithCount builds a firmware.Map reporting count
// descriptors without needing real backing memory: BuildFromFirmware's
// buffer-size check runs before the map is ever dereferenced.
func zeroFirmwareMapWithCount(count uint64) firmware.Map {
	return firmware.Map{Base: 0, Count: count, Stride: firmware.DescriptorSize}
}
