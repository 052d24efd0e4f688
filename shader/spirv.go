package shader

import (
	"github.com/gogpu/wgpu/hal"
)

// toWords converts little-endian SPIR-V bytes into 32-bit words.
func toWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words
}

// CreateShaderModule uploads the program to device.
func (m *Module) CreateShaderModule(device hal.Device) (hal.ShaderModule, error) {
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: m.Entry,
		Source: hal.ShaderSource{
			SPIRV: m.SPIRV,
		},
	})
}
