package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/plumber"
	"github.com/gogpu/plumber/internal/spirvcache"
)

// compiled memoizes WGSL compilation across executors in the process.
var compiled = spirvcache.New()

// ErrNoShaderSource is returned when a node references a shader by path
// but no loader was configured to resolve it.
var ErrNoShaderSource = errors.New("gpu: shader path requires a loader")

// ShaderLoader resolves a shader path reference to WGSL source. Hosts
// plug in their asset layer here; the executor never touches the
// filesystem itself.
type ShaderLoader func(path string) (string, error)

// resolveWGSL returns the WGSL source for a node's shader reference.
func resolveWGSL(src plumber.ShaderSource, loader ShaderLoader) (string, error) {
	if src.WGSL != "" {
		return src.WGSL, nil
	}
	if loader == nil {
		return "", fmt.Errorf("%w: %q", ErrNoShaderSource, src.Path)
	}
	wgsl, err := loader(src.Path)
	if err != nil {
		return "", fmt.Errorf("gpu: load shader %q: %w", src.Path, err)
	}
	return wgsl, nil
}

// compileWGSL compiles WGSL source to SPIR-V words, serving repeats
// from the process-wide cache.
func compileWGSL(source string) ([]uint32, error) {
	return compiled.GetOrCompile(source, compileWGSLUncached)
}

func compileWGSLUncached(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// createShaderModule compiles and uploads a node's shader.
func createShaderModule(device hal.Device, label string, src plumber.ShaderSource, loader ShaderLoader) (hal.ShaderModule, error) {
	wgsl, err := resolveWGSL(src, loader)
	if err != nil {
		return nil, err
	}
	words, err := compileWGSL(wgsl)
	if err != nil {
		return nil, err
	}
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: words},
	})
}
