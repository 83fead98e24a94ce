package shader

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslViewDimensionNames maps view dimensions to the suffix of WGSL texture type names.
var wgslViewDimensionNames = map[wgpu.TextureViewDimension]string{
	wgpu.TextureViewDimension1D:        "1d",
	wgpu.TextureViewDimension2D:        "2d",
	wgpu.TextureViewDimension2DArray:   "2d_array",
	wgpu.TextureViewDimension3D:        "3d",
	wgpu.TextureViewDimensionCube:      "cube",
	wgpu.TextureViewDimensionCubeArray: "cube_array",
}

// defaultEntryPoints names emitted entry points when a signature carries none.
var defaultEntryPoints = map[ShaderType]string{
	ShaderTypeVertex:   "vs_main",
	ShaderTypeFragment: "fs_main",
	ShaderTypeCompute:  "cs_main",
}

// EmitWGSL writes the interface of sig as a WGSL module: the stage input and output structs,
// the resource declarations and an entry point stub that references every resource.
// Reflecting the result with ReflectWGSL yields a signature equal to sig.
//
// Parameters:
//   - sig: the signature to serialize
//
// Returns:
//   - string: WGSL source text
//   - error: an error if a stage variable or resource cannot be expressed in WGSL
func EmitWGSL(sig Signature) (string, error) {
	var b strings.Builder
	prefix := stagePrefix(sig.Stage)

	if len(sig.Inputs) > 0 {
		fmt.Fprintf(&b, "struct %sInput {\n", prefix)
		for _, v := range sig.Inputs {
			if v.Type == ValueTypeUnknown {
				return "", fmt.Errorf("input %q at location %d has no type", v.Name, v.Location)
			}
			fmt.Fprintf(&b, "    @location(%d) %s: %s,\n", v.Location, v.Name, v.Type.WGSL())
		}
		b.WriteString("};\n\n")
	}

	hasOutput := sig.HasClipPosition || len(sig.Outputs) > 0
	if hasOutput {
		fmt.Fprintf(&b, "struct %sOutput {\n", prefix)
		if sig.HasClipPosition {
			b.WriteString("    @builtin(position) clip_position: vec4<f32>,\n")
		}
		for _, v := range sig.Outputs {
			if v.Type == ValueTypeUnknown {
				return "", fmt.Errorf("output %q at location %d has no type", v.Name, v.Location)
			}
			fmt.Fprintf(&b, "    @location(%d) %s: %s,\n", v.Location, v.Name, v.Type.WGSL())
		}
		b.WriteString("};\n\n")
	}

	for i, r := range sig.Resources {
		decl, err := wgslResourceDecl(r, i)
		if err != nil {
			return "", err
		}
		b.WriteString(decl)
	}
	if len(sig.Resources) > 0 {
		b.WriteString("\n")
	}

	name := sig.EntryPoint
	if name == "" {
		name = defaultEntryPoints[sig.Stage]
	}
	switch sig.Stage {
	case ShaderTypeCompute:
		b.WriteString("@compute @workgroup_size(1)\n")
	default:
		fmt.Fprintf(&b, "@%s\n", strings.ToLower(prefix))
	}
	fmt.Fprintf(&b, "fn %s(", name)
	if len(sig.Inputs) > 0 {
		fmt.Fprintf(&b, "in: %sInput", prefix)
	}
	b.WriteString(")")
	if hasOutput {
		fmt.Fprintf(&b, " -> %sOutput", prefix)
	}
	b.WriteString(" {\n")
	if hasOutput {
		fmt.Fprintf(&b, "    var out: %sOutput;\n", prefix)
	}
	for _, r := range sig.Resources {
		fmt.Fprintf(&b, "    _ = %s;\n", r.Name)
	}
	if hasOutput {
		b.WriteString("    return out;\n")
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func wgslResourceDecl(r ResourceDeclaration, index int) (string, error) {
	head := fmt.Sprintf("@group(%d) @binding(%d) var", r.Group, r.Binding)
	switch r.Kind {
	case ResourceKindUniform, ResourceKindStorage:
		typeName := r.TypeName
		if typeName == "" {
			typeName = fmt.Sprintf("Block%d", index)
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "struct %s {\n", typeName)
		if r.Members != nil {
			for _, m := range r.Members {
				if m.Count > 0 {
					fmt.Fprintf(&sb, "    %s: array<%s, %d>,\n", m.Name, m.Type.WGSL(), m.Count)
				} else {
					fmt.Fprintf(&sb, "    %s: %s,\n", m.Name, m.Type.WGSL())
				}
			}
		} else {
			fmt.Fprintf(&sb, "    _pad: array<vec4<f32>, %d>,\n", max(1, (r.Size+15)/16))
		}
		sb.WriteString("};\n")
		space := "uniform"
		switch r.Entry.Buffer.Type {
		case wgpu.BufferBindingTypeStorage:
			space = "storage, read_write"
		case wgpu.BufferBindingTypeReadOnlyStorage:
			space = "storage, read"
		}
		fmt.Fprintf(&sb, "%s<%s> %s: %s;\n", head, space, r.Name, typeName)
		return sb.String(), nil
	case ResourceKindSampler:
		if r.Entry.Sampler.Type == wgpu.SamplerBindingTypeComparison {
			return fmt.Sprintf("%s %s: sampler_comparison;\n", head, r.Name), nil
		}
		return fmt.Sprintf("%s %s: sampler;\n", head, r.Name), nil
	case ResourceKindSampledTexture:
		dim, ok := wgslViewDimensionNames[r.Entry.Texture.ViewDimension]
		if !ok {
			dim = "2d"
		}
		switch {
		case r.Entry.Texture.SampleType == wgpu.TextureSampleTypeDepth && r.Entry.Texture.Multisampled:
			return fmt.Sprintf("%s %s: texture_depth_multisampled_2d;\n", head, r.Name), nil
		case r.Entry.Texture.SampleType == wgpu.TextureSampleTypeDepth:
			return fmt.Sprintf("%s %s: texture_depth_%s;\n", head, r.Name, dim), nil
		case r.Entry.Texture.Multisampled:
			return fmt.Sprintf("%s %s: texture_multisampled_2d<%s>;\n", head, r.Name, sampleScalar(r.Entry.Texture.SampleType)), nil
		default:
			return fmt.Sprintf("%s %s: texture_%s<%s>;\n", head, r.Name, dim, sampleScalar(r.Entry.Texture.SampleType)), nil
		}
	case ResourceKindStorageTexture:
		dim, ok := wgslViewDimensionNames[r.Entry.StorageTexture.ViewDimension]
		if !ok {
			dim = "2d"
		}
		format := reverseLookup(wgslTexelFormatMap, r.Entry.StorageTexture.Format)
		access := reverseLookup(wgslStorageAccessMap, r.Entry.StorageTexture.Access)
		if format == "" || access == "" {
			return "", fmt.Errorf("storage texture %q has no WGSL texel format or access mode", r.Name)
		}
		return fmt.Sprintf("%s %s: texture_storage_%s<%s, %s>;\n", head, r.Name, dim, format, access), nil
	default:
		return "", fmt.Errorf("resource %q has unknown kind %s", r.Name, r.Kind)
	}
}

// glslTextureNames maps (sample type, view dimension) pairs back to separate GLSL texture types.
var glslTextureNames = map[glslTextureInfo]string{}

func init() {
	for name, info := range glslTextureMap {
		glslTextureNames[info] = name
	}
}

// glslReserved are identifiers the reflection front ends allow but GLSL does not.
var glslReserved = map[string]bool{"in": true, "out": true, "inout": true, "uniform": true, "buffer": true}

// EmitGLSL writes the interface of sig as Vulkan-style GLSL (version 450). Outputs that share
// a name with an input or a GLSL keyword are prefixed with "v_". Depth textures are written as texture2D, so a
// depth texture does not survive a WGSL to GLSL to WGSL round trip.
//
// Parameters:
//   - sig: the signature to serialize
//
// Returns:
//   - string: GLSL source text
//   - error: an error if a resource has no GLSL spelling (storage textures)
func EmitGLSL(sig Signature) (string, error) {
	var b strings.Builder
	b.WriteString("#version 450\n\n")

	inputNames := make(map[string]bool, len(sig.Inputs))
	for _, v := range sig.Inputs {
		inputNames[v.Name] = true
		fmt.Fprintf(&b, "layout(location = %d) in %s %s;\n", v.Location, v.Type.GLSL(), v.Name)
	}
	for _, v := range sig.Outputs {
		name := v.Name
		if inputNames[name] || glslReserved[name] {
			name = "v_" + name
		}
		fmt.Fprintf(&b, "layout(location = %d) out %s %s;\n", v.Location, v.Type.GLSL(), name)
	}
	if len(sig.Inputs)+len(sig.Outputs) > 0 {
		b.WriteString("\n")
	}

	for i, r := range sig.Resources {
		head := fmt.Sprintf("layout(set = %d, binding = %d)", r.Group, r.Binding)
		switch r.Kind {
		case ResourceKindUniform, ResourceKindStorage:
			typeName := r.TypeName
			if typeName == "" {
				typeName = fmt.Sprintf("Block%d", i)
			}
			storage := "uniform"
			switch r.Entry.Buffer.Type {
			case wgpu.BufferBindingTypeStorage:
				storage = "buffer"
			case wgpu.BufferBindingTypeReadOnlyStorage:
				storage = "readonly buffer"
			}
			fmt.Fprintf(&b, "%s %s %s {\n", head, storage, typeName)
			if r.Members != nil {
				for _, m := range r.Members {
					if m.Count > 0 {
						fmt.Fprintf(&b, "    %s %s[%d];\n", m.Type.GLSL(), m.Name, m.Count)
					} else {
						fmt.Fprintf(&b, "    %s %s;\n", m.Type.GLSL(), m.Name)
					}
				}
			} else {
				fmt.Fprintf(&b, "    vec4 _pad[%d];\n", max(1, (r.Size+15)/16))
			}
			fmt.Fprintf(&b, "} %s;\n", r.Name)
		case ResourceKindSampler:
			typeName := "sampler"
			if r.Entry.Sampler.Type == wgpu.SamplerBindingTypeComparison {
				typeName = "samplerShadow"
			}
			fmt.Fprintf(&b, "%s uniform %s %s;\n", head, typeName, r.Name)
		case ResourceKindSampledTexture:
			sampleType := r.Entry.Texture.SampleType
			if sampleType == wgpu.TextureSampleTypeDepth || sampleType == wgpu.TextureSampleTypeUnfilterableFloat {
				sampleType = wgpu.TextureSampleTypeFloat
			}
			typeName, ok := glslTextureNames[glslTextureInfo{sampleType, r.Entry.Texture.ViewDimension, r.Entry.Texture.Multisampled}]
			if !ok {
				return "", fmt.Errorf("texture %q has no separate GLSL texture type", r.Name)
			}
			fmt.Fprintf(&b, "%s uniform %s %s;\n", head, typeName, r.Name)
		default:
			return "", fmt.Errorf("resource %q of kind %s has no GLSL form", r.Name, r.Kind)
		}
	}
	if len(sig.Resources) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("void main() {\n")
	if sig.HasClipPosition {
		b.WriteString("    gl_Position = vec4(0.0);\n")
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func stagePrefix(t ShaderType) string {
	switch t {
	case ShaderTypeVertex:
		return "Vertex"
	case ShaderTypeFragment:
		return "Fragment"
	default:
		return "Compute"
	}
}

func sampleScalar(t wgpu.TextureSampleType) string {
	switch t {
	case wgpu.TextureSampleTypeSint:
		return "i32"
	case wgpu.TextureSampleTypeUint:
		return "u32"
	default:
		return "f32"
	}
}

func reverseLookup[K comparable, V comparable](m map[K]V, want V) K {
	var zero K
	for k, v := range m {
		if v == want {
			return k
		}
	}
	return zero
}
