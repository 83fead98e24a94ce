// Package assets embeds the sandbox shaders and the pipeline manifests that describe them.
package assets

import "embed"

// FS holds shaders/ (WGSL modules and their GLSL counterparts) and manifests/.
//
//go:embed shaders manifests
var FS embed.FS

// SandboxManifest is the path of the sandbox pipeline manifest inside FS.
const SandboxManifest = "manifests/sandbox.toml"
