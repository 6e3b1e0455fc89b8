package shaderengine

import "fmt"

// CompileError wraps a shader compile/link failure (spec §7 CompileError).
// The pass's extracted parameter table survives a CompileError — see
// PassData.Compiled vs PassData.Parameters.
type CompileError struct {
	PassIndex int
	ShaderPath string
	Log       string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("pass %d (%s): compile failed: %s", e.PassIndex, e.ShaderPath, e.Log)
}
