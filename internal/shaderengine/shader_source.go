package shaderengine

import (
	"os"

	"github.com/ashgrove/retrocapture/internal/preprocess"
)

func readShaderSource(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func isVec3ToVec4(log string) bool {
	return preprocess.IsVec3ToVec4Error(log)
}

func fixVec3ToVec4(source string) (string, bool) {
	return preprocess.FixVec3ToVec4(source)
}
