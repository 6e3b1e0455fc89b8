package preset

import (
	"log"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath resolves a shader/LUT path referenced from a preset loaded
// out of baseDir, trying candidates in the exact order the original
// ShaderPreset::resolvePath does (listed in SPEC_FULL.md), first
// existing wins.
func ResolvePath(baseDir, raw string) string {
	if raw == "" {
		return raw
	}

	// 1. Absolute path as-is.
	if filepath.IsAbs(raw) {
		return raw
	}

	// 2. <baseDir>/<path>.
	candidate := filepath.Clean(filepath.Join(baseDir, raw))
	if exists(candidate) {
		return candidate
	}

	cwd, _ := os.Getwd()

	// 3. "shaders/" prefix stripping.
	if rest, ok := strings.CutPrefix(raw, "shaders/"); ok {
		candidate = filepath.Clean(filepath.Join(baseDir, rest))
		if exists(candidate) {
			return candidate
		}
		candidate = filepath.Join(cwd, "shaders", "shaders_glsl", rest)
		if exists(candidate) {
			return candidate
		}
	}

	// 4. Leading "../" stripping.
	cleanPath := raw
	parentLevels := 0
	for {
		rest, ok := strings.CutPrefix(cleanPath, "../")
		if !ok {
			break
		}
		cleanPath = rest
		parentLevels++
	}
	if parentLevels > 0 {
		glslDir := filepath.Join(cwd, "shaders", "shaders_glsl")
		candidate = filepath.Join(glslDir, cleanPath)
		if exists(candidate) {
			return candidate
		}
		if found := searchByName(glslDir, filepath.Base(cleanPath)); found != "" {
			return found
		}
		if idx := strings.Index(baseDir, "shaders_glsl"); idx >= 0 {
			rebased := baseDir[:idx+len("shaders_glsl")]
			candidate = filepath.Join(rebased, cleanPath)
			if exists(candidate) {
				return candidate
			}
		}
		stripped := stripParents(baseDir, parentLevels)
		candidate = filepath.Join(stripped, cleanPath)
		if exists(candidate) {
			return candidate
		}
	}

	// 5. Plain <cwd>/<relPath>.
	candidate = filepath.Join(cwd, raw)
	if exists(candidate) {
		return candidate
	}

	// 6/7. Well-known shader subdirectories, then a final generic attempt,
	// both under shaders/shaders_glsl/.
	for _, prefix := range []string{"crt/", "xbr/", "denoisers/", "guest/"} {
		if strings.HasPrefix(cleanPath, prefix) {
			candidate = filepath.Join(cwd, "shaders", "shaders_glsl", cleanPath)
			if exists(candidate) {
				return candidate
			}
			break
		}
	}
	candidate = filepath.Join(cwd, "shaders", "shaders_glsl", cleanPath)
	if exists(candidate) {
		return candidate
	}

	// 8. Last resort: return the computed path even if it doesn't exist,
	// so the caller can report a clean "file not found" error.
	log.Printf("preset: could not resolve %q under %q, returning best guess %q", raw, baseDir, candidate)
	return candidate
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// stripParents removes up to n trailing directory components from dir.
func stripParents(dir string, n int) string {
	for i := 0; i < n; i++ {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return dir
}

// searchByName walks root looking for a file with the given base name,
// returning the first match depth-first.
func searchByName(root, name string) string {
	if name == "" {
		return ""
	}
	var found string
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || found != "" {
			return nil
		}
		if info != nil && !info.IsDir() && info.Name() == name {
			found = path
		}
		return nil
	})
	return found
}
