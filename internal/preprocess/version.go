package preprocess

import (
	"regexp"
	"strings"
)

var existingVersionRe = regexp.MustCompile(`^\s*#version[^\n]*\n?`)

var generatedHeaderRe = regexp.MustCompile(
	`^(#version[^\n]*\n)` +
		`((?:precision mediump float;\nprecision mediump int;\n)?)` +
		`((?:#extension[^\n]*\n)?)` +
		`#define (?:VERTEX|FRAGMENT)\n#define PARAMETER_UNIFORM\n`)

// stripGeneratedHeader detects a header buildFinal previously emitted
// (version + optional precision + optional extension + stage define
// markers) at the start of source, returning the captured pieces and
// the remaining body so Preprocess can reproduce it byte-for-byte on a
// second pass (spec §8 property 3, OutputSize/preprocessor idempotence).
func stripGeneratedHeader(source string) (version, precision, extension, body string, found bool) {
	m := generatedHeaderRe.FindStringSubmatchIndex(source)
	if m == nil {
		return "", "", "", source, false
	}
	groups := generatedHeaderRe.FindStringSubmatch(source)
	version = strings.TrimRight(groups[1], "\n")
	precision = strings.TrimRight(groups[2], "\n")
	extension = strings.TrimRight(groups[3], "\n")
	body = source[m[1]:]
	return version, precision, extension, body, true
}

// extractExistingVersion returns the first line of source if it is a
// #version directive, and the source with that line removed.
func extractExistingVersion(source string) (version string, rest string, found bool) {
	loc := existingVersionRe.FindStringIndex(source)
	if loc == nil || loc[0] != 0 {
		return "", source, false
	}
	version = strings.TrimRight(source[loc[0]:loc[1]], "\n")
	return version, source[loc[1]:], true
}

// selectVersion implements spec §4.2 step 4: pick #version/precision/
// extension text from the host GL context version.
func selectVersion(gl GLContext) (version, precision, extension string) {
	switch {
	case gl.ES && gl.Major >= 3:
		version = "#version 300 es"
	case gl.ES:
		version = "#version 100"
	case gl.Major > 3 || (gl.Major == 3 && gl.Minor >= 0):
		version = "#version 330"
	case gl.Major == 1 && gl.Minor >= 3:
		version = "#version 130"
	case gl.Major >= 2:
		version = "#version 120"
	default:
		version = "#version 110"
	}

	if gl.ES {
		precision = "precision mediump float;\nprecision mediump int;"
		return version, precision, ""
	}

	if version == "#version 330" || version == "#version 130" {
		extension = "#extension GL_ARB_shading_language_420pack : require"
	}
	return version, precision, extension
}
