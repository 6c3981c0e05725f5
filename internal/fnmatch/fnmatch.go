// Copyright (C) 2014 Jakob Borg and Contributors (see the CONTRIBUTORS file).
//
// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE. See the GNU General Public License for
// more details.
//
// You should have received a copy of the GNU General Public License along
// with this program. If not, see <http://www.gnu.org/licenses/>.

// Package fnmatch implements POSIX fnmatch(3)-style glob matching over
// registry pattern segments, by translation to regexp. It case-folds on
// request and, unlike a strict fnmatch(3), lets "*" span the family/label
// "/" unless the caller asks for FNM_PATHNAME — the registry's own pattern
// search never does, since a watch pattern's "*" is allowed to span it.
package fnmatch

import (
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

const (
	FNM_NOESCAPE = (1 << iota)
	FNM_PATHNAME
	FNM_CASEFOLD
)

// placeholder pairs a glob token with the sentinel substring that shields
// it from the earlier translation steps until it is safe to restore.
type placeholder struct{ token, sentinel string }

var (
	escapedStar = placeholder{`\*`, "[:escapedstar:]"}
	escapedQues = placeholder{`\?`, "[:escapedques:]"}
	escapedDot  = placeholder{`\.`, "[:escapeddot:]"}
	doubleStar  = placeholder{"**", "[:doublestar:]"}
)

// hideEscapes replaces backslash-escaped glob metacharacters with sentinels
// so the literal-dot and wildcard translation passes below don't mistake
// them for unescaped metacharacters.
func hideEscapes(pattern string) string {
	pattern = strings.Replace(pattern, escapedStar.token, escapedStar.sentinel, -1)
	pattern = strings.Replace(pattern, escapedQues.token, escapedQues.sentinel, -1)
	pattern = strings.Replace(pattern, escapedDot.token, escapedDot.sentinel, -1)
	return pattern
}

// restoreEscapes reverses hideEscapes once wildcard translation is done,
// turning the sentinels back into literal, regexp-escaped characters.
func restoreEscapes(pattern string) string {
	pattern = strings.Replace(pattern, escapedStar.sentinel, `\*`, -1)
	pattern = strings.Replace(pattern, escapedQues.sentinel, `\?`, -1)
	pattern = strings.Replace(pattern, escapedDot.sentinel, `\.`, -1)
	return pattern
}

// platformAny returns the regexp fragment "*" and "?" expand to on this
// OS/flag combination, and any flags the platform forces on.
func platformAny(flags int) (any string, effective int) {
	effective = flags
	switch runtime.GOOS {
	case "windows":
		effective |= FNM_NOESCAPE | FNM_CASEFOLD
		if effective&FNM_PATHNAME != 0 {
			return `[^\\]`, effective
		}
		return ".", effective
	case "darwin":
		effective |= FNM_CASEFOLD
		fallthrough
	default:
		if effective&FNM_PATHNAME != 0 {
			return "[^/]", effective
		}
		return ".", effective
	}
}

// Convert compiles a glob pattern into the regexp that matches exactly the
// strings fnmatch(3) semantics (as extended by flags) would accept.
func Convert(pattern string, flags int) (*regexp.Regexp, error) {
	any, flags := platformAny(flags)
	if runtime.GOOS == "windows" {
		pattern = filepath.FromSlash(pattern)
	}

	if flags&FNM_NOESCAPE != 0 {
		pattern = strings.Replace(pattern, `\`, `\\`, -1)
	} else {
		pattern = hideEscapes(pattern)
	}

	pattern = strings.Replace(pattern, ".", `\.`, -1)
	pattern = strings.Replace(pattern, doubleStar.token, doubleStar.sentinel, -1)
	pattern = strings.Replace(pattern, "*", any+"*", -1)
	pattern = strings.Replace(pattern, doubleStar.sentinel, ".*", -1)
	pattern = strings.Replace(pattern, "?", any, -1)
	pattern = restoreEscapes(pattern)

	pattern = "^" + pattern + "$"
	if flags&FNM_CASEFOLD != 0 {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

// Match reports whether s satisfies pattern under the given flags.
func Match(pattern, s string, flags int) (bool, error) {
	exp, err := Convert(pattern, flags)
	if err != nil {
		return false, err
	}
	return exp.MatchString(s), nil
}
