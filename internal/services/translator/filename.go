package translator

import (
	"mime"
	"path"
	"regexp"
	"strings"
)

var filenamePattern = regexp.MustCompile(`filename="?([^";]+)"?`)

// FileNameFromDisposition extracts the filename parameter of a Content-Disposition
// header. RFC 6266 forms (including filename*) are tried first; loosely formatted
// headers fall back to a pattern match.
func FileNameFromDisposition(disposition string) (string, bool) {
	if strings.TrimSpace(disposition) == "" {
		return "", false
	}

	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := clean(params["filename"]); name != "" {
			return name, true
		}
	}

	if m := filenamePattern.FindStringSubmatch(disposition); m != nil {
		if name := clean(m[1]); name != "" {
			return name, true
		}
	}

	return "", false
}

// clean keeps only the base name so a header cannot smuggle a path
func clean(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
