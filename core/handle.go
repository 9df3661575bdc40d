package core

import (
	"path"
	"strings"

	"github.com/oklog/ulid/v2"
)

// NewFileHandle derives a storage handle for an upload. The ULID prefix
// keeps handles unique across the process lifetime even for concurrent
// uploads of the same name; the sanitized original name is kept as a
// suffix so downloads stay human-readable.
func NewFileHandle(originalName string) string {
	return ulid.Make().String() + "-" + SanitizeName(originalName)
}

// OriginalName recovers the client-supplied name from a handle built by
// NewFileHandle. ULIDs contain no dash, so everything after the first
// one is the name.
func OriginalName(handle string) string {
	if i := strings.Index(handle, "-"); i >= 0 && i+1 < len(handle) {
		return handle[i+1:]
	}
	return handle
}

// SanitizeName reduces a client-supplied file name to a bare name with
// no path components. Client names arrive unvalidated over the wire and
// end up in storage paths and download URLs.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == ".." || name == "/" || name == "" {
		return "file"
	}
	return name
}
