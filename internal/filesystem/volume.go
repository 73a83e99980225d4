package filesystem

import (
	"cmp"
	"path/filepath"
	"slices"
	"strings"
)

// VolumeUnknown labels paths outside every configured volume.
const VolumeUnknown = "unknown"

// VolumeResolver maps file paths to volume names for metric labels. The
// longest matching root wins, so a cache directory nested inside the photo
// library still resolves to "cache".
type VolumeResolver struct {
	roots []volumeRoot
}

type volumeRoot struct {
	prefix string // absolute, always ends in a separator
	name   string
}

// NewVolumeResolver builds a resolver from volume name to root directory.
//
//	NewVolumeResolver(map[string]string{
//	    "source": "/photos",
//	    "cache":  "/var/cache/thumbgrid",
//	})
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	roots := make([]volumeRoot, 0, len(volumes))
	for name, dir := range volumes {
		roots = append(roots, volumeRoot{prefix: dirPrefix(dir), name: name})
	}
	slices.SortFunc(roots, func(a, b volumeRoot) int {
		return cmp.Compare(len(b.prefix), len(a.prefix))
	})
	return &VolumeResolver{roots: roots}
}

func dirPrefix(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if !strings.HasSuffix(p, string(filepath.Separator)) {
		p += string(filepath.Separator)
	}
	return p
}

// Resolve returns the volume holding path, or VolumeUnknown. A nil resolver
// resolves everything to VolumeUnknown.
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return VolumeUnknown
	}
	// dirPrefix lets a volume root match itself.
	p := dirPrefix(path)
	for _, root := range vr.roots {
		if strings.HasPrefix(p, root.prefix) {
			return root.name
		}
	}
	return VolumeUnknown
}

var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver installs the resolver used when a RetryConfig
// carries none. main calls it once after loading configuration.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}
