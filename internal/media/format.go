package media

import (
	"io"
	"path/filepath"
	"strings"

	"thumbgrid/internal/filesystem"
)

// ImageExtensions lists the source extensions the pipeline can decode.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

// IsImage reports whether path has a decodable image extension.
func IsImage(path string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(path))]
}

// detectFormat sniffs the container format from the file header. It is used
// for diagnostics when the registered decoders reject a file, so formats the
// pipeline cannot decode (heif, avif, jxl) are still named in the error.
func detectFormat(path string) string {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return "unknown"
	}
	defer file.Close()

	header := make([]byte, 12)
	n, err := io.ReadFull(file, header)
	if err != nil && n == 0 {
		return "unknown"
	}
	return sniffFormat(header[:n])
}

func sniffFormat(header []byte) string {
	switch {
	case len(header) >= 3 && header[0] == 0xFF && header[1] == 0xD8 && header[2] == 0xFF:
		return "jpeg"

	case len(header) >= 4 && header[0] == 0x89 && header[1] == 'P' && header[2] == 'N' && header[3] == 'G':
		return "png"

	case len(header) >= 4 && string(header[:4]) == "GIF8":
		return "gif"

	case len(header) >= 12 && string(header[:4]) == "RIFF" && string(header[8:12]) == "WEBP":
		return "webp"

	case len(header) >= 2 && header[0] == 'B' && header[1] == 'M':
		return "bmp"

	case len(header) >= 4 && (string(header[:4]) == "II*\x00" || string(header[:4]) == "MM\x00*"):
		return "tiff"

	case len(header) >= 12 && string(header[4:8]) == "ftyp":
		switch string(header[8:12]) {
		case "heic", "heix", "hevc", "hevx", "mif1", "msf1":
			return "heif"
		case "avif", "avis":
			return "avif"
		}
		return "iso-bmff"

	case len(header) >= 2 && header[0] == 0xFF && header[1] == 0x0A:
		return "jxl"
	}

	return "unknown"
}
