//go:build !notiff

package texture

import "golang.org/x/image/tiff"

func init() {
	register(FormatTIFF, tiff.Decode, "tif", "tiff")
}
