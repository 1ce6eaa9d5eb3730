//go:build !nopng

package texture

import "image/png"

func init() {
	register(FormatPNG, png.Decode, "png")
}
