//go:build !nojpeg

package texture

import "image/jpeg"

func init() {
	register(FormatJPEG, jpeg.Decode, "jpg", "jpeg")
}
