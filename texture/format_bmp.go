//go:build !nobmp

package texture

import "golang.org/x/image/bmp"

func init() {
	register(FormatBMP, bmp.Decode, "bmp")
}
