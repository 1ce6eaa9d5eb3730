//go:build !nowebp

package texture

import "golang.org/x/image/webp"

func init() {
	register(FormatWebP, webp.Decode, "webp")
}
