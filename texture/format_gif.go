//go:build !nogif

package texture

import "image/gif"

func init() {
	register(FormatGIF, gif.Decode, "gif")
}
