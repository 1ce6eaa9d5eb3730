// Package texture loads image files into GPU-uploadable images.
//
// The image format is resolved from an explicit override if one is given,
// otherwise from the file extension. Which formats are compiled in is
// chosen at build time with tags:
//
//	nopng, nojpeg, nogif, nobmp, nowebp, notiff
//
// Loader settings can be supplied per call or through a YAML side-car
// file next to the image ("sprite.png.meta"):
//
//	format: from_extension
//	is_srgb: true
//	generate_mips: true
//	sampler:
//	  address_mode: repeat
//	  filter: nearest
//
// Failures are reported as [*IOError] or [*DecodeError]. The loader never
// substitutes a placeholder image.
package texture
