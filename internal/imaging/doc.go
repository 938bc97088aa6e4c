// Package imaging turns raw photo captures into bounded JPEG evidence and
// stamps circular markers onto them.
//
// Compress decodes JPEG, PNG, GIF and WebP input, scales it down to the
// configured width with a Catmull-Rom filter and re-encodes at a fixed quality.
// Annotate rasterizes an anti-aliased ring with golang.org/x/image/vector.
// MapClick converts pointer positions from the rendered element back to the
// photo's own pixel grid.
package imaging
