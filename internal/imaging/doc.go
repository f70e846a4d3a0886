// Package imaging provides the image transforms behind the conversion
// endpoints: decode, resize, crop, format conversion, compression and
// background removal.
//
// All operations work with standard Go image.Image values. Decoding
// supports PNG, JPEG, GIF and WebP; encoding supports PNG, JPEG and GIF
// through disintegration/imaging and WebP through libvips. Palette reports
// the dominant colors of an image for the metadata endpoint.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. For a crop Box, (Left,Top)
// is inclusive and (Right,Bottom) is exclusive.
//
// # Error Handling
//
// Errors carry an errs.Category. Bad parameters (empty or out-of-bounds crop
// boxes, missing resize dimensions, quality outside 1-100) are
// errs.CategoryInput; decode and encode failures use CategoryDecode and
// CategoryEncode.
//
// # Thread Safety
//
// Every function is stateless and safe for concurrent use. The only
// process-wide state is the libvips runtime, see StartVips.
package imaging
