/*
Package media implements the thumbnail decode pipeline.

A thumbnail is produced in four steps:

 1. ProbeDimensions reads the stored width and height from the file header.
 2. ComputeSampleSize picks a power-of-two reduction for the requested size
    and DecodeSampled decodes at that reduced resolution.
 3. ReadOrientation maps the EXIF orientation tag to a clockwise rotation and
    ApplyRotation applies it.
 4. The result is center-cropped and scaled to exactly the requested size.

Generator.Produce runs all four and records per-phase durations in the
metrics package.

When InitVips has been called, JPEG sources are shrunk during decode by
libvips, which avoids materialising the full-resolution bitmap. Everything
else decodes with the registered image decoders and is reduced afterwards.
*/
package media
