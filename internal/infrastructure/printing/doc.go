// Package printing renders assembled pages into concrete outputs and
// archives the results.
//
// Output back ends:
//   - HTMLOutput: standalone markup, used for previews
//   - ChromedpOutput: PDF printed by a headless browser from the markup
//   - PDFOutput: PDF written directly with gofpdf
//   - RasterOutput: PNG painted with golang.org/x/image
//
// Archives keep rendered output under {year}/{month}/{job}.{ext}, either on
// the local file system or in an object store.
package printing
