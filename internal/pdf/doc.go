// Package pdf wraps the PDF operations behind the conversion endpoints.
//
// Page manipulation (combine, split, rotate, watermark, optimize, image
// import) is done with pdfcpu, which works on files and needs no native
// libraries. Rasterizing a page to PNG uses MuPDF through go-fitz.
//
// Page numbers are 1-based everywhere in this package. Out-of-range pages,
// invalid rotations and empty watermark text are errs.CategoryInput; any
// failure inside pdfcpu or MuPDF is errs.CategoryPDF.
package pdf
