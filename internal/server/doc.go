// Package server implements the HTTP front end for the file conversion
// operations.
//
// The server is built on echo. Every conversion is a POST endpoint taking
// multipart/form-data and answering with the converted file as an
// attachment. Errors are JSON objects of the form {"error": "<message>"}.
//
// # Endpoints
//
// PDF and image conversion:
//   - /convert: PDF page to PNG, or image to single-page PDF
//   - /remove-background: transparent background, PNG output
//
// PDF operations:
//   - /combine-pdf: merge two or more PDFs (field "files")
//   - /split-pdf: extract a page range
//   - /rotate-pdf: rotate all pages by 90, 180 or 270 degrees
//   - /add-watermark: diagonal text stamp on every page
//   - /compress-pdf: optimize streams and resources
//
// Image operations:
//   - /resize-image, /crop-image, /convert-image, /compress-image
//
// Text and metadata:
//   - /image-to-text: Tesseract OCR, plain text output
//   - /info: page count or image metadata as JSON
//
// GET /operations lists the same catalogue with each endpoint's accepted
// extensions and parameters. GET /healthz reports liveness.
//
// # Request Lifecycle
//
// Shared validation runs before any file is written: a missing upload,
// an empty filename and a disallowed extension are all rejected with 400.
// Accepted uploads are saved into a fresh workspace (see package
// workspace), the operation runs, the output is streamed back and the
// workspace is deleted. No state survives a request.
//
// # Status Codes
//
// Errors carry an errs.Category. Input errors map to 400 and everything
// else to 500. echo's own errors keep their status: 404 for unknown
// routes, 413 for uploads over server.max_upload and 503 when
// server.request_timeout expires.
//
// # Logging
//
// Each request is logged once by the request-logger middleware with its
// request ID, method, URI, status and latency. Operations additionally log
// the uploaded file names and the output name under the same request ID.
//
// # Usage
//
//	srv, err := server.New(cfg, logger, version)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go srv.Start()
//	...
//	srv.Shutdown(ctx)
package server
