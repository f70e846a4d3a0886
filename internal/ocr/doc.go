// Package ocr extracts text from images using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2) for the
// image-to-text endpoint. It reads one image file and produces plain text.
//
// # Prerequisites
//
// Tesseract and the language data for every requested language must be
// installed on the host:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Set ocr.tessdata_prefix in the configuration when the language data lives
// outside Tesseract's default search path.
//
// # Languages
//
// The default language is English ("eng"). Several languages can be
// combined with "+", e.g. "eng+deu". Codes are validated before Tesseract
// is invoked, so malformed input is rejected as an input error instead of
// reaching the engine.
package ocr
