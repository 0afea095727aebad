// Package ocr turns images of math questions into question text.
// It defines the recognition engine contract, the engines that implement it
// (a tesseract subprocess and a Gemini vision model), an asynchronous task
// wrapper with progress and cancellation, and the text cleanup applied to
// everything an engine returns.
package ocr
