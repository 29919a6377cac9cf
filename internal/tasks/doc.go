// Package tasks runs long library operations with real-time progress reporting.
//
// # Bulk Upload
//
// [UploadEngine.BulkUpload] uploads a set of MP3 files concurrently:
//   - Files are fed to a bounded worker pool
//   - A [rate.Limiter] spaces requests so the backend is not flooded
//   - Embedded ID3 tags prefill each upload's title and artist
//   - Partial failures are collected, never fatal
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values on an optional channel. Sends use
// select with default so a slow or absent reader never blocks the pool.
package tasks
