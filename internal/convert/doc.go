// Package convert re-encodes input recordings into the canonical audio format
// used for segmentation.
//
// The canonical file for input "talk.mp3" is "<output_dir>/talk.<format>".
// An existing canonical file is reused according to the configured cache
// mode:
//
//   - path: existence alone.
//   - mtime: the ledger entry must match the source path, size, and
//     modification time. Without a ledger entry the canonical file must be
//     newer than the source.
//   - hash: the ledger entry must match the SHA-256 of the source content.
//
// Conversions run ffmpeg into a ".part" file that is renamed into place, so
// an interrupted run never leaves a truncated file that later passes as a
// cache hit. A file lock beside the canonical path serializes concurrent
// conversions of the same source.
package convert
