// Package fileforge implements the conversion result lifecycle behind a
// web-based file conversion service: persisting the one-or-many output
// buffers a transformation produces, handing back stable identifiers and
// retrieval URLs, and reclaiming guest-owned storage on a timer.
//
// It exposes a single Service interface orchestrating uploads, downloads and
// deletions over a pluggable ObjectStore. Store implementations (memory,
// filesystem, S3, MinIO) live under subpackages, as do the optional
// conversion-history repositories (memory, Postgres).
//
// Lifecycle
//
// Outputs of authenticated requests land in a durable folder and are kept
// until explicitly deleted. Outputs of guest requests land in a temporary
// folder and are scheduled for deletion after a grace window by the Reaper;
// those deletions are best-effort and their failures are never surfaced to
// the request that created the objects.
package fileforge
