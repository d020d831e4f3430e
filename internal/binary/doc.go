// Package binary downloads, verifies, and installs the external helper
// tools (yt-dlp, ffmpeg, ...) that youtube-dl-gui drives.
//
// # Model
//
// An embedded manifest pins an exact version and per-platform file
// descriptor (URL + SHA256, optional archive entry or bundle layout) for
// every tool. A metadata.json ledger next to the installed binaries
// records which versions are present. Each run diffs manifest against
// ledger and filesystem, then installs only what is missing or outdated.
//
// # Pipeline
//
// Per planned tool: select platform file -> acquire payload -> verify
// digest -> extract/rename to the canonical path -> fix permissions.
// A failure in any stage is captured as a ToolError and never aborts the
// rest of the run; the ledger is written once at the end, recording only
// the tools that fully installed.
//
// # Acquisition strategies
//
// Two interchangeable strategies implement Acquirer:
//   - NetworkAcquirer: HTTP download with GitHub proxy-mirror fallback
//     and a fixed per-attempt timeout.
//   - EmbeddedAcquirer: payloads compiled into the application binary,
//     written to disk at a bounded rate.
//
// Which one is active is a build/deployment choice, not a runtime branch.
//
// # Integrity
//
// Payloads are hashed (SHA256) while streaming and compared against the
// manifest digest; a mismatch deletes the temp artifact and fails the
// tool. When the manifest carries a detached-signature URL and an
// operator-provided armored keyring exists under {bin_dir}/keyrings, the
// signature is additionally checked with OpenPGP.
package binary
