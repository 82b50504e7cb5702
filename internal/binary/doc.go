// Package binary keeps the proxy executable on disk up to date.
//
// # Flow
//
// Manager.EnsureLatest composes the pieces in a fixed order:
//
//  1. Resolver fetches <base>/releases and picks the release flagged
//     isLatest, then the asset whose name contains the host's release tag
//     (win-x64, macos-x64, linux-x64).
//  2. Cache decides from the local file whether that asset must be
//     fetched again. A file smaller than the minimum plausible size (50 MiB
//     by default) is treated as corrupt. That is a heuristic, not an
//     integrity check; when the release index publishes a sha256 for the
//     asset the checksum is compared as well.
//  3. Downloader streams <base>/releases/artifact?assetId=<id> to disk through
//     a fixed-size buffer, reporting progress after every chunk, and marks the
//     result executable on POSIX hosts.
//  4. Verifier checks the sha256 and, when a keyring is configured and the
//     asset has a detached signature, the OpenPGP signature.
//
// No step retries. Any failure aborts the whole call and is returned to the
// caller, who owns the retry policy.
//
// # Usage
//
//	mgr, err := binary.NewManager(binary.Config{
//	    BaseURL:      "https://duelsplus.com/api",
//	    InstallDir:   "/home/user/.duelsplus/proxy",
//	    PlatformInfo: info,
//	})
//	if err != nil {
//	    return err
//	}
//	path, err := mgr.EnsureLatest(ctx, handler)
package binary
