/*
Package filesystem provides resilient filesystem operations with automatic retry logic
for NFS stale file handle errors.

Source photo libraries and thumbnail cache directories are frequently NFS
mounts. A stale handle (ESTALE) during a stat or open is usually transient,
so StatWithRetry and OpenWithRetry retry those errors only, with capped
exponential backoff. Every other error is returned immediately.

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())

Retry outcomes are reported to the Observer installed with SetObserver and
labeled with the volume name resolved by the VolumeResolver installed with
SetDefaultVolumeResolver (for example "source" or "cache").
*/
package filesystem
