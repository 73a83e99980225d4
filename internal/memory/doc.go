// Package memory keeps thumbnail decoding inside the container's memory
// budget.
//
// Decoding a 24 megapixel JPEG at full resolution allocates close to 100 MB,
// and several workers may do so at once. Configure derives GOMEMLIMIT from
// the container limit so the garbage collector works harder before the
// kernel OOM killer steps in:
//
//	memory.Configure(os.Getenv)
//
// A Monitor samples the heap and, above its pause threshold, makes Wait
// block until usage falls below the resume threshold. media.Generator calls
// Wait before every decode, so the cache and loader keep serving hits while
// new decodes queue up.
//
// # Environment Variables
//
//   - GOMEMLIMIT: standard Go setting; takes precedence when present.
//   - MEMORY_LIMIT: container limit in bytes, typically from the Kubernetes
//     Downward API (resourceFieldRef: limits.memory).
//   - MEMORY_RATIO: share of MEMORY_LIMIT given to the Go heap, default 0.85.
package memory
