// Package metrics provides Prometheus instrumentation for thumbgrid.
//
// All metrics are registered on the default registry through promauto and are
// prefixed with "thumbgrid_". They are served on /metrics by the HTTP server.
//
// # Metric Categories
//
// ## Cache
//   - CacheLookupsTotal: lookups by tier (memory, disk) and result (hit, miss)
//   - MemoryCacheEntries, MemoryCacheEvictions: memory tier occupancy and LRU evictions
//   - DiskCacheWritesTotal, DiskCacheWriteBytes: disk tier publishes
//
// ## Decode pipeline
//   - DecodePhaseDuration: probe, decode, rotate, scale, encode, disk_read
//   - DecodeSampleSize: chosen power-of-two factor
//   - DecodeByFormat, DecodeBackendTotal, OrientationApplied
//
// ## Load coordinator
//   - LoadRequestsTotal: served from memory vs dispatched to a worker
//   - LoadOutcomesTotal, LoadDuration: applied vs discarded completions
//   - LoadFailuresTotal: failures by kind (probe, decode, metadata, disk_write, disk_read)
//   - LoadTasksInFlight
//
// ## Memory
//   - MemoryUsageRatio, MemoryPaused, MemoryPausesTotal: decode backpressure
//
// ## Filesystem, index, HTTP
//   - FilesystemRetry*: NFS ESTALE retry behaviour per operation and volume
//   - Index*: source index scans and queries
//   - HTTP*: request counts, latency and concurrency
//
// # Observers
//
// FilesystemObserver and LoadObserver adapt these metrics to the observer
// interfaces declared by the filesystem and loader packages. Their method
// sets use only builtin types so this package does not import either.
//
// # Collector
//
// Collector polls a StatsProvider on an interval for gauges that are cheaper
// to sample than to maintain, such as the memory tier size or the number of
// busy decode workers. Run it alongside the other background loops:
//
//	eg.Go(func() error { return collector.Run(ctx) })
package metrics
