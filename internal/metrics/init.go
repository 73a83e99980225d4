package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, tier := range []string{"memory", "disk"} {
		CacheLookupsTotal.WithLabelValues(tier, "hit")
		CacheLookupsTotal.WithLabelValues(tier, "miss")
	}

	for _, status := range []string{"success", "error"} {
		DiskCacheWritesTotal.WithLabelValues(status)
		IndexRunsTotal.WithLabelValues(status)
	}

	for _, phase := range []string{"probe", "decode", "rotate", "scale", "encode", "disk_read"} {
		DecodePhaseDuration.WithLabelValues(phase)
	}

	for _, format := range []string{"jpeg", "png", "gif", "webp", "bmp", "tiff", "unknown"} {
		DecodeByFormat.WithLabelValues(format)
	}

	for _, backend := range []string{"go", "vips"} {
		DecodeBackendTotal.WithLabelValues(backend)
	}

	for _, degrees := range []string{"0", "90", "180", "270"} {
		OrientationApplied.WithLabelValues(degrees)
	}

	for _, source := range []string{"memory", "dispatched"} {
		LoadRequestsTotal.WithLabelValues(source)
	}

	for _, outcome := range []string{"applied", "discarded"} {
		LoadOutcomesTotal.WithLabelValues(outcome)
		LoadDuration.WithLabelValues(outcome)
	}

	for _, kind := range []string{"probe", "decode", "metadata", "disk_write", "disk_read", "unknown"} {
		LoadFailuresTotal.WithLabelValues(kind)
	}

	for _, op := range []string{"stat", "open"} {
		for _, vol := range []string{"source", "cache", "unknown"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, op := range []string{"upsert", "delete_missing", "paths", "count"} {
		IndexQueryDuration.WithLabelValues(op)
	}
}
