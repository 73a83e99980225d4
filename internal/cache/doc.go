/*
Package cache implements the two-tier thumbnail cache.

The memory tier (MemoryCache) is a small LRU of decoded thumbnails keyed by
source path and target size. The disk tier (DiskCache) keeps JPEG-encoded
thumbnails under a cache directory so they survive restarts; its writes are
published atomically through a temp file and rename.

Both tiers hang off a Service created once at startup:

	svc, err := cache.New(cache.Config{Dir: "/var/cache/thumbgrid"})
	if err != nil {
		return err
	}
	defer svc.Close()

	if thumb, ok := svc.Memory().Get(key); ok {
		...
	}

Entries are never invalidated. A source file replaced in place keeps
serving the old thumbnail until the cache directory is cleared.
*/
package cache
