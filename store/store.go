// Package store 提供 core.Store / core.VectorDatabaseService 的实现：
//
//	var kv core.Store = store.NewMemoryStore()
//	kv, err := store.NewRedisStore(ctx, store.RedisConfig{Addr: "localhost:6379"})
//	var idx core.VectorDatabaseService = store.NewMemoryVectorService()
package store
