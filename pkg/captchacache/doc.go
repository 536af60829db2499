// Package captchacache talks to a Redis server carrying the mCaptcha cache
// module, the shared store behind distributed mCaptcha visitor counting.
//
// # Startup
//
// New connects to the store and verifies the module before returning:
//
//	cache, err := captchacache.New(ctx, store.NewConfig())
//	if err != nil {
//	    log.Fatal(err) // ErrConnection, ErrExtensionNotLoaded, ErrExtensionCommandMissing
//	}
//	defer cache.Close()
//
// Verification runs MODULE LIST and COMMAND INFO for each command in the
// core.Catalog. It runs once per Cache.
//
// # Commands
//
// Conn exposes one method per module command. Each method sends exactly one
// command and never retries:
//
//	conn := cache.Conn()
//	err := conn.Register(ctx, core.RegisterRequest{ID: "site", Config: cfg})
//	res, err := conn.AddVisitor(ctx, core.AddVisitorRequest{ID: "site"})
//	ok, err := conn.Exists(ctx, "site")
//	n, err := conn.VisitorCount(ctx, "site")
//	err = conn.Delete(ctx, "site")
//
// # Errors
//
// Transport failures and error replies wrap ErrStore together with the
// go-redis error. Replies outside the module's documented domain return
// ErrExtensionProtocol and are logged first. Unparseable ADD_VISITOR
// payloads return ErrDeserialization.
//
// # Concurrency
//
// A Conn may be shared between goroutines. The go-redis pool checks out a
// connection for each command, so requests never interleave on the wire.
package captchacache
