// Package program is the invocation layer over slab instances.
//
// Every operation is addressed by an owner key and one of three namespace
// tags. The address sha256(tag || owner || program id) names the slab file
// under the configured data directory. Each call is one invocation: it opens
// the instance, meters transient memory against the configured budget,
// applies exactly one operation inside a header transaction and commits it,
// or rolls back and returns the error. Nothing is retried.
//
// Usage:
//
//	cfg, _ := config.Load("slabkit.toml")
//	p, err := program.Open(cfg)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	owner := types.KeyFromSeed("alice")
//	if err := p.InitFixedBuffer(ctx, owner, 40960); err != nil {
//	    return err
//	}
//	if err := p.WriteFixed(ctx, owner, 40952, []byte("hello")); err != nil {
//	    return err
//	}
//
// Calls against the same address are serialized within a Program. Calls
// against different addresses run concurrently.
package program
