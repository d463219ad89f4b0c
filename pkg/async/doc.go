// Package async runs a function on its own goroutine and lets the caller wait
// for the result while honouring the caller's context.
//
// It is used to keep CPU-bound work such as password hashing off the request
// goroutine: if the request is abandoned the caller stops waiting and the
// background computation finishes on its own.
//
//	f := async.Async(ctx, plaintext, func(_ context.Context, p string) ([]byte, error) {
//		return bcrypt.GenerateFromPassword([]byte(p), cost)
//	})
//	digest, err := f.Await(ctx)
package async
