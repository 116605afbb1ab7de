//go:build unix

package spawnctx

var (
	nativeMethods = []string{MethodFork}
	nativeDefault = MethodFork
)
