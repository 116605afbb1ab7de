//go:build !unix

package spawnctx

var (
	nativeMethods []string
	nativeDefault = MethodSpawn
)
