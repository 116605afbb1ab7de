package spawnctx

import "os"

type hostPlatform struct {
	executable func() (string, error)
}

// HostPlatform describes the running process. Spawn is available when the
// executable path resolves.
func HostPlatform() Platform {
	return hostPlatform{executable: os.Executable}
}

func (p hostPlatform) StartMethods() []string {
	var methods []string
	if p.canSpawn() {
		methods = append(methods, MethodSpawn)
	}
	return append(methods, nativeMethods...)
}

func (p hostPlatform) SupportsSelection() bool {
	return p.canSpawn()
}

func (p hostPlatform) DefaultMethod() string {
	return nativeDefault
}

func (p hostPlatform) canSpawn() bool {
	path, err := p.executable()
	return err == nil && path != ""
}
