package probe

import "os"

// Env is the read-only view of environment variables the resolver consults.
type Env interface {
	LookupEnv(key string) (string, bool)
}

type osEnv struct{}

func (osEnv) LookupEnv(key string) (string, bool) { return os.LookupEnv(key) }

// OS returns an Env backed by the process environment.
func OS() Env { return osEnv{} }

// Map is a fixed environment. The resolver uses an empty Map when no
// environment is given.
type Map map[string]string

func (m Map) LookupEnv(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Lookup returns the value of key when it is set and non-empty.
func Lookup(env Env, key string) (string, bool) {
	if env == nil || key == "" {
		return "", false
	}
	v, ok := env.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
