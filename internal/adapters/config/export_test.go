package config

// NewOptionsLoaderWithEnv creates an OptionsLoader reading env instead of the process
// environment.
func NewOptionsLoaderWithEnv(env map[string]string) *OptionsLoader {
	return &OptionsLoader{lookup: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}
}
