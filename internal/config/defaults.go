package config

const (
	defaultConfigPath         = "~/.config/autocollect/config.toml"
	defaultStateDirFallback   = "~/.local/state/autocollect"
	defaultClientName         = "autocollect"
	defaultPlexTimeoutSeconds = 30
	defaultAuthMaxAttempts    = 3
	defaultRulesDir           = "."
	defaultCollectionsFile    = "collections.yml"
	defaultCollectionsDir     = "collections.d"
	defaultActorsDir          = "actors.d"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Plex: Plex{
			ClientName:     defaultClientName,
			TimeoutSeconds: defaultPlexTimeoutSeconds,
		},
		Auth: Auth{
			MaxAttempts: defaultAuthMaxAttempts,
		},
		Rules: Rules{
			Dir:             defaultRulesDir,
			CollectionsFile: defaultCollectionsFile,
			CollectionsDir:  defaultCollectionsDir,
			ActorsDir:       defaultActorsDir,
		},
		Paths: Paths{
			StateDir: defaultStateDir(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
