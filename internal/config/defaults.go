package config

const (
	BackendHTTP   = "http"
	BackendLocal  = "local"
	BackendStatic = "static"
)

const (
	defaultConfigPath     = "~/.config/tutorialpub/config.toml"
	defaultTutorialsDir   = "./tutorials"
	defaultLogDir         = "~/.local/share/tutorialpub/logs"
	defaultWorkers        = 2
	defaultManifestName   = "tutorial.lock.json"
	defaultStorageURL     = "https://arweave.net"
	defaultAppName        = "tutorialpub"
	defaultStorageDir     = "~/.local/share/tutorialpub/objects"
	defaultMetadataDir    = "~/.local/share/tutorialpub/documents"
	defaultStaticState    = "readyToPublish"
	defaultHistoryPath    = "~/.local/share/tutorialpub/history.db"
	defaultRequestTimeout = 60
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

var defaultImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			TutorialsDir: defaultTutorialsDir,
			LogDir:       defaultLogDir,
		},
		Publish: Publish{
			Workers:         defaultWorkers,
			ManifestName:    defaultManifestName,
			ImageExtensions: append([]string(nil), defaultImageExtensions...),
		},
		Storage: Storage{
			Backend:        BackendHTTP,
			URL:            defaultStorageURL,
			AppName:        defaultAppName,
			LocalDir:       defaultStorageDir,
			RequestTimeout: defaultRequestTimeout,
		},
		Metadata: Metadata{
			Backend:        BackendHTTP,
			LocalDir:       defaultMetadataDir,
			RequestTimeout: defaultRequestTimeout,
		},
		Proposals: Proposals{
			Backend:        BackendHTTP,
			StaticState:    defaultStaticState,
			RequestTimeout: defaultRequestTimeout,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
