package config

const (
	defaultBaseURL           = "https://drive-pc.quark.cn/1/clouddrive"
	defaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36"
	defaultRequestTimeout    = 30
	defaultTargetDirectory   = "/"
	defaultItemDelayMS       = 200
	defaultRetryDelayMS      = 800
	defaultSettleWaitSeconds = 5
	defaultLogDir            = "~/.local/share/quark/logs"
	defaultDataDir           = "~/.local/share/quark"
	defaultHistoryKeep       = 200
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Drive: Drive{
			BaseURL:        defaultBaseURL,
			UserAgent:      defaultUserAgent,
			RequestTimeout: defaultRequestTimeout,
		},
		Pipeline: Pipeline{
			TargetDirectory:   defaultTargetDirectory,
			ItemDelayMS:       defaultItemDelayMS,
			RetryDelayMS:      defaultRetryDelayMS,
			SettleWaitSeconds: defaultSettleWaitSeconds,
		},
		Paths: Paths{
			LogDir:  defaultLogDir,
			DataDir: defaultDataDir,
		},
		History: History{
			Enabled: true,
			Keep:    defaultHistoryKeep,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
