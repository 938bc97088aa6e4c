package config

const (
	defaultConfigPath          = "~/.config/roomcheck/config.toml"
	defaultDataDir             = "~/.local/share/roomcheck"
	defaultLogDir              = "~/.local/share/roomcheck/logs"
	defaultAPIBind             = "127.0.0.1:7490"
	defaultAppID               = "default-app-id"
	defaultStoreTimeoutSeconds = 10
	defaultWatchIntervalMillis = 500
	defaultSnapshotHistory     = 30
	// defaultDeletePassphrase is compared client-side only. It slows down an
	// accidental purge; it does not protect the data from anyone.
	defaultDeletePassphrase  = "8888"
	defaultMaxWidth          = 800
	defaultQuality           = 60
	defaultAnnotateQuality   = 70
	defaultMarkerRadius      = 50
	defaultMarkerStroke      = 8
	defaultMarkerColor       = "#EF4444"
	defaultReferenceWidth    = 800
	defaultMaxPixels         = 50_000_000
	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "google/gemini-2.5-flash"
	defaultLLMReferer        = "https://github.com/roomcheck/roomcheck"
	defaultLLMTitle          = "roomcheck"
	defaultLLMTimeoutSeconds = 20
	defaultLLMLanguage       = "zh-TW"
	defaultPropertyName      = "the hotel"
	defaultExportPrefix      = "Inspection"
	defaultExportTimezone    = "Asia/Taipei"
	defaultUnfilledLabel     = "未填寫"
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	envLLMAPIKey             = "ROOMCHECK_LLM_API_KEY"
	envLLMAPIKeyFallback     = "OPENROUTER_API_KEY"
	envAPIToken              = "ROOMCHECK_API_TOKEN"
	envAuthToken             = "ROOMCHECK_AUTH_TOKEN"
	envAppID                 = "ROOMCHECK_APP_ID"
	envDeletePassphrase      = "ROOMCHECK_DELETE_PASSPHRASE"
	envNtfyTopic             = "ROOMCHECK_NTFY_TOPIC"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Store: Store{
			AppID:                 defaultAppID,
			TimeoutSeconds:        defaultStoreTimeoutSeconds,
			WatchIntervalMillis:   defaultWatchIntervalMillis,
			RoomRegistryEnforced:  true,
			DeletePassphrase:      defaultDeletePassphrase,
			SnapshotHistoryLength: defaultSnapshotHistory,
		},
		Imaging: Imaging{
			MaxWidth:        defaultMaxWidth,
			Quality:         defaultQuality,
			AnnotateQuality: defaultAnnotateQuality,
			MarkerRadius:    defaultMarkerRadius,
			MarkerStroke:    defaultMarkerStroke,
			MarkerColor:     defaultMarkerColor,
			ReferenceWidth:  defaultReferenceWidth,
			MaxPixels:       defaultMaxPixels,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			Language:       defaultLLMLanguage,
			PropertyName:   defaultPropertyName,
		},
		Export: Export{
			FilenamePrefix: defaultExportPrefix,
			Timezone:       defaultExportTimezone,
			UnfilledLabel:  defaultUnfilledLabel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Severe:         true,
			Purge:          true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
