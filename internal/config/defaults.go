package config

const (
	defaultArchiveDir              = "~/curator/archive"
	defaultStateDir                = "~/.local/share/curator"
	defaultLogDir                  = "~/.local/share/curator/logs"
	defaultToolBinary              = "yt-dlp"
	defaultScanLimit               = 10
	defaultToolTimeoutSeconds      = 60
	defaultPrimaryLanguage         = "zh"
	defaultSecondaryLanguage       = "en"
	defaultAttemptTimeoutSeconds   = 120
	defaultTranscriptAPIBaseURL    = "https://api.bibigpt.co/api/v1"
	defaultTranscriptAPITimeout    = 180
	defaultTranscriptAPIMaxRetries = 3
	defaultTranscriptAPIRetryDelay = 5
	defaultRewriteBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultRewriteModel            = "google/gemini-3-flash-preview"
	defaultRewriteReferer          = "https://github.com/curator"
	defaultRewriteTitle            = "Curator Rewrite"
	defaultRewriteTimeoutSeconds   = 180
	defaultRewriteMaxInputRunes    = 60000
	defaultFeishuBaseURL           = "https://open.feishu.cn/open-apis"
	defaultFeishuRequestsPerSecond = 4
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

var defaultPaidFallbackPlatforms = []string{"bilibili", "xiaoyuzhou"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ArchiveDir: defaultArchiveDir,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		Scan: Scan{
			ToolBinary:         defaultToolBinary,
			Limit:              defaultScanLimit,
			ToolTimeoutSeconds: defaultToolTimeoutSeconds,
		},
		Subtitles: Subtitles{
			PrimaryLanguage:       defaultPrimaryLanguage,
			SecondaryLanguage:     defaultSecondaryLanguage,
			AttemptTimeoutSeconds: defaultAttemptTimeoutSeconds,
			PaidFallbackPlatforms: append([]string(nil), defaultPaidFallbackPlatforms...),
			FetchCover:            true,
		},
		TranscriptAPI: TranscriptAPI{
			BaseURL:           defaultTranscriptAPIBaseURL,
			TimeoutSeconds:    defaultTranscriptAPITimeout,
			MaxRetries:        defaultTranscriptAPIMaxRetries,
			RetryDelaySeconds: defaultTranscriptAPIRetryDelay,
		},
		Rewrite: Rewrite{
			BaseURL:        defaultRewriteBaseURL,
			Model:          defaultRewriteModel,
			Referer:        defaultRewriteReferer,
			Title:          defaultRewriteTitle,
			TimeoutSeconds: defaultRewriteTimeoutSeconds,
			MaxInputRunes:  defaultRewriteMaxInputRunes,
		},
		Feishu: Feishu{
			BaseURL:           defaultFeishuBaseURL,
			RequestsPerSecond: defaultFeishuRequestsPerSecond,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
