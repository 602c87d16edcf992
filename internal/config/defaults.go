package config

// Default returns a configuration populated with built-in defaults. Callers
// layer file values on top via Load.
func Default() Config {
	return Config{
		Paths: Paths{
			AssetRoot: "~/.local/share/audioservice/assets",
			DataDir:   "~/.local/share/audioservice",
			LogDir:    "~/.local/share/audioservice/logs",
			APIBind:   "127.0.0.1:8080",
		},
		FFmpeg: FFmpeg{
			Binary:         "ffmpeg",
			TimeoutSeconds: 120,
		},
		Logging: Logging{
			Format: "auto",
			Level:  "info",
		},
	}
}
