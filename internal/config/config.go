package config

import (
	"os"
	"strconv"
)

type Config struct {
	Addr       string
	DBPath     string
	UploadsDir string
	SendBuffer int // per-connection outbound queue size
}

func Load() *Config {
	cfg := &Config{
		Addr:       "127.0.0.1:3000",
		DBPath:     "yapper.db",
		UploadsDir: "./uploads",
		SendBuffer: 16,
	}

	if addr := os.Getenv("YAPPER_ADDR"); addr != "" {
		cfg.Addr = addr
	}

	if dbPath := os.Getenv("YAPPER_DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	if dir := os.Getenv("YAPPER_UPLOADS_DIR"); dir != "" {
		cfg.UploadsDir = dir
	}

	if bufStr := os.Getenv("YAPPER_SEND_BUFFER"); bufStr != "" {
		if buf, err := strconv.Atoi(bufStr); err == nil && buf > 0 {
			cfg.SendBuffer = buf
		}
	}

	return cfg
}
