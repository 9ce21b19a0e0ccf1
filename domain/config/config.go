package config

import "time"

// Config represents the structure of config.yml used by the tool.
type Config struct {
	Data struct {
		Path        string        `yaml:"path"`
		DateLayouts []string      `yaml:"date_layouts"`
		Watch       bool          `yaml:"watch"`
		RemoteTTL   time.Duration `yaml:"remote_ttl"`
	} `yaml:"data"`
	Web struct {
		Addr            string `yaml:"addr"`
		ExportCacheSize int    `yaml:"export_cache_size"`
	} `yaml:"web"`
	Remote Remote `yaml:"remote"`
	Log    struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Remote configures fetching the task CSV over HTTP when data.path is a URL.
// Token is sent as a static bearer token; OAuth2 takes precedence when ClientID is set.
type Remote struct {
	Token  string `yaml:"token"`
	OAuth2 struct {
		ClientID     string   `yaml:"client_id"`
		ClientSecret string   `yaml:"client_secret"`
		TokenURL     string   `yaml:"token_url"`
		Scopes       []string `yaml:"scopes"`
	} `yaml:"oauth2"`
}
