package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	App struct {
		LogLevel string `toml:"log_level"`
		DBPath   string `toml:"db_path"`
	} `toml:"app"`

	Store struct {
		// sqlite 或 postgres
		Backend     string `toml:"backend"`
		PostgresDSN string `toml:"postgres_dsn"`
	} `toml:"store"`

	Redis struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
		Prefix  string `toml:"prefix"`
		TTLSec  int    `toml:"ttl_sec"`
		PubChan string `toml:"pub_chan"`
	} `toml:"redis"`

	Sync struct {
		Enabled  bool   `toml:"enabled"`
		URL      string `toml:"url"`
		Password string `toml:"password"`
	} `toml:"sync"`

	Feeds struct {
		Binance struct {
			WsURL   string `toml:"ws_url"`
			RestURL string `toml:"rest_url"`
		} `toml:"binance"`

		OKX struct {
			WsURL string `toml:"ws_url"`
		} `toml:"okx"`

		Bitget struct {
			WsURL string `toml:"ws_url"`
		} `toml:"bitget"`

		MEXC struct {
			RestURL string `toml:"rest_url"`
		} `toml:"mexc"`

		Alpha struct {
			ListURL string `toml:"list_url"`
		} `toml:"alpha"`

		Meme struct {
			RestURL string `toml:"rest_url"`
		} `toml:"meme"`

		Stock struct {
			RestURL string `toml:"rest_url"`
		} `toml:"stock"`

		Metal struct {
			RestURL string `toml:"rest_url"`
			APIBase string `toml:"api_base"`
			APIKey  string `toml:"api_key"`
		} `toml:"metal"`
	} `toml:"feeds"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.App.LogLevel) == "" {
		cfg.App.LogLevel = "info"
	}
	if strings.TrimSpace(cfg.App.DBPath) == "" {
		cfg.App.DBPath = "data/tickboard.db"
	}
	if strings.TrimSpace(cfg.Store.Backend) == "" {
		cfg.Store.Backend = "sqlite"
	}
	if strings.TrimSpace(cfg.Redis.Prefix) == "" {
		cfg.Redis.Prefix = "tickboard"
	}
	if cfg.Redis.TTLSec <= 0 {
		cfg.Redis.TTLSec = 300
	}

	f := &cfg.Feeds
	if strings.TrimSpace(f.Binance.WsURL) == "" {
		f.Binance.WsURL = "wss://stream.binance.com:9443"
	}
	if strings.TrimSpace(f.Binance.RestURL) == "" {
		f.Binance.RestURL = "https://api.binance.com"
	}
	if strings.TrimSpace(f.OKX.WsURL) == "" {
		f.OKX.WsURL = "wss://ws.okx.com:8443/ws/v5/public"
	}
	if strings.TrimSpace(f.Bitget.WsURL) == "" {
		f.Bitget.WsURL = "wss://ws.bitget.com/v2/ws/public"
	}
	if strings.TrimSpace(f.MEXC.RestURL) == "" {
		f.MEXC.RestURL = "https://api.mexc.com"
	}
	if strings.TrimSpace(f.Alpha.ListURL) == "" {
		f.Alpha.ListURL = "https://www.binance.com/bapi/defi/v1/public/wallet-direct/buw/wallet/cex/alpha/all/token/list"
	}
	if strings.TrimSpace(f.Meme.RestURL) == "" {
		f.Meme.RestURL = "https://api.geckoterminal.com"
	}
	if strings.TrimSpace(f.Stock.RestURL) == "" {
		f.Stock.RestURL = "https://qt.gtimg.cn"
	}
	if strings.TrimSpace(f.Metal.RestURL) == "" {
		f.Metal.RestURL = f.Binance.RestURL
	}
	if strings.TrimSpace(f.Metal.APIBase) == "" {
		f.Metal.APIBase = "https://www.goldapi.io/api"
	}
}

func validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case "sqlite":
	case "postgres":
		if strings.TrimSpace(cfg.Store.PostgresDSN) == "" {
			return errors.New("store.postgres_dsn empty but backend is postgres")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", cfg.Store.Backend)
	}

	if cfg.Redis.Enabled && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return errors.New("redis.addr empty but enabled")
	}
	if cfg.Sync.Enabled {
		if strings.TrimSpace(cfg.Sync.URL) == "" {
			return errors.New("sync.url empty but enabled")
		}
		if strings.TrimSpace(cfg.Sync.Password) == "" {
			return errors.New("sync.password empty but enabled")
		}
	}
	return nil
}
