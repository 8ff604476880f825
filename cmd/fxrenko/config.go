/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level operator configuration. Loaded from a YAML file
// with FXRENKO_* environment variable overrides for credentials.
type Config struct {
	SenderCompID string         `mapstructure:"sender_comp_id"`
	TargetCompID string         `mapstructure:"target_comp_id"`
	TargetSubID  string         `mapstructure:"target_sub_id"`
	Account      string         `mapstructure:"account"`
	Username     string         `mapstructure:"username"`
	Password     string         `mapstructure:"password"`
	HomeCurrency string         `mapstructure:"home_currency"`
	QuickFIX     QuickFIXConfig `mapstructure:"quickfix"`
	DB           DBConfig       `mapstructure:"db"`
	Symbols      []string       `mapstructure:"symbols"`
	Risk         RiskConfig     `mapstructure:"risk"`
}

// QuickFIXConfig holds the wire-level session settings handed to the
// quickfix initiator (heartbeat interval and socket target). The reconnect
// interval is not configurable here; buildQuickFIXSettings fixes it.
type QuickFIXConfig struct {
	SocketConnectHost string `mapstructure:"socket_connect_host"`
	SocketConnectPort int    `mapstructure:"socket_connect_port"`
	HeartBtInt        int    `mapstructure:"heart_bt_int"`
}

// DBConfig points at the sequence-store SQLite file.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// RiskConfig carries the default per-strategy risk budget.
type RiskConfig struct {
	MaxRiskPct float64 `mapstructure:"max_risk_pct"`
	MaxPipRisk int     `mapstructure:"max_pip_risk"`
}

// Load reads config from a YAML file with env var overrides for
// credentials, following the ambient configuration convention (viper
// confined to this package; every other package takes plain structs).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("FXRENKO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("quickfix.heart_bt_int", 30)
	v.SetDefault("db.path", "fxrenko.db")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if pw := os.Getenv("FXRENKO_PASSWORD"); pw != "" {
		cfg.Password = pw
	}
	if u := os.Getenv("FXRENKO_USERNAME"); u != "" {
		cfg.Username = u
	}

	return &cfg, nil
}

// Validate checks required fields before the engine attempts to connect.
func (c *Config) Validate() error {
	if c.SenderCompID == "" {
		return fmt.Errorf("sender_comp_id is required")
	}
	if c.TargetCompID == "" {
		return fmt.Errorf("target_comp_id is required")
	}
	if c.Account == "" {
		return fmt.Errorf("account is required")
	}
	if c.Username == "" {
		return fmt.Errorf("username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}
	if c.HomeCurrency == "" {
		return fmt.Errorf("home_currency is required")
	}
	if c.QuickFIX.SocketConnectHost == "" {
		return fmt.Errorf("quickfix.socket_connect_host is required")
	}
	if c.QuickFIX.SocketConnectPort == 0 {
		return fmt.Errorf("quickfix.socket_connect_port is required")
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	if c.Risk.MaxPipRisk <= 0 {
		return fmt.Errorf("risk.max_pip_risk must be positive")
	}
	return nil
}
