/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"time"
)

type Config struct {
	Catalog CatalogConfig `toml:"catalog" yaml:"catalog"`
	Logging LoggerConfig  `toml:"logging" yaml:"logging"`
}

type CatalogConfig struct {
	Snapshot SnapshotConfig `toml:"snapshot" yaml:"snapshot"`
}

type SnapshotConfig struct {
	Path string `toml:"path" yaml:"path"`

	// Retry behavior when a snapshot file is atomically replaced
	// while a reader holds it open.
	RetryInitialInterval time.Duration `toml:"retryinitialinterval" yaml:"retryinitialinterval"`
	RetryMaxElapsedTime  time.Duration `toml:"retrymaxelapsedtime" yaml:"retrymaxelapsedtime"`
}

type LoggerConfig struct {
	Level   string                     `toml:"level" yaml:"level"`
	Outputs LoggerOutputConfig         `toml:"output" yaml:"output"`
	Loggers map[string]SubLoggerConfig `toml:"loggers" yaml:"loggers"`
}

type LoggerOutputConfig struct {
	Console LoggerConsoleConfig `toml:"console" yaml:"console"`
	File    LoggerFileConfig    `toml:"file" yaml:"file"`
}

type SubLoggerConfig struct {
	Level   *string            `toml:"level" yaml:"level"`
	Outputs LoggerOutputConfig `toml:"output" yaml:"output"`
}

type LoggerConsoleConfig struct {
	Enabled *bool `toml:"enabled" yaml:"enabled"`
}

type LoggerFileConfig struct {
	Enabled     *bool          `toml:"enabled" yaml:"enabled"`
	Path        string         `toml:"path" yaml:"path"`
	Rotate      *bool          `toml:"rotate" yaml:"rotate"`
	MaxSize     *string        `toml:"maxsize" yaml:"maxsize"`
	MaxDuration *time.Duration `toml:"maxduration" yaml:"maxduration"`
	Compress    bool           `toml:"compress" yaml:"compress"`
}
