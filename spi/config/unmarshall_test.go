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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_Unmarshall_Toml(t *testing.T) {
	content := `
[catalog.snapshot]
path = "/var/lib/pgdm/catalog.snap"
retryinitialinterval = 25000000
retrymaxelapsedtime = 2000000000

[logging]
level = "debug"

[logging.loggers.TypeManager]
level = "trace"
`

	config := &Config{}
	err := Unmarshall([]byte(content), config, true)
	assert.Nil(t, err)
	assert.Equal(t, "/var/lib/pgdm/catalog.snap", config.Catalog.Snapshot.Path)
	assert.Equal(t, 25*time.Millisecond, config.Catalog.Snapshot.RetryInitialInterval)
	assert.Equal(t, 2*time.Second, config.Catalog.Snapshot.RetryMaxElapsedTime)
	assert.Equal(t, "debug", config.Logging.Level)

	subLogger, present := config.Logging.Loggers["TypeManager"]
	assert.True(t, present)
	assert.NotNil(t, subLogger.Level)
	assert.Equal(t, "trace", *subLogger.Level)
}

func Test_Unmarshall_Yaml(t *testing.T) {
	content := `
catalog:
  snapshot:
    path: /var/lib/pgdm/catalog.snap
    retrymaxelapsedtime: 500000000
logging:
  level: info
  output:
    console:
      enabled: true
`

	config := &Config{}
	err := Unmarshall([]byte(content), config, false)
	assert.Nil(t, err)
	assert.Equal(t, "/var/lib/pgdm/catalog.snap", config.Catalog.Snapshot.Path)
	assert.Equal(t, 500*time.Millisecond, config.Catalog.Snapshot.RetryMaxElapsedTime)
	assert.Equal(t, "info", config.Logging.Level)
	assert.NotNil(t, config.Logging.Outputs.Console.Enabled)
	assert.True(t, *config.Logging.Outputs.Console.Enabled)
}
