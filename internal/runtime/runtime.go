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

package runtime

import (
	"github.com/samber/do"

	"github.com/varlenahq/pg-datum-marshal/internal/catalogstore"
	"github.com/varlenahq/pg-datum-marshal/internal/logging"
	"github.com/varlenahq/pg-datum-marshal/internal/typemanager"
	spiconfig "github.com/varlenahq/pg-datum-marshal/spi/config"
	"github.com/varlenahq/pg-datum-marshal/spi/sidechannel"
)

// Runtime assembles the marshaling services behind a dependency
// injector. Services construct lazily on first request and tear down
// together on Shutdown.
type Runtime struct {
	logger   *logging.Logger
	injector *do.Injector
}

func NewRuntime(
	config *spiconfig.Config,
) (*Runtime, error) {

	logger, err := logging.NewLogger("Runtime")
	if err != nil {
		return nil, err
	}

	injector := do.New()

	do.ProvideValue(injector, config)

	do.Provide(injector, func(i *do.Injector) (sidechannel.SideChannel, error) {
		cfg := do.MustInvoke[*spiconfig.Config](i)
		store, err := catalogstore.OpenStore(cfg.Catalog.Snapshot)
		if err != nil {
			return nil, err
		}
		return store, nil
	})

	do.Provide(injector, func(i *do.Injector) (*typemanager.TypeManager, error) {
		sideChannel, err := do.Invoke[sidechannel.SideChannel](i)
		if err != nil {
			return nil, err
		}
		return typemanager.NewTypeManager(sideChannel)
	})

	return &Runtime{
		logger:   logger,
		injector: injector,
	}, nil
}

func (r *Runtime) SideChannel() (sidechannel.SideChannel, error) {
	return do.Invoke[sidechannel.SideChannel](r.injector)
}

func (r *Runtime) TypeManager() (*typemanager.TypeManager, error) {
	return do.Invoke[*typemanager.TypeManager](r.injector)
}

func (r *Runtime) Shutdown() error {
	r.logger.Infoln("shutting down marshaling runtime")
	return r.injector.Shutdown()
}
