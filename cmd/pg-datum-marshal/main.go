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

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli"

	"github.com/varlenahq/pg-datum-marshal/internal/catalogstore"
	"github.com/varlenahq/pg-datum-marshal/internal/logging"
	"github.com/varlenahq/pg-datum-marshal/internal/runtime"
	"github.com/varlenahq/pg-datum-marshal/internal/version"
	spiconfig "github.com/varlenahq/pg-datum-marshal/spi/config"
	"github.com/varlenahq/pg-datum-marshal/spi/memory"
)

var (
	configurationFile string
	verbose           bool
	withCaller        bool
	logToStdErr       bool

	typeOid  uint
	modifier int
	withMod  bool
)

func main() {
	app := &cli.App{
		Name:    "pg-datum-marshal",
		Usage:   "Decode PostgreSQL binary datums against a catalog snapshot",
		Version: fmt.Sprintf("%s (git revision %s; branch %s)", version.Version, version.CommitHash, version.Branch),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config,c",
				Value:       "",
				Usage:       "Load configuration from `FILE`",
				Destination: &configurationFile,
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Usage:       "Show verbose output",
				Destination: &verbose,
			},
			&cli.BoolFlag{
				Name:        "caller",
				Usage:       "Collect caller information for log messages",
				Destination: &withCaller,
			},
			&cli.BoolFlag{
				Name:        "log-to-stderr",
				Usage:       "Redirects logging output to stderr",
				Destination: &logToStdErr,
			},
		},
		Commands: []cli.Command{
			{
				Name:      "decode",
				Usage:     "Decode a hex encoded binary datum of the given type",
				ArgsUsage: "HEXDATA",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:        "type,t",
						Usage:       "pg_type oid of the datum",
						Required:    true,
						Destination: &typeOid,
					},
					&cli.IntFlag{
						Name:        "modifier,m",
						Usage:       "explicit type modifier",
						Value:       -1,
						Destination: &modifier,
					},
				},
				Action: decodeDatum,
			},
			{
				Name:      "inspect",
				Usage:     "Print the derived attributes of a type",
				ArgsUsage: "OID",
				Action:    inspectType,
			},
			{
				Name:   "catalog",
				Usage:  "List the classes contained in the catalog snapshot",
				Action: dumpCatalog,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup() (*runtime.Runtime, error) {
	logging.WithCaller = withCaller
	logging.WithVerbose = verbose

	config := &spiconfig.Config{}

	if configurationFile == "" {
		if cf, present := os.LookupEnv("PG_DATUM_MARSHAL_CONFIG"); present {
			fmt.Fprintf(os.Stderr, "Using configuration file from environment variable\n")
			configurationFile = cf
		}
	}

	if configurationFile != "" {
		f, err := os.Open(configurationFile)
		if err != nil {
			return nil, cli.NewExitError(fmt.Sprintf("Configuration file couldn't be opened: %v\n", err), 3)
		}

		b, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, cli.NewExitError(fmt.Sprintf("Configuration file couldn't be read: %v\n", err), 4)
		}

		tomlConfig := filepath.Ext(strings.ToLower(configurationFile)) == ".toml"
		if err := spiconfig.Unmarshall(b, config, tomlConfig); err != nil {
			return nil, cli.NewExitError(fmt.Sprintf("Configuration file couldn't be decoded: %v\n", err), 5)
		}
	}

	if err := logging.InitializeLogging(config, logToStdErr); err != nil {
		return nil, err
	}

	if config.Catalog.Snapshot.Path == "" {
		return nil, cli.NewExitError("Catalog snapshot path required", 6)
	}

	return runtime.NewRuntime(config)
}

func decodeDatum(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("decode expects exactly one hex argument", 2)
	}

	raw, err := hex.DecodeString(
		strings.TrimPrefix(ctx.Args().First(), "\\x"),
	)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("Invalid hex input: %v", err), 2)
	}

	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Shutdown()

	typeManager, err := rt.TypeManager()
	if err != nil {
		return err
	}

	typeDescriptor := typeManager.Type(uint32(typeOid))
	if modifier >= 0 {
		typeDescriptor = typeManager.TypeWithModifier(uint32(typeOid), int32(modifier))
	}

	value, err := typeManager.Decode(
		typeDescriptor, memory.NewBuffer(nil, raw),
	)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{
		"type":  typeDescriptor.Name(),
		"oid":   typeDescriptor.Oid(),
		"value": value,
	})
}

func inspectType(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.NewExitError("inspect expects exactly one oid argument", 2)
	}
	oid, err := strconv.ParseUint(ctx.Args().First(), 10, 32)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("Invalid oid: %v", err), 2)
	}

	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Shutdown()

	typeManager, err := rt.TypeManager()
	if err != nil {
		return err
	}

	typeDescriptor := typeManager.Type(uint32(oid))
	length, err := typeDescriptor.Length()
	if err != nil {
		return err
	}
	byValue, err := typeDescriptor.ByValue()
	if err != nil {
		return err
	}
	alignment, err := typeDescriptor.Alignment()
	if err != nil {
		return err
	}

	report := map[string]any{
		"oid":       typeDescriptor.Oid(),
		"name":      typeDescriptor.Name(),
		"namespace": typeDescriptor.Namespace(),
		"kind":      string(typeDescriptor.Kind()),
		"length":    length,
		"byvalue":   byValue,
		"alignment": string(alignment),
		"isarray":   typeDescriptor.IsArray(),
	}
	if typeDescriptor.OidElement() != 0 {
		report["element"] = typeDescriptor.OidElement()
	}
	return printJSON(report)
}

func dumpCatalog(_ *cli.Context) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.Shutdown()

	sideChannel, err := rt.SideChannel()
	if err != nil {
		return err
	}

	store, ok := sideChannel.(*catalogstore.Store)
	if !ok {
		return cli.NewExitError("Side channel isn't snapshot backed", 7)
	}

	classes, err := store.Describe()
	if err != nil {
		return err
	}
	return printJSON(classes)
}

func printJSON(value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
