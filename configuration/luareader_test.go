// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/flipstarterd/configuration"
)

type publishing struct {
	PreloadNodes []string `gluamapper:"preload_nodes"`
	RetryWait    string   `gluamapper:"retry_wait"`
	Retries      int      `gluamapper:"retries"`
}

type testConfiguration struct {
	DataDirectory string     `gluamapper:"data_directory"`
	Publishing    publishing `gluamapper:"publishing"`
}

const testLua = `
local M = {}
M.data_directory = arg[0]:match("(.*/)")
M.publishing = {
    preload_nodes = { "http://127.0.0.1:5001" },
    retry_wait = "5s",
    retries = 10,
}
return M
`

func TestParseConfigurationFile(t *testing.T) {
	dir := t.TempDir()
	fileName := filepath.Join(dir, "flipstarterd.conf")
	require.NoError(t, os.WriteFile(fileName, []byte(testLua), 0600))

	config := testConfiguration{}
	err := configuration.ParseConfigurationFile(fileName, &config)
	require.NoError(t, err, "parse error")

	assert.Equal(t, dir+"/", config.DataDirectory, "wrong data directory")
	assert.Equal(t, []string{"http://127.0.0.1:5001"}, config.Publishing.PreloadNodes, "wrong preload nodes")
	assert.Equal(t, "5s", config.Publishing.RetryWait, "wrong retry wait")
	assert.Equal(t, 10, config.Publishing.Retries, "wrong retries")
}

func TestParseConfigurationFileRejectsNonPointer(t *testing.T) {
	err := configuration.ParseConfigurationFile("unused.conf", testConfiguration{})
	assert.Error(t, err, "expected error for non pointer")
}

func TestParseConfigurationFileMissing(t *testing.T) {
	config := testConfiguration{}
	err := configuration.ParseConfigurationFile(filepath.Join(t.TempDir(), "none.conf"), &config)
	assert.Error(t, err, "expected error for missing file")
}

func TestParseDuration(t *testing.T) {
	d, err := configuration.ParseDuration("", time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	d, err = configuration.ParseDuration("10m", time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, 10*time.Minute, d)

	_, err = configuration.ParseDuration("-1s", time.Hour)
	assert.Error(t, err)

	_, err = configuration.ParseDuration("soon", time.Hour)
	assert.Error(t, err)
}
