/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abgp/blemgr/blexact/bledefs"
	"github.com/abgp/blemgr/blexact/bll"
	"github.com/abgp/blemgr/blexact/mock"
)

func TestParseBleConnStringDefaults(t *testing.T) {
	bc, err := ParseBleConnString("")
	require.NoError(t, err)

	assert.Equal(t, 10.0, bc.ScanPeriod)
	assert.Equal(t, 10.0, bc.ConnTimeout)
	assert.Equal(t, bledefs.AllPermissions(), bc.Grants)
	assert.Empty(t, bc.SimDevices)
}

func TestParseBleConnString(t *testing.T) {
	bc, err := ParseBleConnString("ctlr_name=hci1, hci=1,scan_period=2.5," +
		"conn_timeout=3,scan_dups=true,grant=scan," +
		"sim_devices=aa:bb:cc:dd:ee:01/left;AA:BB:CC:DD:EE:02")
	require.NoError(t, err)

	assert.Equal(t, "hci1", bc.CtlrName)
	assert.Equal(t, 1, bc.HciIdx)
	assert.Equal(t, 2.5, bc.ScanPeriod)
	assert.Equal(t, 3.0, bc.ConnTimeout)
	assert.True(t, bc.ScanDups)
	assert.Equal(t, map[bledefs.Permission]bool{bledefs.PERM_SCAN: true},
		bc.Grants)
	assert.Equal(t, map[string]string{
		"AA:BB:CC:DD:EE:01": "left",
		"AA:BB:CC:DD:EE:02": "",
	}, bc.SimDevices)
}

func TestParseBleConnStringInvalid(t *testing.T) {
	bad := []string{
		"ctlr_name",
		"bogus=1",
		"hci=-1",
		"hci=x",
		"scan_period=0",
		"conn_timeout=abc",
		"scan_dups=maybe",
		"grant=fly",
		"sim_devices=aa:bb",
	}

	for _, cs := range bad {
		_, err := ParseBleConnString(cs)
		assert.Error(t, err, cs)
	}
}

func TestBuildCfgs(t *testing.T) {
	bc, err := ParseBleConnString("ctlr_name=hci1,scan_period=0.5," +
		"conn_timeout=2")
	require.NoError(t, err)

	cc := BuildCtlrCfg(bc)
	assert.Equal(t, 500*time.Millisecond, cc.ScanPeriod)

	ac := BuildBllAdapterCfg(bc)
	assert.Equal(t, "hci1", ac.CtlrName)
	assert.Equal(t, 2*time.Second, ac.ConnTimeout)
}

func TestBuildAdapter(t *testing.T) {
	a, _, err := BuildAdapter(&ConnProfile{
		Type:       CONN_TYPE_SIM,
		ConnString: "grant=connect,sim_devices=aa:bb:cc:dd:ee:01/left",
	})
	require.NoError(t, err)

	ma, ok := a.(*mock.Adapter)
	require.True(t, ok)
	assert.False(t, ma.HasPermission(bledefs.PERM_SCAN))
	assert.True(t, ma.HasPermission(bledefs.PERM_CONNECT))

	dev, err := ma.ResolveDevice("aa:bb:cc:dd:ee:01")
	require.NoError(t, err)
	assert.Equal(t, "left", dev.Name())

	a, _, err = BuildAdapter(&ConnProfile{Type: CONN_TYPE_BLE})
	require.NoError(t, err)
	_, ok = a.(*bll.Adapter)
	assert.True(t, ok)

	_, _, err = BuildAdapter(&ConnProfile{Type: CONN_TYPE_NONE})
	assert.Error(t, err)
}

func TestConnProfileMgr(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "cp.json")

	cpm, err := NewConnProfileMgrAt(filename)
	require.NoError(t, err)
	assert.Empty(t, cpm.GetConnProfileList())

	require.NoError(t, cpm.AddConnProfile(&ConnProfile{
		Name: "sim0", Type: CONN_TYPE_SIM, ConnString: "grant=scan",
	}))
	require.NoError(t, cpm.AddConnProfile(&ConnProfile{
		Name: "a", Type: CONN_TYPE_BLE,
	}))
	assert.Error(t, cpm.AddConnProfile(&ConnProfile{Name: "untyped"}))

	// Reload from disk.
	cpm, err = NewConnProfileMgrAt(filename)
	require.NoError(t, err)

	list := cpm.GetConnProfileList()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, CONN_TYPE_BLE, list[0].Type)
	assert.Equal(t, "sim0", list[1].Name)
	assert.Equal(t, "grant=scan", list[1].ConnString)

	require.NoError(t, cpm.DeleteConnProfile("a"))
	assert.Error(t, cpm.DeleteConnProfile("a"))
	_, err = cpm.GetConnProfile("a")
	assert.Error(t, err)
}

func TestResolveConnProfile(t *testing.T) {
	cpm, err := NewConnProfileMgrAt(filepath.Join(t.TempDir(), "cp.json"))
	require.NoError(t, err)
	require.NoError(t, cpm.AddConnProfile(&ConnProfile{
		Name: "sim0", Type: CONN_TYPE_SIM, ConnString: "grant=scan",
	}))

	cp, err := cpm.ResolveConnProfile("sim0", "", "", "hci=1")
	require.NoError(t, err)
	assert.Equal(t, "grant=scan,hci=1", cp.ConnString)

	// The stored profile is untouched.
	stored, err := cpm.GetConnProfile("sim0")
	require.NoError(t, err)
	assert.Equal(t, "grant=scan", stored.ConnString)

	cp, err = cpm.ResolveConnProfile("", "ble", "ctlr_name=x", "")
	require.NoError(t, err)
	assert.Equal(t, CONN_TYPE_BLE, cp.Type)
	assert.Equal(t, "ctlr_name=x", cp.ConnString)

	_, err = cpm.ResolveConnProfile("", "", "", "")
	assert.Error(t, err)

	_, err = cpm.ResolveConnProfile("", "serial", "", "")
	assert.Error(t, err)
}

func TestConnTypeJSON(t *testing.T) {
	ct, err := ConnTypeFromString("sim")
	require.NoError(t, err)
	assert.Equal(t, CONN_TYPE_SIM, ct)

	b, err := ct.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"sim"`, string(b))

	_, err = ConnTypeFromString("???")
	assert.Error(t, err)
}

func TestDeleteConnProfiles(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "cp.json")
	cpm, err := NewConnProfileMgrAt(filename)
	require.NoError(t, err)

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, cpm.AddConnProfile(&ConnProfile{
			Name: name, Type: CONN_TYPE_SIM,
		}))
	}

	// An unknown name leaves everything in place.
	assert.Error(t, cpm.DeleteConnProfiles("a", "zzz"))
	assert.Len(t, cpm.GetConnProfileList(), 3)

	require.NoError(t, cpm.DeleteConnProfiles("a", "c"))

	cpm, err = NewConnProfileMgrAt(filename)
	require.NoError(t, err)
	list := cpm.GetConnProfileList()
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].Name)
}
