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
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"mynewt.apache.org/newt/util"

	"github.com/abgp/blemgr/blemgr/bmutil"
	"github.com/abgp/blemgr/blexact/bledefs"
	"github.com/abgp/blemgr/blexact/bll"
	"github.com/abgp/blemgr/blexact/ctlr"
	"github.com/abgp/blemgr/blexact/mock"
	"github.com/abgp/blemgr/blexact/platform"
)

type BleConfig struct {
	CtlrName string
	HciIdx   int

	// Scan window and connection timeout, in seconds.
	ScanPeriod  float64
	ConnTimeout float64

	ScanDups bool
	Grants   map[bledefs.Permission]bool

	// Simulated peripherals (sim connections only), address to name.
	SimDevices map[string]string
}

func NewBleConfig() *BleConfig {
	return &BleConfig{
		ScanPeriod:  float64(bledefs.BLE_SCAN_PERIOD_DFLT_MS) / 1000.0,
		ConnTimeout: 10.0,
		Grants:      bledefs.AllPermissions(),
		SimDevices:  map[string]string{},
	}
}

func einvalConnString(f string, args ...interface{}) error {
	suffix := fmt.Sprintf(f, args...)
	return util.FmtNewtError("Invalid BLE connstring; %s", suffix)
}

// Parses "addr/name;addr/name".  A missing name leaves the device unnamed.
func parseSimDevices(v string) (map[string]string, error) {
	devs := map[string]string{}

	for _, tok := range strings.Split(v, ";") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		parts := strings.SplitN(tok, "/", 2)
		ba, err := bledefs.ParseBleAddr(parts[0])
		if err != nil {
			return nil, err
		}

		name := ""
		if len(parts) == 2 {
			name = parts[1]
		}
		devs[ba.String()] = name
	}

	return devs, nil
}

func ParseBleConnString(cs string) (*BleConfig, error) {
	bc := NewBleConfig()
	bc.HciIdx = bmutil.HciIdx

	if strings.TrimSpace(cs) == "" {
		return bc, nil
	}

	parts := strings.Split(cs, ",")
	for _, p := range parts {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			return nil, einvalConnString("expected comma-separated "+
				"key=value pairs; no '=' in: %s", p)
		}

		k := strings.TrimSpace(kv[0])
		v := strings.TrimSpace(kv[1])

		var err error
		switch k {
		case "ctlr_name":
			bc.CtlrName = v

		case "hci":
			bc.HciIdx, err = cast.ToIntE(v)
			if err != nil || bc.HciIdx < 0 {
				return nil, einvalConnString("Invalid hci: %s", v)
			}

		case "scan_period":
			bc.ScanPeriod, err = cast.ToFloat64E(v)
			if err != nil || bc.ScanPeriod <= 0 {
				return nil, einvalConnString("Invalid scan_period: %s", v)
			}

		case "conn_timeout":
			bc.ConnTimeout, err = cast.ToFloat64E(v)
			if err != nil || bc.ConnTimeout <= 0 {
				return nil, einvalConnString("Invalid conn_timeout: %s", v)
			}

		case "scan_dups":
			bc.ScanDups, err = cast.ToBoolE(v)
			if err != nil {
				return nil, einvalConnString("Invalid scan_dups: %s", v)
			}

		case "grant":
			bc.Grants, err = bledefs.ParsePermissions(v)
			if err != nil {
				return nil, einvalConnString("Invalid grant: %s", v)
			}

		case "sim_devices":
			bc.SimDevices, err = parseSimDevices(v)
			if err != nil {
				return nil, einvalConnString("Invalid sim_devices: %s", v)
			}

		default:
			return nil, einvalConnString("Unrecognized key: %s", k)
		}
	}

	return bc, nil
}

func secsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

func BuildCtlrCfg(bc *BleConfig) ctlr.Cfg {
	cfg := ctlr.NewCfg()
	cfg.ScanPeriod = secsToDuration(bc.ScanPeriod)
	if d := bmutil.ScanPeriodDuration(); d > 0 {
		cfg.ScanPeriod = d
	}

	return cfg
}

func BuildBllAdapterCfg(bc *BleConfig) bll.AdapterCfg {
	cfg := bll.NewAdapterCfg()
	if bc.CtlrName != "" {
		cfg.CtlrName = bc.CtlrName
	}
	cfg.HciIdx = bc.HciIdx
	cfg.ConnTimeout = secsToDuration(bc.ConnTimeout)
	cfg.ScanDuplicates = bc.ScanDups
	cfg.Grants = bc.Grants

	return cfg
}

func BuildMockCfg(bc *BleConfig) mock.Cfg {
	cfg := mock.NewCfg()
	cfg.Auto = true
	for addr, name := range bc.SimDevices {
		cfg.Devices[addr] = name
	}

	return cfg
}

// BuildAdapter creates the platform adapter a connection profile describes.
// The adapter is not started.
func BuildAdapter(cp *ConnProfile) (platform.Adapter, *BleConfig, error) {
	bc, err := ParseBleConnString(cp.ConnString)
	if err != nil {
		return nil, nil, err
	}

	switch cp.Type {
	case CONN_TYPE_BLE:
		return bll.NewAdapter(BuildBllAdapterCfg(bc)), bc, nil

	case CONN_TYPE_SIM:
		ma := mock.NewAdapter(BuildMockCfg(bc))
		for _, p := range []bledefs.Permission{
			bledefs.PERM_SCAN, bledefs.PERM_CONNECT} {

			ma.SetPermission(p, bc.Grants[p])
		}
		return ma, bc, nil

	default:
		return nil, nil, util.FmtNewtError(
			"Unknown connection type: %s (%d)",
			ConnTypeToString(cp.Type), int(cp.Type))
	}
}
