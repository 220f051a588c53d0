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

package bll

import (
	"context"
	"fmt"
	"sync"

	"github.com/JuulLabs-OSS/ble"
	"github.com/JuulLabs-OSS/ble/examples/lib/dev"
	log "github.com/sirupsen/logrus"

	"github.com/abgp/blemgr/blexact/bledefs"
	"github.com/abgp/blemgr/blexact/bmxutil"
	"github.com/abgp/blemgr/blexact/platform"
)

type device struct {
	addr string
}

func (d *device) Address() string { return d.addr }
func (d *device) Name() string    { return "" }

// A platform adapter that uses the host machine's native BLE support.
type Adapter struct {
	cfg AdapterCfg

	mtx        sync.Mutex
	started    bool
	scanCancel context.CancelFunc
	scanDone   chan struct{}
}

func NewAdapter(cfg AdapterCfg) *Adapter {
	if cfg.Grants == nil {
		cfg.Grants = bledefs.AllPermissions()
	}

	return &Adapter{
		cfg: cfg,
	}
}

func (a *Adapter) Start() error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if a.started {
		return fmt.Errorf("BLE adapter already started")
	}

	d, err := dev.NewDevice(a.cfg.CtlrName, ble.OptDeviceID(a.cfg.HciIdx))
	if err != nil {
		return err
	}

	if err := setConnParams(d); err != nil {
		log.Warnf("%s", err.Error())
	}

	ble.SetDefaultDevice(d)
	a.started = true

	return nil
}

func (a *Adapter) Stop() error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if !a.started {
		return nil
	}

	a.stopScanNoLock()

	a.started = false
	return ble.Stop()
}

func (a *Adapter) HasPermission(p bledefs.Permission) bool {
	return a.cfg.Grants[p]
}

func (a *Adapter) StartScan(ch chan<- platform.Event) error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if !a.started {
		return fmt.Errorf("BLE adapter not started")
	}

	if a.scanCancel != nil {
		return fmt.Errorf("scan already in progress")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.scanCancel = cancel
	a.scanDone = done

	onAdv := func(adv ble.Advertisement) {
		r := platform.ScanResult{
			Name:    adv.LocalName(),
			Address: bledefs.NormalizeAddr(adv.Addr().String()),
			Rssi:    adv.RSSI(),
		}

		select {
		case ch <- r:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(done)

		log.Debugf("Scanning")
		err := ble.Scan(ctx, a.cfg.ScanDuplicates, onAdv, nil)
		if ctx.Err() != nil {
			// Stopped on request.
			return
		}

		log.Debugf("scan terminated: %v", err)
		select {
		case ch <- platform.ScanFailed{
			Code: platform.SCAN_FAILED_INTERNAL_ERROR,
		}:
		case <-ctx.Done():
		}
	}()

	return nil
}

func (a *Adapter) StopScan() error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	a.stopScanNoLock()
	return nil
}

// Cancels the running scan and waits for the host stack to stop scanning,
// so that a subsequent scan doesn't race with it.
func (a *Adapter) stopScanNoLock() {
	if a.scanCancel == nil {
		return
	}

	a.scanCancel()
	<-a.scanDone

	a.scanCancel = nil
	a.scanDone = nil
}

func (a *Adapter) ResolveDevice(addr string) (platform.Device, error) {
	ba, err := bledefs.ParseBleAddr(addr)
	if err != nil {
		return nil, bmxutil.FmtDeviceUnresolvableError(addr,
			"cannot resolve device: %s", err.Error())
	}

	return &device{addr: ba.String()}, nil
}

func (a *Adapter) ConnectGatt(d platform.Device,
	ch chan<- platform.Event) (platform.Gatt, error) {

	a.mtx.Lock()
	started := a.started
	a.mtx.Unlock()

	if !started {
		return nil, fmt.Errorf("BLE adapter not started")
	}

	g := newGatt(d.Address(), ch)
	go g.dial(a.cfg.ConnTimeout)

	return g, nil
}
