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

// Package mock provides an in-memory platform adapter.  Tests drive it by
// injecting platform callbacks; in auto mode it plays a set of simulated
// peripherals that connect, discover, and notify on their own.
package mock

import (
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/abgp/blemgr/blexact/bledefs"
	"github.com/abgp/blemgr/blexact/bmxutil"
	"github.com/abgp/blemgr/blexact/platform"
)

const SimChrUuid = "6e400003-b5a3-f393-e0a9-e50e24dcca9e"

type Cfg struct {
	// Simulated peripherals, keyed by address.  When Strict is set, only
	// these addresses resolve.
	Devices map[string]string
	Strict  bool

	// Plays the peripherals' side of every exchange without injection.
	Auto           bool
	NotifyInterval time.Duration
}

func NewCfg() Cfg {
	return Cfg{
		Devices:        map[string]string{},
		NotifyInterval: time.Second,
	}
}

type Device struct {
	addr string
	name string
}

func (d *Device) Address() string { return d.addr }
func (d *Device) Name() string    { return d.name }

type Adapter struct {
	cfg Cfg

	mtx        sync.Mutex
	perms      map[bledefs.Permission]bool
	started    bool
	scanning   bool
	scanCh     chan<- platform.Event
	scanStarts int
	scanStops  int
	gatts      []*Gatt

	StartScanErr error
	ConnectErr   error
}

func NewAdapter(cfg Cfg) *Adapter {
	if cfg.Devices == nil {
		cfg.Devices = map[string]string{}
	}

	devs := make(map[string]string, len(cfg.Devices))
	for addr, name := range cfg.Devices {
		devs[bledefs.NormalizeAddr(addr)] = name
	}
	cfg.Devices = devs

	return &Adapter{
		cfg:   cfg,
		perms: bledefs.AllPermissions(),
	}
}

func (a *Adapter) Start() error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	a.started = true
	return nil
}

func (a *Adapter) Stop() error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	a.started = false
	return nil
}

func (a *Adapter) SetPermission(p bledefs.Permission, granted bool) {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	a.perms[p] = granted
}

func (a *Adapter) HasPermission(p bledefs.Permission) bool {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return a.perms[p]
}

func (a *Adapter) StartScan(ch chan<- platform.Event) error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if a.StartScanErr != nil {
		return a.StartScanErr
	}

	a.scanning = true
	a.scanCh = ch
	a.scanStarts++

	if a.cfg.Auto {
		addrs := make([]string, 0, len(a.cfg.Devices))
		for addr := range a.cfg.Devices {
			addrs = append(addrs, addr)
		}
		sort.Strings(addrs)

		results := make([]platform.ScanResult, 0, len(addrs))
		for _, addr := range addrs {
			results = append(results, platform.ScanResult{
				Name:    a.cfg.Devices[addr],
				Address: addr,
				Rssi:    -60,
			})
		}
		go func() {
			for _, r := range results {
				ch <- r
			}
		}()
	}

	return nil
}

func (a *Adapter) StopScan() error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	a.scanning = false
	a.scanStops++
	return nil
}

func (a *Adapter) Scanning() bool {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return a.scanning
}

func (a *Adapter) ScanStarts() int {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return a.scanStarts
}

func (a *Adapter) ScanStops() int {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return a.scanStops
}

func (a *Adapter) ResolveDevice(addr string) (platform.Device, error) {
	ba, err := bledefs.ParseBleAddr(addr)
	if err != nil {
		return nil, bmxutil.FmtDeviceUnresolvableError(addr,
			"cannot resolve device: %s", err.Error())
	}

	a.mtx.Lock()
	defer a.mtx.Unlock()

	norm := ba.String()
	name, ok := a.cfg.Devices[norm]
	if !ok && a.cfg.Strict {
		return nil, bmxutil.FmtDeviceUnresolvableError(addr,
			"unknown device: %s", addr)
	}

	return &Device{addr: norm, name: name}, nil
}

func (a *Adapter) ConnectGatt(dev platform.Device,
	ch chan<- platform.Event) (platform.Gatt, error) {

	a.mtx.Lock()
	defer a.mtx.Unlock()

	if a.ConnectErr != nil {
		return nil, a.ConnectErr
	}

	g := &Gatt{
		adapter: a,
		addr:    dev.Address(),
		ch:      ch,
		stopCh:  make(chan struct{}),
	}
	a.gatts = append(a.gatts, g)

	if a.cfg.Auto {
		go g.send(platform.ConnStateChange{
			Gatt:     g,
			Status:   platform.GATT_SUCCESS,
			NewState: platform.STATE_CONNECTED,
		})
	}

	return g, nil
}

// Returns every gatt handed out so far, oldest first.
func (a *Adapter) Gatts() []*Gatt {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	gatts := make([]*Gatt, len(a.gatts))
	copy(gatts, a.gatts)
	return gatts
}

func (a *Adapter) LastGatt() *Gatt {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if len(a.gatts) == 0 {
		return nil
	}
	return a.gatts[len(a.gatts)-1]
}

// Delivers a scan result on the most recent scan's channel, whether or not
// the scan is still running.
func (a *Adapter) InjectScanResult(name string, addr string) error {
	return a.injectScan(platform.ScanResult{Name: name, Address: addr})
}

func (a *Adapter) InjectScanFailed(code int) error {
	return a.injectScan(platform.ScanFailed{Code: code})
}

func (a *Adapter) injectScan(evt platform.Event) error {
	a.mtx.Lock()
	ch := a.scanCh
	a.mtx.Unlock()

	if ch == nil {
		return fmt.Errorf("no scan has been started")
	}

	ch <- evt
	return nil
}

type Gatt struct {
	adapter *Adapter
	addr    string
	ch      chan<- platform.Event

	mtx           sync.Mutex
	disconnects   int
	closes        int
	discovers     int
	notifyEnables int
	stopCh        chan struct{}

	DiscoverErr error
	NotifyErr   error
}

func (g *Gatt) Address() string {
	return g.addr
}

func (g *Gatt) send(evt platform.Event) {
	g.ch <- evt
}

func (g *Gatt) DiscoverServices() error {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	g.discovers++
	if g.DiscoverErr != nil {
		return g.DiscoverErr
	}

	if g.adapter.cfg.Auto {
		go g.send(platform.ServicesDiscovered{
			Gatt:   g,
			Status: platform.GATT_SUCCESS,
		})
	}

	return nil
}

func (g *Gatt) EnableNotifications() error {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	g.notifyEnables++
	if g.NotifyErr != nil {
		return g.NotifyErr
	}

	if g.adapter.cfg.Auto && g.adapter.cfg.NotifyInterval > 0 {
		go g.notifyLoop(g.adapter.cfg.NotifyInterval, g.stopCh)
	}

	return nil
}

func (g *Gatt) notifyLoop(interval time.Duration, stopCh chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var seq byte
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			evt := platform.CharacteristicChanged{
				Gatt:    g,
				ChrUuid: SimChrUuid,
				Value:   []byte{seq},
			}
			select {
			case g.ch <- evt:
				seq++
			case <-stopCh:
				return
			}
		}
	}
}

func (g *Gatt) Disconnect() error {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	g.disconnects++
	return nil
}

func (g *Gatt) Close() error {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	if g.closes == 0 {
		close(g.stopCh)
	} else {
		log.Warnf("gatt %s closed %d times", g.addr, g.closes+1)
	}
	g.closes++
	return nil
}

func (g *Gatt) Disconnects() int {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	return g.disconnects
}

func (g *Gatt) Closes() int {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	return g.closes
}

func (g *Gatt) Discovers() int {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	return g.discovers
}

func (g *Gatt) NotifyEnables() int {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	return g.notifyEnables
}

func (g *Gatt) InjectConnected() {
	g.send(platform.ConnStateChange{
		Gatt:     g,
		Status:   platform.GATT_SUCCESS,
		NewState: platform.STATE_CONNECTED,
	})
}

func (g *Gatt) InjectDisconnected(status int) {
	g.send(platform.ConnStateChange{
		Gatt:     g,
		Status:   status,
		NewState: platform.STATE_DISCONNECTED,
	})
}

func (g *Gatt) InjectConnStateChange(status int, newState int) {
	g.send(platform.ConnStateChange{
		Gatt:     g,
		Status:   status,
		NewState: newState,
	})
}

func (g *Gatt) InjectServicesDiscovered(status int) {
	g.send(platform.ServicesDiscovered{
		Gatt:   g,
		Status: status,
	})
}

func (g *Gatt) InjectNotification(chrUuid string, value []byte) {
	g.send(platform.CharacteristicChanged{
		Gatt:    g,
		ChrUuid: chrUuid,
		Value:   value,
	})
}
