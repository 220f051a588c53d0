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
	"time"

	"github.com/JuulLabs-OSS/ble"
	log "github.com/sirupsen/logrus"

	"github.com/abgp/blemgr/blexact/platform"
)

// HCI "remote user terminated connection"; reported when the peer drops
// the link.
const hciRemoteUserTerm = 0x13

// A GATT connection over the host BLE stack.  Every blocking call into the
// stack runs on its own goroutine and reports back on ch.
type Gatt struct {
	addr string
	ch   chan<- platform.Event

	ctx    context.Context
	cancel context.CancelFunc

	// The native BLE client.  All accesses must be protected by the mutex.
	mtx       sync.Mutex
	cln       ble.Client
	profile   *ble.Profile
	cancelled bool
	closed    bool
}

func newGatt(addr string, ch chan<- platform.Event) *Gatt {
	ctx, cancel := context.WithCancel(context.Background())

	return &Gatt{
		addr:   addr,
		ch:     ch,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (g *Gatt) Address() string {
	return g.addr
}

// Delivers a callback unless the gatt has been closed.
func (g *Gatt) send(evt platform.Event) {
	select {
	case g.ch <- evt:
	case <-g.ctx.Done():
	}
}

func (g *Gatt) getCln() ble.Client {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	return g.cln
}

func (g *Gatt) dial(timeout time.Duration) {
	log.Debugf("Connecting to %s", g.addr)

	ctx, cancel := context.WithTimeout(g.ctx, timeout)
	defer cancel()

	cln, err := ble.Dial(ctx, ble.NewAddr(g.addr))
	if err != nil {
		log.Debugf("Failed to connect to %s: %v", g.addr, err)
		g.send(platform.ConnStateChange{
			Gatt:     g,
			Status:   platform.GATT_FAILURE,
			NewState: platform.STATE_DISCONNECTED,
		})
		return
	}

	g.mtx.Lock()
	if g.closed {
		// Closed while the dial was in flight; don't leak the link.
		g.mtx.Unlock()
		cln.CancelConnection()
		return
	}
	g.cln = cln
	g.mtx.Unlock()

	go g.listenDisconnect(cln)

	g.send(platform.ConnStateChange{
		Gatt:     g,
		Status:   platform.GATT_SUCCESS,
		NewState: platform.STATE_CONNECTED,
	})
}

func (g *Gatt) listenDisconnect(cln ble.Client) {
	select {
	case <-cln.Disconnected():
		log.Debugf("Peer %s disconnected", g.addr)
		g.send(platform.ConnStateChange{
			Gatt:     g,
			Status:   hciRemoteUserTerm,
			NewState: platform.STATE_DISCONNECTED,
		})

	case <-g.ctx.Done():
	}
}

func (g *Gatt) DiscoverServices() error {
	cln := g.getCln()
	if cln == nil {
		return fmt.Errorf("cannot discover services; %s not connected",
			g.addr)
	}

	go func() {
		log.Debugf("Discovering profile of %s", g.addr)

		p, err := cln.DiscoverProfile(true)
		status := platform.GATT_SUCCESS
		if err != nil {
			log.Debugf("Profile discovery failed: %v", err)
			status = platform.GATT_FAILURE
		} else {
			g.mtx.Lock()
			g.profile = p
			g.mtx.Unlock()
		}

		g.send(platform.ServicesDiscovered{
			Gatt:   g,
			Status: status,
		})
	}()

	return nil
}

// Subscribes to every characteristic that supports notifications or
// indications.
func (g *Gatt) EnableNotifications() error {
	g.mtx.Lock()
	cln := g.cln
	p := g.profile
	g.mtx.Unlock()

	if cln == nil || p == nil {
		return fmt.Errorf("cannot enable notifications; " +
			"services not discovered")
	}

	var chrs []*ble.Characteristic
	for _, s := range p.Services {
		for _, c := range s.Characteristics {
			if c.Property&(ble.CharNotify|ble.CharIndicate) != 0 {
				chrs = append(chrs, c)
			}
		}
	}

	if len(chrs) == 0 {
		log.Debugf("%s exposes no notifiable characteristics", g.addr)
		return nil
	}

	go func() {
		for _, c := range chrs {
			uuid, err := UuidString(c.UUID)
			if err != nil {
				log.Debugf("%s", err.Error())
				continue
			}

			onNotify := func(data []byte) {
				value := make([]byte, len(data))
				copy(value, data)

				g.send(platform.CharacteristicChanged{
					Gatt:    g,
					ChrUuid: uuid,
					Value:   value,
				})
			}

			ind := c.Property&ble.CharNotify == 0
			log.Debugf("Subscribing to %s; indicate=%v", uuid, ind)
			if err := cln.Subscribe(c, ind, onNotify); err != nil {
				log.Warnf("Failed to subscribe to %s: %v", uuid, err)
			}
		}
	}()

	return nil
}

func (g *Gatt) cancelConnection() error {
	g.mtx.Lock()
	cln := g.cln
	already := g.cancelled
	if cln != nil {
		g.cancelled = true
	}
	g.mtx.Unlock()

	if cln == nil || already {
		return nil
	}

	return cln.CancelConnection()
}

func (g *Gatt) Disconnect() error {
	return g.cancelConnection()
}

func (g *Gatt) Close() error {
	g.mtx.Lock()
	if g.closed {
		g.mtx.Unlock()
		return nil
	}
	g.closed = true
	g.mtx.Unlock()

	// Aborts an in-flight dial and silences pending callbacks.
	g.cancel()

	return g.cancelConnection()
}
