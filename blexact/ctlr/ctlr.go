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

package ctlr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/abgp/blemgr/blexact/bledefs"
	"github.com/abgp/blemgr/blexact/bmxutil"
	"github.com/abgp/blemgr/blexact/platform"
)

// A point-in-time view of the controller's state.
type Status struct {
	Scanning      bool
	ScanExpiresAt time.Time
	ConnAddr      string
	ConnState     bledefs.ConnState
}

// Owns at most one scan and at most one GATT connection.  Commands may be
// called from any goroutine; they are executed one at a time on the
// controller's event loop, which also consumes platform callbacks.  All
// events reach the sink from that loop.
type Controller struct {
	cfg     Cfg
	adapter platform.Adapter
	sink    Sink

	platCh chan platform.Event
	reqCh  chan func()
	tmoCh  chan uint64
	stopCh chan struct{}
	doneCh chan struct{}

	// Only accessed from the event loop.
	scan    *scanSesn
	scanGen uint64
	conn    *connSesn

	// Mirrors loop state for Status().
	mtx     sync.Mutex
	status  Status
	started bool
	stopped bool
}

func NewController(cfg Cfg, adapter platform.Adapter, sink Sink) *Controller {
	if cfg.EventQueueSize <= 0 {
		cfg.EventQueueSize = NewCfg().EventQueueSize
	}
	if cfg.ScanPeriod <= 0 {
		cfg.ScanPeriod = NewCfg().ScanPeriod
	}
	if sink == nil {
		sink = SinkFunc(func(e Event) {})
	}

	return &Controller{
		cfg:     cfg,
		adapter: adapter,
		sink:    sink,
		platCh:  make(chan platform.Event, cfg.EventQueueSize),
		reqCh:   make(chan func()),
		tmoCh:   make(chan uint64),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Launches the event loop.
func (c *Controller) Start() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.started {
		return fmt.Errorf("controller already started")
	}
	c.started = true

	go c.loop()
	return nil
}

// Stops any scan, releases any connection, and terminates the event loop.
// Blocks until the loop has exited.  The final events are delivered to the
// sink from the loop, so the sink must keep accepting events until Stop
// returns.
func (c *Controller) Stop() error {
	c.mtx.Lock()
	if !c.started {
		c.mtx.Unlock()
		return bmxutil.NewSesnClosedError(
			"Attempt to stop a controller that was never started")
	}
	if c.stopped {
		c.mtx.Unlock()
		return nil
	}
	c.stopped = true
	c.mtx.Unlock()

	close(c.stopCh)
	<-c.doneCh
	return nil
}

func (c *Controller) Status() Status {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.status
}

func (c *Controller) loop() {
	defer close(c.doneCh)

	for {
		select {
		case req := <-c.reqCh:
			req()

		case evt := <-c.platCh:
			c.onPlatformEvent(evt)

		case gen := <-c.tmoCh:
			c.onScanTimeout(gen)

		case <-c.stopCh:
			c.shutdown()
			return
		}
	}
}

func (c *Controller) shutdown() {
	log.Debugf("controller shutting down")

	if c.scan != nil {
		c.stopScan(SCAN_STOP_CLOSED)
	}
	if c.conn != nil {
		c.closeConn(DISCONNECT_CLOSED)
	}
}

// Executes fn on the event loop and waits for its result.  ctx bounds only
// the wait for the loop to accept the command; once accepted, the command
// runs to completion and its own result is returned.
func (c *Controller) exec(ctx context.Context, fn func() error) error {
	errCh := make(chan error, 1)
	req := func() {
		errCh <- fn()
	}

	select {
	case c.reqCh <- req:
	case <-c.stopCh:
		return bmxutil.NewSesnClosedError("controller stopped")
	case <-ctx.Done():
		return ctx.Err()
	}

	return <-errCh
}

func (c *Controller) emit(e Event) {
	log.Debugf("emit: %s", e)
	c.sink.Emit(e)
}

func (c *Controller) emitError(op string, err error) {
	c.emit(ErrorOccurred{
		Op:   op,
		Kind: bmxutil.ErrorKind(err),
		Text: err.Error(),
	})
}

func (c *Controller) checkPerm(op string, perm bledefs.Permission) error {
	if c.adapter.HasPermission(perm) {
		return nil
	}

	err := bmxutil.NewPermissionDeniedError(perm,
		fmt.Sprintf("%s: %s permission not granted", op, perm))
	log.Debugf("%s", err.Error())
	c.emitError(op, err)
	return err
}

func (c *Controller) updateStatus() {
	st := Status{
		ConnState: bledefs.CONN_STATE_DISCONNECTED,
	}
	if c.scan != nil && c.scan.active {
		st.Scanning = true
		st.ScanExpiresAt = c.scan.expiresAt
	}
	if c.conn != nil {
		st.ConnAddr = c.conn.addr
		st.ConnState = c.conn.state
	}

	c.mtx.Lock()
	c.status = st
	c.mtx.Unlock()
}

/*****************************************************************************
 * Commands
 *****************************************************************************/

// Starts a scan, or stops the current one if a scan is already running.
func (c *Controller) StartScan(ctx context.Context) error {
	return c.exec(ctx, c.startScan)
}

func (c *Controller) StopScan(ctx context.Context) error {
	return c.exec(ctx, func() error {
		if err := c.checkPerm(OP_STOP_SCAN, bledefs.PERM_SCAN); err != nil {
			return err
		}

		if c.scan == nil {
			log.Debugf("stopScan: no scan in progress")
			return nil
		}

		c.stopScan(SCAN_STOP_STOPPED)
		return nil
	})
}

// Connects to the device with the specified address.  Any existing
// connection is closed first.
func (c *Controller) Connect(ctx context.Context, addr string) error {
	return c.exec(ctx, func() error {
		return c.connect(addr)
	})
}

func (c *Controller) Disconnect(ctx context.Context) error {
	return c.exec(ctx, func() error {
		if err := c.checkPerm(OP_DISCONNECT, bledefs.PERM_CONNECT); err != nil {
			return err
		}

		if c.conn == nil {
			log.Debugf("disconnect: no connection")
			return nil
		}

		c.closeConn(DISCONNECT_REQUESTED)
		return nil
	})
}

func (c *Controller) startScan() error {
	if err := c.checkPerm(OP_START_SCAN, bledefs.PERM_SCAN); err != nil {
		return err
	}

	if c.scan != nil {
		c.stopScan(SCAN_STOP_TOGGLED)
		return nil
	}

	if err := c.adapter.StartScan(c.platCh); err != nil {
		err = errors.Wrap(err, "failed to start scan")
		c.emitError(OP_START_SCAN, err)
		return err
	}

	c.scanGen++
	s := newScanSesn(c.scanGen, c.cfg.ScanPeriod)

	gen := s.gen
	s.timer = time.AfterFunc(c.cfg.ScanPeriod, func() {
		select {
		case c.tmoCh <- gen:
		case <-c.stopCh:
		}
	})

	c.scan = s
	c.updateStatus()

	log.Infof("scan started; sesn=%s period=%s", s.id, c.cfg.ScanPeriod)
	return nil
}

func (c *Controller) stopScan(reason string) {
	s := c.scan
	c.scan = nil
	s.active = false
	s.cancelTimer()

	if err := c.adapter.StopScan(); err != nil {
		log.Debugf("error stopping scan; sesn=%s: %s", s.id, err.Error())
	}

	c.updateStatus()
	log.Infof("scan stopped; sesn=%s reason=%s", s.id, reason)

	c.emit(ScanStopped{Reason: reason})
}

func (c *Controller) onScanTimeout(gen uint64) {
	if c.scan == nil || c.scan.gen != gen {
		log.Debugf("ignoring stale scan timeout; gen=%d", gen)
		return
	}

	c.stopScan(SCAN_STOP_TIMEOUT)
}

func (c *Controller) connect(addr string) error {
	if err := c.checkPerm(OP_CONNECT, bledefs.PERM_CONNECT); err != nil {
		return err
	}

	dev, err := c.adapter.ResolveDevice(addr)
	if err != nil {
		if !bmxutil.IsDeviceUnresolvable(err) {
			err = bmxutil.FmtDeviceUnresolvableError(addr,
				"cannot resolve device %s: %s", addr, err.Error())
		}
		c.emitError(OP_CONNECT, err)
		return err
	}

	if c.conn != nil {
		log.Debugf("connect: replacing connection to %s", c.conn.addr)
		c.closeConn(DISCONNECT_REPLACED)
	}

	gatt, err := c.adapter.ConnectGatt(dev, c.platCh)
	if err != nil {
		err = errors.Wrapf(err, "failed to connect to %s", dev.Address())
		c.emitError(OP_CONNECT, err)
		return err
	}

	c.conn = newConnSesn(dev.Address(), gatt)
	log.Infof("connecting; sesn=%s addr=%s", c.conn.id, c.conn.addr)
	c.setConnState(bledefs.CONN_STATE_CONNECTING, "")

	return nil
}

// Requests a platform disconnect, releases the handle, and empties the
// session slot.
func (c *Controller) closeConn(reason string) {
	s := c.conn

	if err := s.gatt.Disconnect(); err != nil {
		log.Debugf("error disconnecting; sesn=%s: %s", s.id, err.Error())
	}

	c.dropConn(reason)
}

// Releases the handle and empties the session slot without a disconnect
// request; used when the platform has already dropped the link.
func (c *Controller) dropConn(reason string) {
	s := c.conn
	s.release()

	c.setConnState(bledefs.CONN_STATE_DISCONNECTED, reason)
	c.conn = nil
	c.updateStatus()

	log.Infof("connection closed; sesn=%s addr=%s reason=%s",
		s.id, s.addr, reason)
}

func (c *Controller) setConnState(state bledefs.ConnState, reason string) {
	s := c.conn

	log.Debugf("conn state change; sesn=%s addr=%s %s->%s",
		s.id, s.addr, s.state, state)

	s.state = state
	c.updateStatus()

	c.emit(ConnStatusChanged{
		Address: s.addr,
		State:   state,
		Reason:  reason,
	})
}

/*****************************************************************************
 * Platform callbacks
 *****************************************************************************/

func (c *Controller) onPlatformEvent(evt platform.Event) {
	bmxutil.CallbackLog.Debugf("callback: %s", evt)

	switch e := evt.(type) {
	case platform.ScanResult:
		c.onScanResult(e)

	case platform.ScanFailed:
		c.onScanFailed(e)

	case platform.ConnStateChange:
		c.onConnStateChange(e)

	case platform.ServicesDiscovered:
		c.onServicesDiscovered(e)

	case platform.CharacteristicChanged:
		c.onCharacteristicChanged(e)

	default:
		log.Debugf("ignoring unknown platform event: %s", evt)
	}
}

func (c *Controller) onScanResult(e platform.ScanResult) {
	if c.scan == nil {
		log.Debugf("dropping scan result; no scan in progress: %s", e)
		return
	}

	// Reading a device's name requires the connect grant.
	if !c.adapter.HasPermission(bledefs.PERM_CONNECT) {
		log.Debugf("dropping scan result; connect permission not granted")
		return
	}

	c.emit(DeviceFound{
		Name:    e.Name,
		Address: e.Address,
	})
}

func (c *Controller) onScanFailed(e platform.ScanFailed) {
	if c.scan == nil {
		return
	}

	c.stopScan(SCAN_STOP_FAILED)
	c.emitError(OP_SCAN, bmxutil.NewScanFailedError(e.Code))
}

// Looks up the session a gatt callback belongs to.  Callbacks for handles
// that have already been released are dropped.
func (c *Controller) sesnFor(g platform.Gatt) *connSesn {
	if g == nil {
		return nil
	}

	if c.conn == nil || !c.conn.owns(g) {
		log.Debugf("dropping callback for stale gatt; addr=%s",
			g.Address())
		return nil
	}

	return c.conn
}

func (c *Controller) onConnStateChange(e platform.ConnStateChange) {
	s := c.sesnFor(e.Gatt)
	if s == nil {
		return
	}

	if e.Status != platform.GATT_SUCCESS ||
		e.NewState == platform.STATE_DISCONNECTED {

		reason := DISCONNECT_LINK_LOST
		if s.state == bledefs.CONN_STATE_CONNECTING {
			reason = DISCONNECT_CONNECT_FAILED
		} else {
			log.Debugf("%s", bmxutil.NewLinkLostError(s.addr, e.Status))
		}
		c.dropConn(reason)
		return
	}

	if e.NewState != platform.STATE_CONNECTED {
		return
	}

	if s.state != bledefs.CONN_STATE_CONNECTING {
		log.Debugf("ignoring connected callback in state %s", s.state)
		return
	}

	c.setConnState(bledefs.CONN_STATE_CONNECTED, "")

	if err := c.checkPerm(OP_DISCOVER, bledefs.PERM_CONNECT); err != nil {
		c.closeConn(DISCONNECT_PERMISSION_DENIED)
		return
	}

	if err := s.gatt.DiscoverServices(); err != nil {
		c.emitError(OP_DISCOVER, err)
		c.closeConn(DISCONNECT_DISCOVERY_FAILED)
		return
	}

	c.setConnState(bledefs.CONN_STATE_DISCOVERING_SVC, "")
}

func (c *Controller) onServicesDiscovered(e platform.ServicesDiscovered) {
	s := c.sesnFor(e.Gatt)
	if s == nil {
		return
	}

	if s.state != bledefs.CONN_STATE_DISCOVERING_SVC {
		log.Debugf("ignoring discovery callback in state %s", s.state)
		return
	}

	if e.Status != platform.GATT_SUCCESS {
		c.closeConn(DISCONNECT_DISCOVERY_FAILED)
		return
	}

	if err := s.gatt.EnableNotifications(); err != nil {
		log.Warnf("failed to enable notifications; addr=%s: %s",
			s.addr, err.Error())
		c.emitError(OP_NOTIFY, err)
	}

	c.setConnState(bledefs.CONN_STATE_READY, "")
}

func (c *Controller) onCharacteristicChanged(e platform.CharacteristicChanged) {
	s := c.sesnFor(e.Gatt)
	if s == nil {
		return
	}

	if s.state != bledefs.CONN_STATE_READY {
		log.Debugf("dropping notification in state %s", s.state)
		return
	}

	data := make([]byte, len(e.Value))
	copy(data, e.Value)

	c.emit(DataReceived{
		Address: s.addr,
		ChrUuid: e.ChrUuid,
		Data:    data,
	})
}
