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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abgp/blemgr/blexact/bledefs"
	"github.com/abgp/blemgr/blexact/bmxutil"
	"github.com/abgp/blemgr/blexact/mock"
	"github.com/abgp/blemgr/blexact/platform"
)

const testAddr = "AA:BB:CC:DD:EE:FF"

type chanSink struct {
	ch chan Event
}

func (s *chanSink) Emit(e Event) {
	s.ch <- e
}

type fixture struct {
	t       *testing.T
	adapter *mock.Adapter
	sink    *chanSink
	ctlr    *Controller
}

func newFixture(t *testing.T, scanPeriod time.Duration) *fixture {
	mcfg := mock.NewCfg()
	mcfg.Devices[testAddr] = "thermo"

	f := &fixture{
		t:       t,
		adapter: mock.NewAdapter(mcfg),
		sink:    &chanSink{ch: make(chan Event, 100)},
	}

	cfg := NewCfg()
	cfg.ScanPeriod = scanPeriod
	f.ctlr = NewController(cfg, f.adapter, f.sink)

	require.NoError(t, f.adapter.Start())
	require.NoError(t, f.ctlr.Start())
	t.Cleanup(func() {
		f.ctlr.Stop()
	})

	return f
}

func (f *fixture) next() Event {
	select {
	case e := <-f.sink.ch:
		return e
	case <-time.After(time.Second):
		f.t.Fatalf("timeout waiting for event")
		return nil
	}
}

func (f *fixture) expectNone(d time.Duration) {
	select {
	case e := <-f.sink.ch:
		f.t.Fatalf("unexpected event: %v", e)
	case <-time.After(d):
	}
}

func (f *fixture) expectState(state bledefs.ConnState) ConnStatusChanged {
	e := f.next()
	csc, ok := e.(ConnStatusChanged)
	require.True(f.t, ok, "expected ConnStatusChanged, got %v", e)
	assert.Equal(f.t, state, csc.State)
	return csc
}

// Drives a fresh connection to the Ready state.
func (f *fixture) connectReady() *mock.Gatt {
	ctx := context.Background()

	require.NoError(f.t, f.ctlr.Connect(ctx, testAddr))
	f.expectState(bledefs.CONN_STATE_CONNECTING)

	g := f.adapter.LastGatt()
	require.NotNil(f.t, g)

	g.InjectConnected()
	f.expectState(bledefs.CONN_STATE_CONNECTED)
	f.expectState(bledefs.CONN_STATE_DISCOVERING_SVC)

	g.InjectServicesDiscovered(platform.GATT_SUCCESS)
	f.expectState(bledefs.CONN_STATE_READY)

	return g
}

func TestScanToggle(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	type step struct {
		start  bool
		active bool
	}
	steps := []step{
		{start: true, active: true},
		{start: true, active: false},
		{start: false, active: false},
		{start: true, active: true},
		{start: false, active: false},
		{start: false, active: false},
		{start: true, active: true},
	}

	for i, s := range steps {
		if s.start {
			require.NoError(t, f.ctlr.StartScan(ctx))
		} else {
			require.NoError(t, f.ctlr.StopScan(ctx))
		}
		assert.Equal(t, s.active, f.ctlr.Status().Scanning, "step %d", i)
		assert.Equal(t, s.active, f.adapter.Scanning(), "step %d", i)
	}
}

func TestStartScanTwiceStops(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, f.ctlr.StartScan(ctx))
	require.NoError(t, f.ctlr.StartScan(ctx))

	assert.Equal(t, ScanStopped{Reason: SCAN_STOP_TOGGLED}, f.next())
	assert.False(t, f.ctlr.Status().Scanning)
	assert.Equal(t, 1, f.adapter.ScanStarts())
	assert.Equal(t, 1, f.adapter.ScanStops())
}

func TestScanTimeoutFiresOnce(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)

	require.NoError(t, f.ctlr.StartScan(context.Background()))
	st := f.ctlr.Status()
	assert.True(t, st.Scanning)
	assert.False(t, st.ScanExpiresAt.IsZero())

	assert.Equal(t, ScanStopped{Reason: SCAN_STOP_TIMEOUT}, f.next())
	f.expectNone(100 * time.Millisecond)

	assert.False(t, f.ctlr.Status().Scanning)
	assert.Equal(t, 1, f.adapter.ScanStops())
}

func TestStopScanCancelsTimeout(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, f.ctlr.StartScan(ctx))
	require.NoError(t, f.ctlr.StopScan(ctx))

	assert.Equal(t, ScanStopped{Reason: SCAN_STOP_STOPPED}, f.next())
	f.expectNone(150 * time.Millisecond)
	assert.Equal(t, 1, f.adapter.ScanStops())
}

func TestStaleTimeoutDoesNotStopNewScan(t *testing.T) {
	f := newFixture(t, 80*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, f.ctlr.StartScan(ctx))
	require.NoError(t, f.ctlr.StopScan(ctx))
	assert.Equal(t, ScanStopped{Reason: SCAN_STOP_STOPPED}, f.next())

	time.Sleep(40 * time.Millisecond)
	require.NoError(t, f.ctlr.StartScan(ctx))

	// The first scan's deadline passes while the second scan is running.
	time.Sleep(50 * time.Millisecond)
	assert.True(t, f.ctlr.Status().Scanning)

	assert.Equal(t, ScanStopped{Reason: SCAN_STOP_TIMEOUT}, f.next())
	f.expectNone(100 * time.Millisecond)
}

func TestScanResultsInOrder(t *testing.T) {
	f := newFixture(t, 200*time.Millisecond)

	require.NoError(t, f.ctlr.StartScan(context.Background()))

	addrs := []string{
		"00:00:00:00:00:0A",
		"00:00:00:00:00:0B",
		"00:00:00:00:00:0C",
	}
	for i, a := range addrs {
		name := string(rune('A' + i))
		require.NoError(t, f.adapter.InjectScanResult(name, a))
	}

	for i, a := range addrs {
		e := f.next()
		assert.Equal(t, DeviceFound{
			Name:    string(rune('A' + i)),
			Address: a,
		}, e)
	}

	assert.Equal(t, ScanStopped{Reason: SCAN_STOP_TIMEOUT}, f.next())
	f.expectNone(100 * time.Millisecond)
}

func TestScanResultRequiresConnectPermission(t *testing.T) {
	f := newFixture(t, time.Hour)

	require.NoError(t, f.ctlr.StartScan(context.Background()))
	f.adapter.SetPermission(bledefs.PERM_CONNECT, false)

	require.NoError(t, f.adapter.InjectScanResult("x", testAddr))
	f.expectNone(50 * time.Millisecond)
}

func TestScanResultAfterStopDropped(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, f.ctlr.StartScan(ctx))
	require.NoError(t, f.ctlr.StopScan(ctx))
	assert.Equal(t, ScanStopped{Reason: SCAN_STOP_STOPPED}, f.next())

	require.NoError(t, f.adapter.InjectScanResult("late", testAddr))
	f.expectNone(50 * time.Millisecond)
}

func TestScanFailed(t *testing.T) {
	f := newFixture(t, time.Hour)

	require.NoError(t, f.ctlr.StartScan(context.Background()))
	require.NoError(t, f.adapter.InjectScanFailed(
		platform.SCAN_FAILED_INTERNAL_ERROR))

	assert.Equal(t, ScanStopped{Reason: SCAN_STOP_FAILED}, f.next())
	e := f.next().(ErrorOccurred)
	assert.Equal(t, bmxutil.ERR_KIND_SCAN_FAILED, e.Kind)
	assert.False(t, f.ctlr.Status().Scanning)
}

func TestScanPermissionDenied(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	f.adapter.SetPermission(bledefs.PERM_SCAN, false)

	err := f.ctlr.StartScan(ctx)
	require.Error(t, err)
	assert.True(t, bmxutil.IsPermissionDenied(err))

	e := f.next().(ErrorOccurred)
	assert.Equal(t, OP_START_SCAN, e.Op)
	assert.Equal(t, bmxutil.ERR_KIND_PERMISSION, e.Kind)

	err = f.ctlr.StopScan(ctx)
	assert.True(t, bmxutil.IsPermissionDenied(err))
	f.next()

	assert.Equal(t, 0, f.adapter.ScanStarts())
	assert.Equal(t, 0, f.adapter.ScanStops())
}

func TestConnectLifecycle(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	g := f.connectReady()
	assert.Equal(t, 1, g.Discovers())
	assert.Equal(t, 1, g.NotifyEnables())

	st := f.ctlr.Status()
	assert.Equal(t, bledefs.CONN_STATE_READY, st.ConnState)
	assert.Equal(t, testAddr, st.ConnAddr)

	g.InjectNotification("2a37", []byte{0x01, 0x02})
	assert.Equal(t, DataReceived{
		Address: testAddr,
		ChrUuid: "2a37",
		Data:    []byte{0x01, 0x02},
	}, f.next())

	require.NoError(t, f.ctlr.Disconnect(ctx))
	csc := f.expectState(bledefs.CONN_STATE_DISCONNECTED)
	assert.Equal(t, DISCONNECT_REQUESTED, csc.Reason)

	assert.Equal(t, 1, g.Disconnects())
	assert.Equal(t, 1, g.Closes())
	assert.Equal(t, bledefs.CONN_STATE_DISCONNECTED, f.ctlr.Status().ConnState)
}

func TestLateConnectedCallback(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, f.ctlr.Connect(ctx, testAddr))
	f.expectState(bledefs.CONN_STATE_CONNECTING)
	g := f.adapter.LastGatt()

	require.NoError(t, f.ctlr.Disconnect(ctx))
	f.expectState(bledefs.CONN_STATE_DISCONNECTED)

	g.InjectConnected()
	g.InjectServicesDiscovered(platform.GATT_SUCCESS)
	g.InjectNotification("2a37", []byte{0xff})
	f.expectNone(50 * time.Millisecond)

	assert.Equal(t, 1, g.Closes())
	assert.Equal(t, 0, g.Discovers())
}

func TestConnectReplacesSession(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	first := f.connectReady()

	const other = "11:22:33:44:55:66"
	require.NoError(t, f.ctlr.Connect(ctx, other))

	csc := f.expectState(bledefs.CONN_STATE_DISCONNECTED)
	assert.Equal(t, testAddr, csc.Address)
	assert.Equal(t, DISCONNECT_REPLACED, csc.Reason)

	csc = f.expectState(bledefs.CONN_STATE_CONNECTING)
	assert.Equal(t, other, csc.Address)

	assert.Equal(t, 1, first.Closes())
	assert.Len(t, f.adapter.Gatts(), 2)

	// Callbacks from the replaced handle are ignored.
	first.InjectNotification("2a37", []byte{0x01})
	first.InjectDisconnected(platform.GATT_SUCCESS)
	f.expectNone(50 * time.Millisecond)
	assert.Equal(t, bledefs.CONN_STATE_CONNECTING, f.ctlr.Status().ConnState)
}

func TestLinkLost(t *testing.T) {
	f := newFixture(t, time.Hour)

	g := f.connectReady()
	g.InjectDisconnected(8)

	csc := f.expectState(bledefs.CONN_STATE_DISCONNECTED)
	assert.Equal(t, DISCONNECT_LINK_LOST, csc.Reason)
	assert.Equal(t, 1, g.Closes())
	assert.Equal(t, 0, g.Disconnects())

	require.NoError(t, f.ctlr.Disconnect(context.Background()))
	f.expectNone(50 * time.Millisecond)
	assert.Equal(t, 1, g.Closes())
}

func TestConnectFailure(t *testing.T) {
	f := newFixture(t, time.Hour)

	require.NoError(t, f.ctlr.Connect(context.Background(), testAddr))
	f.expectState(bledefs.CONN_STATE_CONNECTING)

	g := f.adapter.LastGatt()
	g.InjectConnStateChange(133, platform.STATE_DISCONNECTED)

	csc := f.expectState(bledefs.CONN_STATE_DISCONNECTED)
	assert.Equal(t, DISCONNECT_CONNECT_FAILED, csc.Reason)
	assert.Equal(t, 1, g.Closes())
}

func TestDiscoveryFailure(t *testing.T) {
	f := newFixture(t, time.Hour)

	require.NoError(t, f.ctlr.Connect(context.Background(), testAddr))
	f.expectState(bledefs.CONN_STATE_CONNECTING)

	g := f.adapter.LastGatt()
	g.InjectConnected()
	f.expectState(bledefs.CONN_STATE_CONNECTED)
	f.expectState(bledefs.CONN_STATE_DISCOVERING_SVC)

	g.InjectServicesDiscovered(platform.GATT_FAILURE)
	csc := f.expectState(bledefs.CONN_STATE_DISCONNECTED)
	assert.Equal(t, DISCONNECT_DISCOVERY_FAILED, csc.Reason)
	assert.Equal(t, 1, g.Closes())
	assert.Equal(t, 1, g.Disconnects())
}

func TestDataDroppedBeforeReady(t *testing.T) {
	f := newFixture(t, time.Hour)

	require.NoError(t, f.ctlr.Connect(context.Background(), testAddr))
	f.expectState(bledefs.CONN_STATE_CONNECTING)

	f.adapter.LastGatt().InjectNotification("2a37", []byte{0x01})
	f.expectNone(50 * time.Millisecond)
}

func TestConnectUnresolvable(t *testing.T) {
	mcfg := mock.NewCfg()
	mcfg.Strict = true
	adapter := mock.NewAdapter(mcfg)
	sink := &chanSink{ch: make(chan Event, 10)}

	c := NewController(NewCfg(), adapter, sink)
	require.NoError(t, c.Start())
	defer c.Stop()

	for _, addr := range []string{"not-an-address", testAddr} {
		err := c.Connect(context.Background(), addr)
		require.Error(t, err)
		assert.True(t, bmxutil.IsDeviceUnresolvable(err), "addr %s", addr)

		e := (<-sink.ch).(ErrorOccurred)
		assert.Equal(t, OP_CONNECT, e.Op)
		assert.Equal(t, bmxutil.ERR_KIND_UNRESOLVABLE, e.Kind)
	}

	assert.Empty(t, adapter.Gatts())
}

func TestConnectPermissionDenied(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	g := f.connectReady()
	f.adapter.SetPermission(bledefs.PERM_CONNECT, false)

	err := f.ctlr.Connect(ctx, "11:22:33:44:55:66")
	assert.True(t, bmxutil.IsPermissionDenied(err))
	assert.Equal(t, bmxutil.ERR_KIND_PERMISSION, f.next().(ErrorOccurred).Kind)

	err = f.ctlr.Disconnect(ctx)
	assert.True(t, bmxutil.IsPermissionDenied(err))
	assert.Equal(t, bmxutil.ERR_KIND_PERMISSION, f.next().(ErrorOccurred).Kind)

	// The existing session is untouched.
	assert.Equal(t, 0, g.Closes())
	assert.Equal(t, bledefs.CONN_STATE_READY, f.ctlr.Status().ConnState)
}

func TestDisconnectWithoutSession(t *testing.T) {
	f := newFixture(t, time.Hour)

	require.NoError(t, f.ctlr.Disconnect(context.Background()))
	f.expectNone(30 * time.Millisecond)
}

func TestScanAndConnectIndependent(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, f.ctlr.StartScan(ctx))
	f.connectReady()

	st := f.ctlr.Status()
	assert.True(t, st.Scanning)
	assert.Equal(t, bledefs.CONN_STATE_READY, st.ConnState)
}

func TestStopReleasesEverything(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, f.ctlr.StartScan(ctx))
	g := f.connectReady()

	require.NoError(t, f.ctlr.Stop())
	assert.Equal(t, ScanStopped{Reason: SCAN_STOP_CLOSED}, f.next())
	csc := f.expectState(bledefs.CONN_STATE_DISCONNECTED)
	assert.Equal(t, DISCONNECT_CLOSED, csc.Reason)
	assert.Equal(t, 1, g.Closes())

	err := f.ctlr.StartScan(ctx)
	assert.True(t, bmxutil.IsSesnClosed(err))

	// Stopping twice is harmless.
	assert.NoError(t, f.ctlr.Stop())
}

func TestConnectedWithoutConnectPermission(t *testing.T) {
	f := newFixture(t, time.Hour)

	require.NoError(t, f.ctlr.Connect(context.Background(), testAddr))
	f.expectState(bledefs.CONN_STATE_CONNECTING)
	g := f.adapter.LastGatt()

	f.adapter.SetPermission(bledefs.PERM_CONNECT, false)
	g.InjectConnected()
	f.expectState(bledefs.CONN_STATE_CONNECTED)

	e := f.next().(ErrorOccurred)
	assert.Equal(t, OP_DISCOVER, e.Op)
	assert.Equal(t, bmxutil.ERR_KIND_PERMISSION, e.Kind)

	csc := f.expectState(bledefs.CONN_STATE_DISCONNECTED)
	assert.Equal(t, DISCONNECT_PERMISSION_DENIED, csc.Reason)

	assert.Equal(t, 0, g.Discovers())
	assert.Equal(t, 1, g.Closes())
	assert.Equal(t, bledefs.CONN_STATE_DISCONNECTED, f.ctlr.Status().ConnState)
	assert.Equal(t, "", f.ctlr.Status().ConnAddr)
}

func TestStartScanAdapterError(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.adapter.StartScanErr = fmt.Errorf("radio off")

	err := f.ctlr.StartScan(context.Background())
	require.Error(t, err)

	e := f.next().(ErrorOccurred)
	assert.Equal(t, OP_START_SCAN, e.Op)
	assert.Equal(t, bmxutil.ERR_KIND_PLATFORM, e.Kind)
	f.expectNone(30 * time.Millisecond)

	assert.False(t, f.ctlr.Status().Scanning)

	// A later attempt starts a fresh scan rather than toggling.
	f.adapter.StartScanErr = nil
	require.NoError(t, f.ctlr.StartScan(context.Background()))
	assert.True(t, f.ctlr.Status().Scanning)
	f.expectNone(30 * time.Millisecond)
}

func TestConnectGattErrorAfterReplace(t *testing.T) {
	f := newFixture(t, time.Hour)
	first := f.connectReady()

	f.adapter.ConnectErr = fmt.Errorf("no free connection slots")
	err := f.ctlr.Connect(context.Background(), "11:22:33:44:55:66")
	require.Error(t, err)

	csc := f.expectState(bledefs.CONN_STATE_DISCONNECTED)
	assert.Equal(t, DISCONNECT_REPLACED, csc.Reason)
	assert.Equal(t, testAddr, csc.Address)

	e := f.next().(ErrorOccurred)
	assert.Equal(t, OP_CONNECT, e.Op)
	assert.Equal(t, bmxutil.ERR_KIND_PLATFORM, e.Kind)

	assert.Equal(t, 1, first.Closes())
	assert.Len(t, f.adapter.Gatts(), 1)

	st := f.ctlr.Status()
	assert.Equal(t, bledefs.CONN_STATE_DISCONNECTED, st.ConnState)
	assert.Equal(t, "", st.ConnAddr)
}

func TestDiscoverServicesError(t *testing.T) {
	f := newFixture(t, time.Hour)

	require.NoError(t, f.ctlr.Connect(context.Background(), testAddr))
	f.expectState(bledefs.CONN_STATE_CONNECTING)
	g := f.adapter.LastGatt()
	g.DiscoverErr = fmt.Errorf("gatt busy")

	g.InjectConnected()
	f.expectState(bledefs.CONN_STATE_CONNECTED)

	e := f.next().(ErrorOccurred)
	assert.Equal(t, OP_DISCOVER, e.Op)
	assert.Equal(t, bmxutil.ERR_KIND_PLATFORM, e.Kind)

	csc := f.expectState(bledefs.CONN_STATE_DISCONNECTED)
	assert.Equal(t, DISCONNECT_DISCOVERY_FAILED, csc.Reason)

	assert.Equal(t, 1, g.Discovers())
	assert.Equal(t, 1, g.Disconnects())
	assert.Equal(t, 1, g.Closes())
	assert.Equal(t, bledefs.CONN_STATE_DISCONNECTED, f.ctlr.Status().ConnState)
}

func TestEnableNotificationsErrorStillReady(t *testing.T) {
	f := newFixture(t, time.Hour)

	require.NoError(t, f.ctlr.Connect(context.Background(), testAddr))
	f.expectState(bledefs.CONN_STATE_CONNECTING)
	g := f.adapter.LastGatt()
	g.NotifyErr = fmt.Errorf("cccd write failed")

	g.InjectConnected()
	f.expectState(bledefs.CONN_STATE_CONNECTED)
	f.expectState(bledefs.CONN_STATE_DISCOVERING_SVC)

	g.InjectServicesDiscovered(platform.GATT_SUCCESS)

	e := f.next().(ErrorOccurred)
	assert.Equal(t, OP_NOTIFY, e.Op)
	assert.Equal(t, bmxutil.ERR_KIND_PLATFORM, e.Kind)
	f.expectState(bledefs.CONN_STATE_READY)

	assert.Equal(t, 1, g.NotifyEnables())
	assert.Equal(t, 0, g.Closes())
	assert.Equal(t, bledefs.CONN_STATE_READY, f.ctlr.Status().ConnState)

	// Notifications that do arrive are still delivered.
	g.InjectNotification("2a37", []byte{0x07})
	dr := f.next().(DataReceived)
	assert.Equal(t, []byte{0x07}, dr.Data)
}

func TestAcceptedCommandOutlivesContext(t *testing.T) {
	a := mock.NewAdapter(mock.NewCfg())
	slow := SinkFunc(func(e Event) {
		time.Sleep(100 * time.Millisecond)
	})

	c := NewController(NewCfg(), a, slow)
	require.NoError(t, c.Start())
	defer c.Stop()

	ctx, cancel := context.WithTimeout(context.Background(),
		20*time.Millisecond)
	defer cancel()

	// Accepted immediately; the Connecting event then holds the loop past
	// the deadline.
	require.NoError(t, c.Connect(ctx, testAddr))
	assert.Error(t, ctx.Err())

	assert.Equal(t, bledefs.CONN_STATE_CONNECTING, c.Status().ConnState)
	assert.Len(t, a.Gatts(), 1)
}

func TestUnacceptedCommandHonorsContext(t *testing.T) {
	a := mock.NewAdapter(mock.NewCfg())
	release := make(chan struct{})
	blocking := SinkFunc(func(e Event) {
		<-release
	})

	c := NewController(NewCfg(), a, blocking)
	require.NoError(t, c.Start())
	defer c.Stop()
	defer close(release)

	// The loop is stuck emitting Connecting for the first command.
	go c.Connect(context.Background(), testAddr)
	require.Eventually(t, func() bool {
		return len(a.Gatts()) == 1
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(),
		20*time.Millisecond)
	defer cancel()

	err := c.Disconnect(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)
}
