// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2025 The appshelf authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

// Package installer adapts the system package installer's D-Bus
// service to the engine's backend seams: installation status queries,
// operation dispatch and the completion signal feed.
package installer

import (
	"context"

	"github.com/godbus/dbus/v5"
	"gopkg.in/tomb.v2"

	"github.com/appshelf/appshelf/app"
	"github.com/appshelf/appshelf/logger"
	"github.com/appshelf/appshelf/track"
)

const (
	// BusName is the well-known name of the package installer service
	// on the system bus, BusInterface the interface carrying its
	// operations and ObjectPath where its manager object lives.
	BusName      = "io.appshelf.PackageInstaller"
	BusInterface = "io.appshelf.PackageInstaller"
	ObjectPath   = dbus.ObjectPath("/io/appshelf/PackageInstaller")

	queryInstalledMethod = BusInterface + ".QueryInstalled"
	installMethod        = BusInterface + ".Install"
	removeMethod         = BusInterface + ".Remove"
	launchMethod         = BusInterface + ".Launch"

	operationFinishedMember = "OperationFinished"
	operationFinishedSignal = BusInterface + "." + operationFinishedMember
)

// busObject is the part of dbus.BusObject the manager uses.
type busObject interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Manager talks to the package installer service. It implements both
// track.StatusBackend and track.Executor, and feeds the installer's
// OperationFinished signals into the hub.
type Manager struct {
	conn *dbus.Conn
	obj  busObject
	hub  *track.Hub
	tomb tomb.Tomb
}

var (
	_ track.StatusBackend = (*Manager)(nil)
	_ track.Executor      = (*Manager)(nil)
)

// New returns a manager talking to the installer service on the given
// bus connection. Completion signals are published on the hub once
// WatchOperations is called.
func New(conn *dbus.Conn, hub *track.Hub) *Manager {
	return &Manager{
		conn: conn,
		obj:  conn.Object(BusName, ObjectPath),
		hub:  hub,
	}
}

// QueryInstalled asks the installer whether a package with the given
// on-disk name is installed, and from where.
func (m *Manager) QueryInstalled(ctx context.Context, name string) (app.Status, error) {
	var installed bool
	var version, originLabel, diskName string
	call := m.obj.CallWithContext(ctx, queryInstalledMethod, 0, name)
	if err := call.Store(&installed, &version, &originLabel, &diskName); err != nil {
		return app.Status{}, err
	}
	return app.Status{
		Installed:   installed,
		Version:     version,
		OriginLabel: originLabel,
		DiskName:    diskName,
	}, nil
}

// Install asks the installer to install the named package from the
// given origin, optionally qualified with the concrete repository
// carrying it. The call returns once the request is accepted; the
// outcome arrives later as an OperationFinished signal.
func (m *Manager) Install(ctx context.Context, name, originID, repo string) error {
	return m.obj.CallWithContext(ctx, installMethod, 0, name, originID, repo).Err
}

// Remove asks the installer to remove the named package. Like Install
// it only dispatches; the outcome arrives as a signal.
func (m *Manager) Remove(ctx context.Context, name, originID string) error {
	return m.obj.CallWithContext(ctx, removeMethod, 0, name, originID).Err
}

// Launch asks the installer service to start the named application.
func (m *Manager) Launch(ctx context.Context, name string) error {
	return m.obj.CallWithContext(ctx, launchMethod, 0, name).Err
}

// WatchOperations subscribes to the installer's OperationFinished
// signal and republishes every decodable one on the hub, until Stop
// is called.
func (m *Manager) WatchOperations() error {
	if err := m.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(ObjectPath),
		dbus.WithMatchInterface(BusInterface),
		dbus.WithMatchMember(operationFinishedMember),
	); err != nil {
		return err
	}

	ch := make(chan *dbus.Signal, 16)
	m.conn.Signal(ch)
	m.tomb.Go(func() error {
		defer m.conn.RemoveSignal(ch)
		m.watch(ch)
		return nil
	})
	return nil
}

// Stop ends the signal watch and waits for it.
func (m *Manager) Stop() error {
	m.tomb.Kill(nil)
	return m.tomb.Wait()
}

func (m *Manager) watch(ch <-chan *dbus.Signal) {
	for {
		select {
		case sig, ok := <-ch:
			if !ok {
				return
			}
			m.processSignal(sig)
		case <-m.tomb.Dying():
			return
		}
	}
}

// processSignal publishes one OperationFinished signal on the hub.
// Wire payload: (op s, name s, success b, message s). Malformed
// signals are logged and dropped.
func (m *Manager) processSignal(sig *dbus.Signal) {
	if sig == nil || sig.Name != operationFinishedSignal {
		return
	}
	var op, name, message string
	var success bool
	if err := dbus.Store(sig.Body, &op, &name, &success, &message); err != nil {
		logger.Noticef("cannot decode %s signal: %v", operationFinishedMember, err)
		return
	}
	m.hub.Publish(track.Event{
		App:     name,
		Op:      track.Operation(op),
		Success: success,
		Message: message,
	})
}
