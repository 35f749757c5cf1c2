// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package host

import (
	"context"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
)

var logger = loggo.GetLogger("cinder-infinidat.host")

// DBusAPI is the part of the systemd D-Bus connection used to manage
// services.
type DBusAPI interface {
	Close()
	ListUnitsByNamesContext(ctx context.Context, units []string) ([]dbus.UnitStatus, error)
	UnmaskUnitFilesContext(ctx context.Context, files []string, runtime bool) ([]dbus.UnmaskUnitFileChange, error)
	EnableUnitFilesContext(ctx context.Context, files []string, runtime bool, force bool) (bool, []dbus.EnableUnitFileChange, error)
	StartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	ReloadContext(ctx context.Context) error
}

// DBusAPIFactory opens a connection to systemd.
type DBusAPIFactory = func(ctx context.Context) (DBusAPI, error)

// NewDBusAPI connects to the system bus.
func NewDBusAPI(ctx context.Context) (DBusAPI, error) {
	return dbus.NewWithContext(ctx)
}

// Services controls systemd services.
type Services struct {
	newDBus DBusAPIFactory
}

// NewServices returns a Services using newDBus for each operation.
func NewServices(newDBus DBusAPIFactory) *Services {
	return &Services{newDBus: newDBus}
}

func unitName(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return name + ".service"
}

func (s *Services) withConn(ctx context.Context, f func(DBusAPI) error) error {
	conn, err := s.newDBus(ctx)
	if err != nil {
		return errors.Annotate(err, "connecting to systemd")
	}
	defer conn.Close()
	return f(conn)
}

// Running reports whether the named service is loaded and active.
func (s *Services) Running(ctx context.Context, name string) (bool, error) {
	var running bool
	err := s.withConn(ctx, func(conn DBusAPI) error {
		var err error
		running, err = unitRunning(ctx, conn, unitName(name))
		return err
	})
	return running, errors.Trace(err)
}

func unitRunning(ctx context.Context, conn DBusAPI, unit string) (bool, error) {
	units, err := conn.ListUnitsByNamesContext(ctx, []string{unit})
	if err != nil {
		return false, errors.Annotatef(err, "querying %s", unit)
	}
	for _, u := range units {
		if u.Name == unit {
			return u.LoadState == "loaded" && u.ActiveState == "active", nil
		}
	}
	return false, nil
}

// Resume unmasks and enables the named service so that it starts on boot.
func (s *Services) Resume(ctx context.Context, name string) error {
	unit := unitName(name)
	return errors.Trace(s.withConn(ctx, func(conn DBusAPI) error {
		if _, err := conn.UnmaskUnitFilesContext(ctx, []string{unit}, false); err != nil {
			return errors.Annotatef(err, "unmasking %s", unit)
		}
		if _, _, err := conn.EnableUnitFilesContext(ctx, []string{unit}, false, true); err != nil {
			return errors.Annotatef(err, "enabling %s", unit)
		}
		if err := conn.ReloadContext(ctx); err != nil {
			return errors.Annotate(err, "reloading systemd")
		}
		logger.Debugf("service %q resumed", name)
		return nil
	}))
}

// Start starts the named service and waits for the job to finish. Starting
// a running service does nothing.
func (s *Services) Start(ctx context.Context, name string) error {
	unit := unitName(name)
	return errors.Trace(s.withConn(ctx, func(conn DBusAPI) error {
		running, err := unitRunning(ctx, conn, unit)
		if err != nil {
			return errors.Trace(err)
		}
		if running {
			logger.Debugf("service %q already running", name)
			return nil
		}

		statusCh := make(chan string, 1)
		if _, err := conn.StartUnitContext(ctx, unit, "fail", statusCh); err != nil {
			return errors.Annotatef(err, "starting %s", unit)
		}
		select {
		case status := <-statusCh:
			if status != "done" {
				return errors.Errorf("failed to start %s (API status %q)", unit, status)
			}
		case <-ctx.Done():
			return errors.Trace(ctx.Err())
		}
		logger.Debugf("service %q successfully started", name)
		return nil
	}))
}
