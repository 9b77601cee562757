package systemd

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"
)

// DBus implements Manager over the system bus. It needs the privileges to
// manage units, which normally means running as root or having a polkit rule.
type DBus struct {
	connect func(ctx context.Context) (dbusConn, error)
}

// dbusConn is the subset of *dbus.Conn used here.
type dbusConn interface {
	ReloadContext(ctx context.Context) error
	RestartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	GetUnitPropertyContext(ctx context.Context, unit string, propertyName string) (*dbus.Property, error)
	Close()
}

// NewDBus returns a Manager that talks to systemd over D-Bus. Each call opens
// its own connection.
func NewDBus() *DBus {
	return &DBus{connect: func(ctx context.Context) (dbusConn, error) {
		return dbus.NewSystemConnectionContext(ctx)
	}}
}

func (d *DBus) DaemonReload(ctx context.Context) error {
	conn, err := d.connect(ctx)
	if err != nil {
		return fmt.Errorf("connecting to systemd: %w", err)
	}
	defer conn.Close()

	if err := conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("daemon-reload: %w", err)
	}
	return nil
}

func (d *DBus) Restart(ctx context.Context, unit string) error {
	conn, err := d.connect(ctx)
	if err != nil {
		return fmt.Errorf("connecting to systemd: %w", err)
	}
	defer conn.Close()

	done := make(chan string, 1)
	if _, err := conn.RestartUnitContext(ctx, unit, "replace", done); err != nil {
		return fmt.Errorf("restart %s: %w", unit, err)
	}

	select {
	case result := <-done:
		if result != "done" {
			return fmt.Errorf("restart %s: job %s", unit, result)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("restart %s: %w", unit, ctx.Err())
	}
}

func (d *DBus) IsActive(ctx context.Context, unit string) bool {
	conn, err := d.connect(ctx)
	if err != nil {
		return false
	}
	defer conn.Close()

	prop, err := conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
	if err != nil {
		return false
	}
	state, ok := prop.Value.Value().(string)
	return ok && state == "active"
}
