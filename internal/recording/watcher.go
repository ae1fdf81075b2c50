package recording

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"podium/internal/logging"
)

// DeviceWatcher listens for udev netlink events and calls onRemove when the
// watched video node disappears.
type DeviceWatcher struct {
	device   string
	logger   *slog.Logger
	onRemove func(device string)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewDeviceWatcher returns nil when device is empty.
func NewDeviceWatcher(device string, logger *slog.Logger, onRemove func(device string)) *DeviceWatcher {
	device = strings.TrimSpace(device)
	if device == "" {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &DeviceWatcher{
		device:   device,
		logger:   logging.NewComponentLogger(logger, "device-watcher"),
		onRemove: onRemove,
	}
}

// ResetOnRemove wires a watcher to reset recorder when its device is
// unplugged.
func ResetOnRemove(recorder *Recorder, logger *slog.Logger) *DeviceWatcher {
	if recorder == nil {
		return nil
	}
	return NewDeviceWatcher(recorder.Device(), logger, func(string) {
		recorder.Reset(ErrDeviceRemoved)
	})
}

// Start begins listening. A netlink connection failure is logged and
// tolerated; recording still works without hot-unplug detection.
func (w *DeviceWatcher) Start(ctx context.Context) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(w.logger, "failed to connect to netlink socket", "netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permission to open netlink sockets"),
			logging.String(logging.FieldImpact, "camera unplug will not stop recordings early"),
		)
		return nil
	}

	w.conn = conn
	w.quit = make(chan struct{})
	w.running = true
	quit := w.quit
	go w.monitorLoop(ctx, conn, quit)

	w.logger.Debug("device watcher started",
		logging.String(logging.FieldEventType, "device_watcher_started"),
		logging.String("device", w.device),
	)
	return nil
}

// Stop shuts the watcher down. Safe on nil and unstarted watchers.
func (w *DeviceWatcher) Stop() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	close(w.quit)
	w.quit = nil
	if w.conn != nil {
		_ = w.conn.Close()
		w.conn = nil
	}
	w.running = false
}

// Running reports whether the watcher is active.
func (w *DeviceWatcher) Running() bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *DeviceWatcher) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, w.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			w.handleEvent(uevent)
		case err := <-errs:
			w.logger.Debug("netlink monitor error", logging.Error(err))
		}
	}
}

// buildMatcher matches SUBSYSTEM=video4linux, ACTION=remove.
func (w *DeviceWatcher) buildMatcher() netlink.Matcher {
	action := "remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "video4linux",
		},
	})
	return rules
}

func (w *DeviceWatcher) handleEvent(uevent netlink.UEvent) {
	devname := extractDeviceName(uevent)
	if devname == "" || devname != w.device {
		w.logger.Debug("ignoring udev event",
			logging.String("action", string(uevent.Action)),
			logging.String("device", devname),
		)
		return
	}
	logging.WarnWithContext(w.logger, "capture device removed", "device_removed",
		logging.String("device", devname),
		logging.String(logging.FieldImpact, "active recording stopped"),
		logging.String(logging.FieldErrorHint, "reconnect the camera and record again"),
	)
	if w.onRemove != nil {
		w.onRemove(devname)
	}
}

func extractDeviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		if !strings.HasPrefix(devname, "/") {
			return "/dev/" + devname
		}
		return devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return "/dev/" + parts[len(parts)-1]
}
