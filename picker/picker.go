// Package picker resolves a single device.Device to operate on, given
// a Selection expressing what the caller asked for on the command
// line (an explicit name, an interactive pick, or "use the default").
//
// Grounded on original_source/common/device/src/picker.rs's
// name-or-prompt-or-default resolution order, restructured as two
// small interfaces (DevicePicker, PickPrompt) so cmd/ binaries can
// supply a real terminal prompt while tests substitute a canned one —
// the same interface-for-the-interactive-bit, concrete-type-for-the-
// rest split lib/client uses for its own user prompts
// (client.NewPromptReader-style seams) versus its non-interactive
// plumbing.
package picker

import (
	"context"

	"github.com/gravitational/trace"

	"github.com/webosbrew/ares-core/device"
	"github.com/webosbrew/ares-core/devicestore"
)

// Selection expresses what the caller wants resolved to a device.Device:
// an explicit Name, an interactive Pick, or (both zero) the registry's
// default device.
type Selection struct {
	// Name, if non-nil, selects the device with this exact name.
	Name *string
	// Pick, if true and Name is nil, asks the configured PickPrompt to
	// choose interactively among the registry's devices.
	Pick bool
}

// DevicePicker resolves a Selection against some backing device
// registry.
type DevicePicker interface {
	Pick(ctx context.Context, sel Selection) (*device.Device, error)
}

// PickPrompt drives an interactive choice among devices, returning
// nil, nil if the user cancels rather than choosing one.
type PickPrompt interface {
	Pick(ctx context.Context, devices []device.Device) (*device.Device, error)
}

// StorePicker is the DevicePicker every cmd/ binary actually uses: a
// devicestore.Manager backing the registry, with an optional prompt
// for interactive selection.
type StorePicker struct {
	store  *devicestore.Manager
	prompt PickPrompt
}

// New builds a StorePicker. prompt may be nil if the caller never sets
// Selection.Pick (e.g. a script that always names a device).
func New(store *devicestore.Manager, prompt PickPrompt) *StorePicker {
	return &StorePicker{store: store, prompt: prompt}
}

// Pick resolves sel against the registry: Name takes precedence, then
// Pick (via the configured prompt), then the registry's default
// device. A missing named device, an empty registry (for Pick) or an
// unset default yields trace.NotFound; Pick without a configured
// prompt yields trace.BadParameter, and a cancelled prompt yields
// context.Canceled.
func (p *StorePicker) Pick(ctx context.Context, sel Selection) (*device.Device, error) {
	if sel.Name != nil {
		d, err := p.store.Get(*sel.Name)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		return d, nil
	}

	if sel.Pick {
		if p.prompt == nil {
			return nil, trace.BadParameter("interactive device selection is not available")
		}
		devices := p.store.List()
		if len(devices) == 0 {
			return nil, trace.NotFound("no devices are registered")
		}
		d, err := p.prompt.Pick(ctx, devices)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		if d == nil {
			return nil, trace.Wrap(context.Canceled)
		}
		return d, nil
	}

	d, err := p.store.Default()
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return d, nil
}
