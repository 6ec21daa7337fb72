// Package appctl is the thin façade every install/launch CLI in the
// suite drives: upload-and-install, remove, launch, close, list, and
// running-process queries, all phrased as Luna-bus calls or
// subscriptions against one Session.
//
// Grounded on original_source/ares-install/src/install.rs (the
// upload-then-subscribe install flow) and
// ares-launch/src/{launch,close,running}.rs (the one-shot call
// operations), centralizing very different remote operations behind a
// single client type rather than scattering them across each cmd/
// binary, the way lib/client.TeleportClient does for its own RPCs.
package appctl

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"

	"github.com/webosbrew/ares-core/luna"
	"github.com/webosbrew/ares-core/transport"
)

var log = logrus.WithField("component", "appctl")

// installTempDir is where an uploaded .ipk is staged before the
// install service is asked to consume it.
const installTempDir = "/media/developer/temp"

// AppControl drives app lifecycle operations over a device's Luna bus
// and file transport.
type AppControl struct {
	luna      *luna.Client
	transport *transport.Transport
}

// New wraps a luna.Client and transport.Transport in an AppControl.
func New(lunaClient *luna.Client, tr *transport.Transport) *AppControl {
	return &AppControl{luna: lunaClient, transport: tr}
}

type installPayload struct {
	ID        string `json:"id"`
	IpkURL    string `json:"ipkUrl"`
	Subscribe bool   `json:"subscribe"`
}

type installEvent struct {
	Details luna.Details `json:"details"`
}

var installTerminalRE = regexp.MustCompile(`(?i)^installed$`)

// Install uploads the .ipk package bytes ipkData to the device and drives the
// dev/install subscription to completion, invoking progress with each
// non-terminal state string. It returns the installed package id.
func (a *AppControl) Install(ctx context.Context, ipkData []byte, progress func(string)) (string, error) {
	sum := sha256.Sum256(ipkData)
	ipkPath := fmt.Sprintf("%s/ares_install_%s.ipk", installTempDir, hex.EncodeToString(sum[:])[:10])

	if err := a.transport.Mkdir(ctx, installTempDir, 0777); err != nil {
		return "", &TransferFailedError{Err: err}
	}

	if err := a.transport.Put(ctx, bytes.NewReader(ipkData), ipkPath, nil); err != nil {
		return "", &TransferFailedError{Err: err}
	}
	defer func() {
		if err := a.transport.Remove(ctx, ipkPath); err != nil {
			log.WithField("path", ipkPath).WithError(err).Warn("failed to clean up staged ipk")
		}
	}()

	sub, err := luna.Subscribe[installEvent](ctx, a.luna, "luna://com.webos.appInstallService/dev/install", installPayload{
		ID:        "com.ares.defaultName",
		IpkURL:    ipkPath,
		Subscribe: true,
	}, true)
	if err != nil {
		return "", &LunaFailedError{Err: err}
	}
	defer sub.Close()

	for {
		event, err := sub.Next(ctx)
		if err != nil {
			return "", &LunaFailedError{Err: err}
		}
		result := luna.ProjectState(event.Details, installTerminalRE)
		switch result.Kind {
		case luna.StateFailure:
			return "", &RemoteError{Code: result.ErrorCode, Reason: result.Reason}
		case luna.StateSuccess:
			return result.PackageID, nil
		case luna.StateProgress:
			if progress != nil {
				progress(result.Progress)
			}
		}
	}
}

type removePayload struct {
	ID        string `json:"id"`
	Subscribe bool   `json:"subscribe"`
}

var removeTerminalRE = regexp.MustCompile(`(?i)removed`)

// Remove uninstalls appID, driving the dev/remove subscription to
// completion.
func (a *AppControl) Remove(ctx context.Context, appID string, progress func(string)) error {
	sub, err := luna.Subscribe[installEvent](ctx, a.luna, "luna://com.webos.appInstallService/dev/remove", removePayload{
		ID: appID, Subscribe: true,
	}, true)
	if err != nil {
		return &LunaFailedError{Err: err}
	}
	defer sub.Close()

	for {
		event, err := sub.Next(ctx)
		if err != nil {
			return &LunaFailedError{Err: err}
		}
		result := luna.ProjectState(event.Details, removeTerminalRE)
		switch result.Kind {
		case luna.StateFailure:
			return &RemoteError{Code: result.ErrorCode, Reason: result.Reason}
		case luna.StateSuccess:
			return nil
		case luna.StateProgress:
			if progress != nil {
				progress(result.Progress)
			}
		}
	}
}

type launchPayload struct {
	ID        string          `json:"id"`
	Subscribe bool            `json:"subscribe"`
	Params    json.RawMessage `json:"params,omitempty"`
}

type launchResponse struct {
	ReturnValue bool   `json:"returnValue"`
	ErrorText   string `json:"errorText"`
	ErrorCode   int    `json:"errorCode"`
}

// Launch starts appID with the given launch parameters.
func (a *AppControl) Launch(ctx context.Context, appID string, params json.RawMessage) error {
	resp, err := luna.Call[launchResponse](ctx, a.luna, "luna://com.webos.applicationManager/launch", launchPayload{
		ID: appID, Subscribe: false, Params: params,
	}, true)
	if err != nil {
		return &LunaFailedError{Err: err}
	}
	if !resp.ReturnValue {
		return remoteErrorFrom(resp.ErrorText, resp.ErrorCode)
	}
	return nil
}

// Close terminates a running appID.
func (a *AppControl) Close(ctx context.Context, appID string) error {
	resp, err := luna.Call[launchResponse](ctx, a.luna, "luna://com.webos.applicationManager/dev/closeByAppId", launchPayload{
		ID: appID, Subscribe: false,
	}, true)
	if err != nil {
		return &LunaFailedError{Err: err}
	}
	if !resp.ReturnValue {
		return remoteErrorFrom(resp.ErrorText, resp.ErrorCode)
	}
	return nil
}

// AppInfo is one entry of ListApps' result.
type AppInfo struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Vendor  string `json:"vendor"`
}

type listAppsResponse struct {
	Apps        []AppInfo `json:"apps"`
	ReturnValue bool      `json:"returnValue"`
}

// ListApps returns the apps installed on the device.
func (a *AppControl) ListApps(ctx context.Context) ([]AppInfo, error) {
	resp, err := luna.Call[listAppsResponse](ctx, a.luna, "luna://com.webos.applicationManager/dev/listApps", struct{}{}, true)
	if err != nil {
		return nil, &LunaFailedError{Err: err}
	}
	if !resp.ReturnValue {
		return nil, &RemoteError{Reason: "listApps returned false"}
	}
	return resp.Apps, nil
}

// RunningApp is one entry of Running's result.
type RunningApp struct {
	ID string `json:"id"`
}

type runningResponse struct {
	ReturnValue bool         `json:"returnValue"`
	ErrorText   string       `json:"errorText"`
	ErrorCode   int          `json:"errorCode"`
	Running     []RunningApp `json:"running"`
}

// Running lists the currently running apps.
func (a *AppControl) Running(ctx context.Context) ([]RunningApp, error) {
	resp, err := luna.Call[runningResponse](ctx, a.luna, "luna://com.webos.applicationManager/dev/running", struct {
		Subscribe bool `json:"subscribe"`
	}{Subscribe: false}, true)
	if err != nil {
		return nil, &LunaFailedError{Err: err}
	}
	if !resp.ReturnValue {
		return nil, remoteErrorFrom(resp.ErrorText, resp.ErrorCode)
	}
	return resp.Running, nil
}

func remoteErrorFrom(text string, code int) *RemoteError {
	if text == "" {
		text = "unknown error"
	}
	return &RemoteError{Code: code, Reason: text}
}
