package input

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AppInfo is the parsed contents of an app directory's appinfo.json.
type AppInfo struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Type    string `json:"type"`
	Main    string `json:"main"`
	Title   string `json:"title"`
	Vendor  string `json:"vendor,omitempty"`
}

// NativeMain reports the component's main executable and whether it
// should be ELF-inspected for architecture, satisfying
// NativeComponent.
func (a AppInfo) NativeMain() (path string, native bool) {
	return a.Main, a.Type == "native"
}

// ParseAppInfo reads and parses dir/appinfo.json.
func ParseAppInfo(dir string) (AppInfo, error) {
	data, err := os.ReadFile(filepath.Join(dir, "appinfo.json"))
	if err != nil {
		return AppInfo{}, err
	}
	var info AppInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return AppInfo{}, &InvalidDataError{Err: fmt.Errorf("invalid appinfo.json: %w", err)}
	}
	return info, nil
}
