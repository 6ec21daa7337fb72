package input

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ServiceInfo is the parsed contents of a service directory's
// services.json.
type ServiceInfo struct {
	ID          string  `json:"id"`
	Description *string `json:"description,omitempty"`
	Engine      *string `json:"engine,omitempty"`
	Executable  *string `json:"executable,omitempty"`
}

// NativeMain satisfies NativeComponent: a service is native only when
// both engine and executable are present and engine is "native".
func (s ServiceInfo) NativeMain() (path string, native bool) {
	if s.Engine != nil && *s.Engine == "native" && s.Executable != nil {
		return *s.Executable, true
	}
	return "", false
}

// ParseServiceInfo reads and parses dir/services.json.
func ParseServiceInfo(dir string) (ServiceInfo, error) {
	data, err := os.ReadFile(filepath.Join(dir, "services.json"))
	if err != nil {
		return ServiceInfo{}, err
	}
	var info ServiceInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return ServiceInfo{}, &InvalidDataError{Err: fmt.Errorf("invalid services.json: %w", err)}
	}
	return info, nil
}
