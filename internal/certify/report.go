package certify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/signalhouse/replaycore/pkg/types"
)

// WriteReport renders the certification (batch verdict plus every embedded
// result) as a JSON report file and returns its path.
func WriteReport(dir string, cert types.ParityCertification) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("certification-%s.json", cert.CertificationID))
	body, err := json.MarshalIndent(cert, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, append(body, '\n'), 0o600); err != nil {
		return "", err
	}
	return path, nil
}
