package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

const machineIDPath = "/etc/machine-id"

// GetMachineID returns the machine id, preferring systemd-id128 and falling
// back to reading /etc/machine-id on systems without it.
func GetMachineID() (string, error) {
	out, err := exec.Command("systemd-id128", "machine-id", "-u").Output()
	if err == nil {
		return strings.TrimSpace(string(out)), nil
	}
	log.WithError(err).Debug("systemd-id128 failed, reading " + machineIDPath)

	return readMachineID(machineIDPath)
}

func readMachineID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve machine-id: %w", err)
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", fmt.Errorf("failed to retrieve machine-id: %s is empty", path)
	}
	return id, nil
}
