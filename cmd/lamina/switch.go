package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// autoSwitch is the value of an auto|on|off flag such as --color or --ui.
type autoSwitch string

const (
	switchAuto autoSwitch = "auto"
	switchOn   autoSwitch = "on"
	switchOff  autoSwitch = "off"
)

func parseSwitch(flag, value string) (autoSwitch, error) {
	switch s := autoSwitch(strings.ToLower(strings.TrimSpace(value))); s {
	case "":
		return switchAuto, nil
	case switchAuto, switchOn, switchOff:
		return s, nil
	}
	return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
}

// enabledFor resolves auto against f being a terminal.
func (s autoSwitch) enabledFor(f *os.File) bool {
	switch s {
	case switchOn:
		return true
	case switchOff:
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func colorEnabled(value string, f *os.File) (bool, error) {
	s, err := parseSwitch("color", value)
	if err != nil {
		return false, err
	}
	return s.enabledFor(f), nil
}
