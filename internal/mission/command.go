// Skysurvey - Drone Survey Mission Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skysurvey

package mission

import "strings"

// Command is an operator instruction sent to a running mission.
type Command string

// Commands that end a mission.
const (
	CommandLand           Command = "land"
	CommandRTL            Command = "rtl"
	CommandReturnToLaunch Command = "return_to_launch"
	CommandAbort          Command = "abort"
	CommandStop           Command = "stop"
)

var terminalCommands = map[Command]struct{}{
	CommandLand:           {},
	CommandRTL:            {},
	CommandReturnToLaunch: {},
	CommandAbort:          {},
	CommandStop:           {},
}

// ParseCommand normalises raw command text.
func ParseCommand(raw string) Command {
	return Command(strings.ToLower(strings.TrimSpace(raw)))
}

// Terminal reports whether c stops the mission.
func (c Command) Terminal() bool {
	_, ok := terminalCommands[c]
	return ok
}
