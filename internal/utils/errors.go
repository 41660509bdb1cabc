package utils

import "errors"

// ErrUserInitiatedExit signals that the command is done and the program should
// exit with status 0, such as after printing help or version.
var ErrUserInitiatedExit = errors.New("user exit")
