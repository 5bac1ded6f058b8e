//go:build tools
// +build tools

// Package tools pins the code generators invoked through go generate (mockgen)
// so that they are tracked in go.mod.
package messages_service

import (
	_ "go.uber.org/mock/mockgen"
)
