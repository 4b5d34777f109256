// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bdd

import (
	"fmt"
	"log"
)

// Error returns the error status of the manager, or the empty string if there
// is none.
func (b *Manager) Error() string {
	if b.error == nil {
		return ""
	}
	return b.error.Error()
}

// Errored returns true if there was an error during a computation.
func (b *Manager) Errored() bool {
	return b.error != nil
}

// Err returns the manager's sticky error condition, or nil if there is none.
// Use Error for the printable form.
func (b *Manager) Err() error {
	return b.error
}

func (b *Manager) seterror(format string, a ...interface{}) Node {
	if b.error != nil {
		format = format + "; " + b.Error()
		b.error = fmt.Errorf(format, a...)
		return nil
	}
	b.error = fmt.Errorf(format, a...)
	if _DEBUG {
		log.Println(b.error)
	}
	return nil
}

// ErrDifferentManagers is returned whenever an operation mixes Edges produced
// by two different managers.
var ErrDifferentManagers = fmt.Errorf("operands belong to different BDD managers")
