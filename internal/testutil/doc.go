// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests that change process state.
//
// Each helper fails the test immediately on error and returns a cleanup
// function meant for t.Cleanup.
package testutil
