// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package errutil

import (
	"slices"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
)

// AssertErrorCode fails t unless err carries the oops code code. The
// deepest code in the chain wins, matching what LogError reports.
func AssertErrorCode(t testing.TB, err error, code string) {
	t.Helper()
	if _, ok := structured(t, err); !ok {
		return
	}
	assert.Equal(t, code, Code(err), "error code mismatch for %q", err.Error())
}

// AssertErrorContext fails t unless err's merged oops context maps key to
// value.
func AssertErrorContext(t testing.TB, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := structured(t, err)
	if !ok {
		return
	}
	attrs := oopsErr.Context()
	got, present := attrs[key]
	if !present {
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		assert.Fail(t, "error context key missing", "key %q not in %v (error %q)", key, keys, err.Error())
		return
	}
	assert.Equal(t, value, got, "error context %q mismatch", key)
}

func structured(t testing.TB, err error) (oops.OopsError, bool) {
	t.Helper()
	if err == nil {
		assert.Fail(t, "expected a coded error, got nil")
		return oops.OopsError{}, false
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		assert.Fail(t, "expected a coded error", "got %T: %v", err, err)
	}
	return oopsErr, ok
}
