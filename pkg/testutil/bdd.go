package testutil

import "testing"

// Given, When and Then nest subtests whose names read as a scenario.

func Given(t *testing.T, desc string, fn func(t *testing.T)) { step(t, "Given", desc, fn) }
func When(t *testing.T, desc string, fn func(t *testing.T))  { step(t, "When", desc, fn) }
func Then(t *testing.T, desc string, fn func(t *testing.T))  { step(t, "Then", desc, fn) }

func step(t *testing.T, keyword, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run(keyword+" "+desc, fn)
}
