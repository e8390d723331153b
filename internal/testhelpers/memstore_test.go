package testhelpers

import "testing"

func TestMemoryStores(t *testing.T) {
	RunStoreSuite(t, NewUsers(), NewLeads())
}
