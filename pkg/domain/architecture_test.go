package domain

import (
	"slowpoke/testutil"
	"testing"
)

// The domain layer is shared by every component and must stay free of
// implementation packages.
func TestDomainDoesNotImportInternal(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "pkg/domain must not depend on internal packages")
}
