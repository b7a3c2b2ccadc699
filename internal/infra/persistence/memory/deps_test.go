package memory

import (
	"go/build"
	"strings"
	"testing"
)

var allowedRepoImports = map[string]struct{}{
	"repokit/pkg/domain": {},
	"repokit/pkg/query":  {},
}

func TestImportsAreDomainOrStdlib(t *testing.T) {
	pkg, err := build.Default.ImportDir(".", 0)
	if err != nil {
		t.Fatalf("import dir: %v", err)
	}
	for _, imp := range pkg.Imports {
		if !strings.HasPrefix(imp, "repokit/") {
			continue
		}
		if _, ok := allowedRepoImports[imp]; ok {
			continue
		}
		t.Fatalf("unexpected dependency: %s", imp)
	}
}
