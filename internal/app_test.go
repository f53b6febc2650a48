package internal

import (
	"testing"

	"go.uber.org/fx"
)

func TestModule_GraphIsComplete(t *testing.T) {
	if err := fx.ValidateApp(Module()); err != nil {
		t.Fatalf("invalid application graph: %v", err)
	}
}
