//go:build js && wasm

package main

import (
	"fmt"
	"strings"
	"syscall/js"

	"github.com/cottand/depmatch/cmd"
)

func main() {
	js.Global().Set("CheckFixture", js.FuncOf(checkFixture))

	// wait indefinitely so that Go does not terminate execution
	// and the function remains available
	<-make(chan struct{})
}

// checkFixture takes the YAML text of a fixture and returns the check report
func checkFixture(_ js.Value, args []js.Value) (ret any) {
	defer func() {
		if r := recover(); r != nil {
			ret = "checker panicked: " + fmt.Sprint(r)
		}
	}()
	if len(args) != 1 {
		return "expected a single fixture argument"
	}
	var out strings.Builder
	if err := cmd.CheckSource(&out, "fixture.yaml", []byte(args[0].String())); err != nil {
		_, _ = fmt.Fprintf(&out, "\n%s\n", err)
	}
	return out.String()
}
