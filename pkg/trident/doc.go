// Package trident is the public entry point for compiling Trident
// modules to linked Triton assembly.
//
// # Quick start
//
//	cfg := trident.DefaultConfig()
//	out, diags := trident.Compile(cfg, modules)
//	if diags.HasErrors() {
//		log.Fatal(diags)
//	}
//	fmt.Println(out)
//
// # Architecture
//
//   - pkg/trident/: public API (this package)
//   - internal/trident/: builder, optimizer, lowering and linker stages
//
// Implementation details in internal/ can change without breaking the
// public API.
package trident
