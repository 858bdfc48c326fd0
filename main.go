// =============================================================================
// DIAN to Siigo Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the dian2siigo CLI. It loads a .env file
// when present and hands over to the cmd package.
//
// USAGE:
//   dian2siigo convert <file>   - Convert a DIAN export into a Siigo import
//   dian2siigo inspect <file>   - Show how an export would be read
//   dian2siigo serve            - Run the HTTP service
//   dian2siigo version          - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Loading, entry generation, validation and export
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/joho/godotenv"

	"github.com/ginjaninja78/dian-siigo-converter/cmd"
)

func main() {
	// A missing .env is normal; the environment and config.yaml still apply.
	_ = godotenv.Load()

	cmd.Execute()
}
