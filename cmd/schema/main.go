package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"pump-panel/server/internal/net/proto"
)

func main() {
	var outDir string
	flag.StringVar(&outDir, "out", "", "directory to write the JSON schemas")
	flag.Parse()

	if outDir == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	for name, schema := range buildSchemas() {
		outPath := filepath.Join(outDir, name+".json")
		if err := writeSchema(outPath, schema); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", outPath, err)
			os.Exit(1)
		}
	}
}

func buildSchemas() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}

	clientSchema := reflector.Reflect(new(proto.ClientMessage))
	clientSchema.Title = "Pump Panel Client Message"
	clientSchema.Description = "Validates inbound websocket messages from panel clients"

	stateSchema := reflector.Reflect(new(proto.StateFrameV1))
	stateSchema.Title = "Pump Panel State Frame"
	stateSchema.Description = "Validates the per-tick state broadcast sent to panel clients"

	joinSchema := reflector.Reflect(new(proto.JoinResponseV1))
	joinSchema.Title = "Pump Panel Join Response"
	joinSchema.Description = "Validates the response returned by POST /join"

	return map[string]*jsonschema.Schema{
		"client_message": clientSchema,
		"state_frame":    stateSchema,
		"join_response":  joinSchema,
	}
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
