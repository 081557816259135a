package main

import (
	"context"
	"seiassist-backend/cmd/sei-cli/commands"
	"seiassist-backend/lib/telemetry"
)

func main() {
	ctx := context.Background()
	tel, _ := telemetry.SetupFromEnv(ctx, "sei-cli")
	defer tel.Shutdown(ctx)

	commands.ExecuteContext(ctx)
}
