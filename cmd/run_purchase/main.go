package main

import (
	"purchase-automation/cmd/run_purchase/commands"
	"purchase-automation/lib/serviceutil"
)

func main() {
	ctx, cancel := serviceutil.SignalContext()
	defer cancel()
	commands.ExecuteContext(ctx)
}
