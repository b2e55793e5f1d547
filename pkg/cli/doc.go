/*
Package cli provides command-line interface utilities for Callisto.

The cli package includes error types and signal helpers used by the
callisto command.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
	// Use ctx for operations that should be cancelled on shutdown

Error Types:

Commands wrap failures in typed errors so the root command can report them
uniformly:

	if err := config.Initialize(path); err != nil {
		return cli.NewConfigError("", err.Error())
	}
*/
package cli
