/*
Package cli provides command-line helpers for the conduit binary.

Output Formatting:

Commands that print structured data (mode history, evidence stats)
support text and JSON output:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, data); err != nil {
		return err
	}

Signal Handling:

The serve command uses SetupSignalHandler to obtain a context that is
cancelled on SIGINT or SIGTERM, which drives graceful shutdown of the
HTTP server, the retention scheduler, and the trusted-sources watcher.

Errors:

ConfigError and CommandError give command failures a uniform shape so
the root command can print them consistently.
*/
package cli
