/*
Package cli provides helpers shared by the steward command.

Output Formatting:

Results print as text, JSON or CSV. Types implementing Table get aligned
columns in text mode and rows in CSV mode:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, actions); err != nil {
		return err
	}

Styled traces:

	cli.PrintTrace(os.Stdout, events)

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Errors:

ExitCode maps configuration and contract errors to exit status 2 and every
other failure to 1.
*/
package cli
