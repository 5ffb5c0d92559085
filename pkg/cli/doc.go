/*
Package cli provides helpers shared by the turnstile command: output
formatters, a progress reporter, signal handling and error types.

Output Formatting:

Results that implement Table render as aligned text, CSV or JSON:

	formatter := cli.NewFormatter(cli.FormatCSV)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

Progress Reporting:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(total)
	progress.Update(done, "admitted=12 rejected=3")
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
